package session

import (
	"sort"

	"github.com/garnizeh/crm/pkg/models"
)

// Capability names a view or workflow a user may reach.
type Capability string

const (
	ViewAdminDashboard Capability = "ViewAdminDashboard"
	ViewCustomers      Capability = "ViewCustomers"
	EditCustomers      Capability = "EditCustomers"
	ViewSales          Capability = "ViewSales"
	ManageSales        Capability = "ManageSales"
	ViewProjects       Capability = "ViewProjects"
	ManageProjects     Capability = "ManageProjects"
	ManageUsers        Capability = "ManageUsers"
	ViewReports        Capability = "ViewReports"

	// Funding writes are split by scope, matching who may edit the owner.
	ManageCustomerFunding Capability = "ManageCustomerFunding"
	ManageProjectFunding  Capability = "ManageProjectFunding"
)

// AllCapabilities lists every capability in declaration order.
func AllCapabilities() []Capability {
	return []Capability{
		ViewAdminDashboard, ViewCustomers, EditCustomers, ViewSales, ManageSales,
		ViewProjects, ManageProjects, ManageCustomerFunding, ManageProjectFunding,
		ManageUsers, ViewReports,
	}
}

// CapabilitySet is an immutable set of capabilities.
type CapabilitySet map[Capability]struct{}

func newSet(caps ...Capability) CapabilitySet {
	s := make(CapabilitySet, len(caps))
	for _, c := range caps {
		s[c] = struct{}{}
	}
	return s
}

func (s CapabilitySet) Has(c Capability) bool {
	_, ok := s[c]
	return ok
}

// Sorted returns the members in a stable order for display.
func (s CapabilitySet) Sorted() []Capability {
	out := make([]Capability, 0, len(s))
	for c := range s {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// FundingCapability returns the capability needed to write funding for scope.
func FundingCapability(scope models.FundingScope) Capability {
	if scope.Kind == models.ScopeProject {
		return ManageProjectFunding
	}
	return ManageCustomerFunding
}

// CapabilitiesFor maps a role to what it may do. Unknown roles get nothing.
func CapabilitiesFor(role models.Role) CapabilitySet {
	switch role {
	case models.RoleAdmin:
		return newSet(AllCapabilities()...)
	case models.RoleSales:
		return newSet(ViewCustomers, EditCustomers, ViewSales, ManageSales, ManageCustomerFunding, ViewReports)
	case models.RoleProjectManager:
		return newSet(ViewCustomers, ViewProjects, ManageProjects, ManageProjectFunding)
	default:
		return newSet()
	}
}
