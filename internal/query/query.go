// Package query filters loaded entity collections by exact-match criteria.
package query

import (
	"sort"

	"github.com/garnizeh/crm/pkg/crmerr"
	"github.com/garnizeh/crm/pkg/models"
)

// Criteria narrows a collection. Zero-valued fields match everything.
type Criteria struct {
	Industry   string
	Location   string
	Tag        string
	SalesStage string
	CustomerID int64
}

// Filter keeps the items for which every predicate holds, in their original
// order. The result is never nil.
func Filter[T any](items []T, preds ...func(T) bool) []T {
	out := make([]T, 0, len(items))
next:
	for _, it := range items {
		for _, p := range preds {
			if !p(it) {
				continue next
			}
		}
		out = append(out, it)
	}
	return out
}

// Equals builds an exact-match predicate on field. An empty want matches all.
func Equals[T any](field func(T) string, want string) func(T) bool {
	if want == "" {
		return func(T) bool { return true }
	}
	return func(it T) bool { return field(it) == want }
}

func idEquals[T any](field func(T) int64, want int64) func(T) bool {
	if want == 0 {
		return func(T) bool { return true }
	}
	return func(it T) bool { return field(it) == want }
}

var customerFields = map[string]func(models.Customer) string{
	"industry":    func(c models.Customer) string { return c.Industry },
	"location":    func(c models.Customer) string { return c.Location },
	"tag":         func(c models.Customer) string { return string(c.Tag) },
	"sales_stage": func(c models.Customer) string { return c.SalesStage },
}

// CustomerField returns the accessor behind a customer filter key.
func CustomerField(name string) (func(models.Customer) string, error) {
	f, ok := customerFields[name]
	if !ok {
		return nil, crmerr.Validation("CustomerField", "unknown filter "+name)
	}
	return f, nil
}

// CustomerFieldNames lists the keys CustomerField accepts.
func CustomerFieldNames() []string {
	names := make([]string, 0, len(customerFields))
	for k := range customerFields {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

func FilterCustomers(items []models.Customer, c Criteria) []models.Customer {
	return Filter(items,
		Equals(customerFields["industry"], c.Industry),
		Equals(customerFields["location"], c.Location),
		Equals(customerFields["tag"], c.Tag),
		Equals(customerFields["sales_stage"], c.SalesStage),
	)
}

func FilterProjects(items []models.Project, c Criteria) []models.Project {
	return Filter(items, idEquals(func(p models.Project) int64 { return p.CustomerID }, c.CustomerID))
}

func FilterSalesOpportunities(items []models.SalesOpportunity, c Criteria) []models.SalesOpportunity {
	return Filter(items,
		idEquals(func(s models.SalesOpportunity) int64 { return s.CustomerID }, c.CustomerID),
		Equals(func(s models.SalesOpportunity) string { return string(s.Stage) }, c.SalesStage),
	)
}

// DistinctValues returns each non-empty value of field once, sorted.
func DistinctValues[T any](items []T, field func(T) string) []string {
	seen := make(map[string]struct{}, len(items))
	out := []string{}
	for _, it := range items {
		v := field(it)
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}
