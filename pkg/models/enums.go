package models

import (
	"github.com/garnizeh/crm/pkg/crmerr"
)

// Role is the access role carried by a User and by the session token.
type Role string

const (
	RoleAdmin          Role = "Admin"
	RoleSales          Role = "Sales"
	RoleProjectManager Role = "Project Manager"
)

func (r Role) IsValid() bool {
	switch r {
	case RoleAdmin, RoleSales, RoleProjectManager:
		return true
	}
	return false
}

func RoleValues() []Role { return []Role{RoleAdmin, RoleSales, RoleProjectManager} }

func ParseRole(s string) (Role, error) {
	r := Role(s)
	if !r.IsValid() {
		return "", crmerr.InvalidEnum("role", s)
	}
	return r, nil
}

// CustomerTag classifies a customer. The empty tag means untagged.
type CustomerTag string

const (
	TagVIP       CustomerTag = "VIP"
	TagPotential CustomerTag = "Potential"
	TagArchived  CustomerTag = "Archived"
)

func (t CustomerTag) IsValid() bool {
	switch t {
	case TagVIP, TagPotential, TagArchived:
		return true
	}
	return false
}

func CustomerTagValues() []CustomerTag { return []CustomerTag{TagVIP, TagPotential, TagArchived} }

func ParseCustomerTag(s string) (CustomerTag, error) {
	t := CustomerTag(s)
	if !t.IsValid() {
		return "", crmerr.InvalidEnum("tag", s)
	}
	return t, nil
}

// ProjectPhase is the delivery phase of a project.
type ProjectPhase string

const (
	PhasePlanning    ProjectPhase = "Planning"
	PhaseDevelopment ProjectPhase = "Development"
	PhaseTesting     ProjectPhase = "Testing"
	PhaseDeployment  ProjectPhase = "Deployment"
)

func (p ProjectPhase) IsValid() bool {
	switch p {
	case PhasePlanning, PhaseDevelopment, PhaseTesting, PhaseDeployment:
		return true
	}
	return false
}

func ProjectPhaseValues() []ProjectPhase {
	return []ProjectPhase{PhasePlanning, PhaseDevelopment, PhaseTesting, PhaseDeployment}
}

func ParseProjectPhase(s string) (ProjectPhase, error) {
	p := ProjectPhase(s)
	if !p.IsValid() {
		return "", crmerr.InvalidEnum("phase", s)
	}
	return p, nil
}

// WorkStatus is shared by tasks and resource requests.
type WorkStatus string

const (
	StatusPending    WorkStatus = "Pending"
	StatusInProgress WorkStatus = "In Progress"
	StatusCompleted  WorkStatus = "Completed"
)

func (s WorkStatus) IsValid() bool {
	switch s {
	case StatusPending, StatusInProgress, StatusCompleted:
		return true
	}
	return false
}

func WorkStatusValues() []WorkStatus {
	return []WorkStatus{StatusPending, StatusInProgress, StatusCompleted}
}

func ParseWorkStatus(s string) (WorkStatus, error) {
	st := WorkStatus(s)
	if !st.IsValid() {
		return "", crmerr.InvalidEnum("status", s)
	}
	return st, nil
}

// InteractionType is the channel of a customer interaction.
type InteractionType string

const (
	InteractionEmail      InteractionType = "Email"
	InteractionCall       InteractionType = "Call"
	InteractionMeeting    InteractionType = "Meeting"
	InteractionFileUpload InteractionType = "File Upload"
)

func (t InteractionType) IsValid() bool {
	switch t {
	case InteractionEmail, InteractionCall, InteractionMeeting, InteractionFileUpload:
		return true
	}
	return false
}

func InteractionTypeValues() []InteractionType {
	return []InteractionType{InteractionEmail, InteractionCall, InteractionMeeting, InteractionFileUpload}
}

func ParseInteractionType(s string) (InteractionType, error) {
	t := InteractionType(s)
	if !t.IsValid() {
		return "", crmerr.InvalidEnum("interaction_type", s)
	}
	return t, nil
}

// FundingStatus is the approval state of a funding record.
type FundingStatus string

const (
	FundingPending  FundingStatus = "Pending"
	FundingApproved FundingStatus = "Approved"
	FundingFunded   FundingStatus = "Funded"
	FundingRejected FundingStatus = "Rejected"
)

func (s FundingStatus) IsValid() bool {
	switch s {
	case FundingPending, FundingApproved, FundingFunded, FundingRejected:
		return true
	}
	return false
}

// RequiresApprovalDate reports whether a record in this status carries an approval date.
func (s FundingStatus) RequiresApprovalDate() bool {
	return s == FundingApproved || s == FundingFunded
}

func FundingStatusValues() []FundingStatus {
	return []FundingStatus{FundingPending, FundingApproved, FundingFunded, FundingRejected}
}

// ParseFundingStatus accepts only the status names. Numeric legacy codes are rejected.
func ParseFundingStatus(s string) (FundingStatus, error) {
	st := FundingStatus(s)
	if !st.IsValid() {
		return "", crmerr.InvalidEnum("funding_status", s)
	}
	return st, nil
}

// SalesStage is the pipeline stage of a sales opportunity.
type SalesStage string

const (
	StageProposalSent SalesStage = "Proposal Sent"
	StageNegotiation  SalesStage = "Negotiation"
	StageQualified    SalesStage = "Qualified"
)

func (s SalesStage) IsValid() bool {
	switch s {
	case StageProposalSent, StageNegotiation, StageQualified:
		return true
	}
	return false
}

func SalesStageValues() []SalesStage {
	return []SalesStage{StageProposalSent, StageNegotiation, StageQualified}
}

func ParseSalesStage(s string) (SalesStage, error) {
	st := SalesStage(s)
	if !st.IsValid() {
		return "", crmerr.InvalidEnum("sales_stage", s)
	}
	return st, nil
}

// RequestType is the kind of a project resource request.
type RequestType string

const (
	RequestTechnical RequestType = "Technical"
	RequestFinancial RequestType = "Financial"
)

func (t RequestType) IsValid() bool {
	return t == RequestTechnical || t == RequestFinancial
}

func RequestTypeValues() []RequestType { return []RequestType{RequestTechnical, RequestFinancial} }

func ParseRequestType(s string) (RequestType, error) {
	t := RequestType(s)
	if !t.IsValid() {
		return "", crmerr.InvalidEnum("request_type", s)
	}
	return t, nil
}
