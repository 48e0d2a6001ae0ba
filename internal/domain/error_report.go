package domain

import "time"

// Origin is the database enumeration for where an error report came from.
type Origin string

const (
	OriginOnboarding Origin = "onboarding"
	OriginOther      Origin = "other"
)

// Reason is the database enumeration for the party responsible for an error.
type Reason string

const (
	ReasonClientBase  Reason = "client_base"
	ReasonModeler     Reason = "modeler"
	ReasonAnalyst     Reason = "analyst"
	ReasonEngineering Reason = "engineering"
	ReasonInAnalysis  Reason = "in_analysis"
)

// Status is the database enumeration for the SLA state of an error report.
type Status string

const (
	StatusOnTime     Status = "on_time"
	StatusSLAExpired Status = "sla_expired"
	StatusCritical   Status = "critical"
	StatusResolved   Status = "resolved"
)

// Placeholders stored when the source leaves an optional column blank.
const (
	DefaultModules = "Não especificado"
	DefaultOrigin  = "Outro"
	DefaultReason  = "Em análise"
	DefaultAgent   = "Não atribuído"
	DefaultStatus  = "No prazo"
)

// ErrorReport is one imported spreadsheet row destined for error_reports.
type ErrorReport struct {
	ClientID  string    `json:"clientId"`
	Key       string    `json:"key"`
	Modules   string    `json:"modules"`
	Origin    Origin    `json:"origin"`
	Reason    Reason    `json:"reason"`
	Agent     string    `json:"agent"`
	Records   string    `json:"records"`
	Status    Status    `json:"status"`
	Ticket    *string   `json:"ticket,omitempty"`
	Action    *string   `json:"recommendedAction,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Stamp returns a copy of the report with both timestamps set to now.
func (r ErrorReport) Stamp(now time.Time) ErrorReport {
	r.CreatedAt = now
	r.UpdatedAt = now
	return r
}

// OptionalString returns nil for an empty value so it is stored as NULL.
func OptionalString(value string) *string {
	if value == "" {
		return nil
	}
	return &value
}
