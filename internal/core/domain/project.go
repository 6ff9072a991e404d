package domain

import (
	"slices"
	"time"

	"github.com/shopspring/decimal"
)

// ProjectStatus represents whether a project is still running.
type ProjectStatus string

const (
	ProjectInProgress ProjectStatus = "IN_PROGRESS"
	ProjectFinished   ProjectStatus = "FINISHED"
)

// Project groups stages under a supervisor and responsible parties.
type Project struct {
	ID             string          `json:"id"`
	Name           string          `json:"name"`
	Status         ProjectStatus   `json:"status"`
	SupervisorID   string          `json:"supervisor_id,omitempty"`
	ResponsibleIDs []string        `json:"responsible_ids"`
	TotalValue     decimal.Decimal `json:"total_value"`
	// Progress is a precomputed percentage; it is carried, never recomputed.
	Progress  float64   `json:"progress"`
	Stages    []Stage   `json:"stages,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// StagesLoaded is false when the project was listed without its stages.
	StagesLoaded bool `json:"-"`
}

// DirectlyInvolves reports supervisor or responsible-party involvement,
// which needs no stage data.
func (p *Project) DirectlyInvolves(userID string) bool {
	if userID == "" {
		return false
	}
	return p.SupervisorID == userID || slices.Contains(p.ResponsibleIDs, userID)
}

// Involves reports whether userID is supervisor, responsible party, or
// executor/team member of any loaded stage.
func (p *Project) Involves(userID string) bool {
	if p.DirectlyInvolves(userID) {
		return true
	}
	for i := range p.Stages {
		if p.Stages[i].MayAct(userID) {
			return true
		}
	}
	return false
}

// NeedsHydration is true when stage membership must be fetched before
// involvement can be decided.
func (p *Project) NeedsHydration(userID string) bool {
	return !p.StagesLoaded && !p.DirectlyInvolves(userID)
}
