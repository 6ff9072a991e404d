package domain

import "github.com/shopspring/decimal"

// StageStats counts stages by the statuses shown on summary cards.
type StageStats struct {
	Pending     int `json:"pending"`
	InProgress  int `json:"in_progress"`
	UnderReview int `json:"under_review"`
}

// ComputeStageStats aggregates stages by status. Approved and rejected
// stages are not counted.
func ComputeStageStats(stages []Stage) StageStats {
	var st StageStats
	for i := range stages {
		switch stages[i].Status {
		case StagePending:
			st.Pending++
		case StageInProgress:
			st.InProgress++
		case StageUnderReview:
			st.UnderReview++
		}
	}
	return st
}

// InvolvedProjects filters projects relevant to userID. Each project id
// appears at most once, in first-seen order.
func InvolvedProjects(projects []*Project, userID string) []*Project {
	seen := make(map[string]struct{}, len(projects))
	out := make([]*Project, 0, len(projects))
	for _, p := range projects {
		if p == nil {
			continue
		}
		if _, dup := seen[p.ID]; dup {
			continue
		}
		if p.Involves(userID) {
			seen[p.ID] = struct{}{}
			out = append(out, p)
		}
	}
	return out
}

// PortfolioSummary rolls up a set of projects for the dashboard.
type PortfolioSummary struct {
	Projects        int             `json:"projects"`
	InProgress      int             `json:"in_progress"`
	Finished        int             `json:"finished"`
	AverageProgress float64         `json:"average_progress"`
	TotalValue      decimal.Decimal `json:"total_value"`
	Stages          StageStats      `json:"stages"`
}

// SummarizePortfolio sums opaque project progress and value, and counts
// the stages of every project.
func SummarizePortfolio(projects []*Project) PortfolioSummary {
	sum := PortfolioSummary{TotalValue: decimal.Zero}
	var progress float64
	var stages []Stage
	for _, p := range projects {
		sum.Projects++
		switch p.Status {
		case ProjectInProgress:
			sum.InProgress++
		case ProjectFinished:
			sum.Finished++
		}
		progress += p.Progress
		sum.TotalValue = sum.TotalValue.Add(p.TotalValue)
		stages = append(stages, p.Stages...)
	}
	if sum.Projects > 0 {
		sum.AverageProgress = progress / float64(sum.Projects)
	}
	sum.Stages = ComputeStageStats(stages)
	return sum
}
