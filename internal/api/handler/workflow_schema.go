package handler

import (
	"github.com/gestaoprojetos/workflow-system/internal/core/domain"
	"github.com/gestaoprojetos/workflow-system/internal/core/ports"
)

// attachmentPayload is a file sent inline as a data URI
// ("data:image/png;base64,...").
type attachmentPayload struct {
	Name string `json:"name"`
	Data string `json:"data" validate:"required"`
}

type markItemRequest struct {
	Marked *bool `json:"marked" validate:"required"`
}

type submitObjectiveRequest struct {
	Description string              `json:"description"`
	Images      []attachmentPayload `json:"images" validate:"dive"`
	Documents   []attachmentPayload `json:"documents" validate:"dive"`
}

type submitDeliverableRequest struct {
	Description string             `json:"description"`
	Image       *attachmentPayload `json:"image,omitempty"`
}

type editDeliverableRequest struct {
	Description string             `json:"description"`
	Image       *attachmentPayload `json:"image,omitempty"`
	RemoveImage bool               `json:"remove_image"`
}

type reviewRequest struct {
	Decision string `json:"decision" validate:"required"`
	Comment  string `json:"comment"`
}

type checklistItemResponse struct {
	Index     int                         `json:"index"`
	Text      string                      `json:"text"`
	Marked    bool                        `json:"marked"`
	Status    domain.SubmissionStatus     `json:"status"`
	Latest    *domain.ChecklistSubmission `json:"latest_submission,omitempty"`
	CanSubmit bool                        `json:"can_submit"`
}

type stageDetailResponse struct {
	Stage                domain.Stage            `json:"stage"`
	Progress             domain.StageProgress    `json:"progress"`
	Checklist            []checklistItemResponse `json:"checklist"`
	Deliverables         []domain.Deliverable    `json:"deliverables"`
	LatestDeliverable    *domain.Deliverable     `json:"latest_deliverable,omitempty"`
	MayAct               bool                    `json:"may_act"`
	CanSubmitDeliverable bool                    `json:"can_submit_deliverable"`
	CanEditDeliverable   bool                    `json:"can_edit_deliverable"`
}

type myTasksResponse struct {
	Stages   []domain.Stage    `json:"stages"`
	Projects []*domain.Project `json:"projects"`
	Stats    domain.StageStats `json:"stats"`
}

func toAttachmentInputs(in []attachmentPayload) []ports.AttachmentInput {
	if len(in) == 0 {
		return nil
	}
	out := make([]ports.AttachmentInput, len(in))
	for i, a := range in {
		out[i] = ports.AttachmentInput{Name: a.Name, Data: a.Data}
	}
	return out
}

func toAttachmentInput(in *attachmentPayload) *ports.AttachmentInput {
	if in == nil {
		return nil
	}
	return &ports.AttachmentInput{Name: in.Name, Data: in.Data}
}

func toStageDetailResponse(d *ports.StageDetail) stageDetailResponse {
	items := make([]checklistItemResponse, len(d.Items))
	for i, it := range d.Items {
		items[i] = checklistItemResponse{
			Index:     it.Index,
			Text:      it.Text,
			Marked:    it.Marked,
			Status:    it.Status,
			Latest:    it.Latest,
			CanSubmit: it.CanSubmit,
		}
	}
	deliverables := d.Deliverables
	if deliverables == nil {
		deliverables = []domain.Deliverable{}
	}
	return stageDetailResponse{
		Stage:                d.Stage,
		Progress:             d.Progress,
		Checklist:            items,
		Deliverables:         deliverables,
		LatestDeliverable:    d.LatestDeliverable,
		MayAct:               d.MayAct,
		CanSubmitDeliverable: d.CanSubmitDeliverable,
		CanEditDeliverable:   d.CanEditDeliverable,
	}
}

func toMyTasksResponse(r *ports.MyTasksResult) myTasksResponse {
	resp := myTasksResponse{Stages: r.Stages, Projects: r.Projects, Stats: r.Stats}
	if resp.Stages == nil {
		resp.Stages = []domain.Stage{}
	}
	if resp.Projects == nil {
		resp.Projects = []*domain.Project{}
	}
	return resp
}
