package domain

import "time"

// Notification is a message addressed to one user.
type Notification struct {
	ID        string            `json:"id" bson:"_id"`
	UserID    string            `json:"user_id" bson:"user_id"`
	Kind      WorkflowEventKind `json:"kind" bson:"kind"`
	Message   string            `json:"message" bson:"message"`
	StageID   string            `json:"stage_id,omitempty" bson:"stage_id,omitempty"`
	ProjectID string            `json:"project_id,omitempty" bson:"project_id,omitempty"`
	Read      bool              `json:"read" bson:"read"`
	CreatedAt time.Time         `json:"created_at" bson:"created_at"`
}
