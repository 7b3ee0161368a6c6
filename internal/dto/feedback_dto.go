package dto

import "clinical-scribe-be/internal/entity"

type FeedbackRequest struct {
	SessionID string `json:"session_id" form:"session_id" validate:"required"`
	// TaskType names which output the feedback is about: "soap" (default)
	// or a derived document type.
	TaskType      string `json:"task_type" form:"task_type"`
	Action        string `json:"action" form:"action" validate:"required,oneof=accept reject edit"`
	EditedContent string `json:"edited_content" form:"edited_content"`
	Rating        string `json:"rating" form:"rating"`
}

type FeedbackResponse struct {
	SessionID string              `json:"session_id"`
	Action    string              `json:"action"`
	Metrics   *entity.EditMetrics `json:"metrics,omitempty"`
}
