package entity

import "time"

// Actions a clinician can take on a generated output.
const (
	FeedbackAccept = "accept"
	FeedbackReject = "reject"
	FeedbackEdit   = "edit"
)

// EditMetrics quantifies how far the clinician's version strays from the
// model's output. Only edits carry metrics; accepts and rejects do not.
type EditMetrics struct {
	Distance   int     `json:"distance"`
	Similarity float64 `json:"similarity"`
}

// TrainingContext captures what the model saw when it produced the output
// under review, so a record is a self-contained training sample.
type TrainingContext struct {
	SystemPrompt string `json:"system_prompt"`
	History      string `json:"history"`
	PreviousNote string `json:"previous_note"`
}

// TrainingRecord is one human-feedback sample destined for a fine-tuning
// dataset. Chosen is the ground truth; Rejected holds the model output
// when the clinician changed it.
type TrainingRecord struct {
	SessionID    string          `json:"session_id"`
	ModelID      string          `json:"model_id"`
	TaskType     string          `json:"task_type"`
	Action       string          `json:"action"`
	Timestamp    time.Time       `json:"timestamp"`
	InputContext TrainingContext `json:"input_context"`
	Metrics      *EditMetrics    `json:"metrics"`
	Chosen       string          `json:"chosen"`
	Rejected     string          `json:"rejected"`
}
