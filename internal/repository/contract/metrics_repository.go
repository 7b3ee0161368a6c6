package contract

import "context"

// Metric field names written by the pipeline.
const (
	MetricChunksProcessed  = "chunks_processed"
	MetricFailedChunks     = "failed_chunks"
	MetricWarningCount     = "warning_count"
	MetricSafetyAlertCount = "safety_alert_count"
	MetricFinalLatencyMs   = "final_e2e_latency_ms"
)

// Metric field names written by the feedback flow. Rejects are tracked
// too: the failure rate is a quality signal in its own right.
const (
	MetricFeedbackCount     = "feedback_count"
	MetricAcceptCount       = "accept_count"
	MetricRejectCount       = "reject_count"
	MetricEditCount         = "edit_count"
	MetricTotalSimilarity   = "total_similarity"
	MetricTotalEditDistance = "total_edit_distance"
)

// MetricsRepository aggregates per-session counters with atomic
// increments, so concurrent attempts never race.
type MetricsRepository interface {
	IncrBy(ctx context.Context, sessionID, field string, delta int64) error
	IncrByFloat(ctx context.Context, sessionID, field string, delta float64) error
	GetAll(ctx context.Context, sessionID string) (map[string]string, error)
}
