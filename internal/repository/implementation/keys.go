package implementation

import "fmt"

// All session-scoped state lives under session:{id}:* so teardown can
// sweep it with one SCAN.
func sessionKey(sessionID, suffix string) string {
	return fmt.Sprintf("session:%s:%s", sessionID, suffix)
}

const (
	suffixMetadata     = "metadata"
	suffixHistory      = "history"
	suffixHistoryChunk = "history_chunk"
	suffixUITranscript = "ui_transcript"
	suffixChunkCount   = "chunk_count"
	suffixNextChunk    = "next_chunk"
	suffixSoap         = "soap"
	suffixBuffer       = "buffer"
	suffixMetrics      = "metrics"
)

// draftSuffix keys derived-document drafts per type, e.g.
// session:{id}:referral:draft.
func draftSuffix(docType string) string {
	return docType + ":draft"
}

// notificationSuffix maps a kind to its hash key suffix.
func notificationSuffix(kind string) string {
	if kind == "safety_alert" {
		return "safety"
	}
	return "warnings"
}
