package dto

// IngestChunkRequest is the multipart form accompanying an audio upload.
// The file itself arrives as the "file" form field.
type IngestChunkRequest struct {
	SessionID   string `form:"session_id" validate:"required"`
	DoctorID    string `form:"doctor_id"`
	PatientMRN  string `form:"patient_mrn"`
	IsLastChunk bool   `form:"is_last_chunk"`
}

// IngestChunkResponse acknowledges queueing only. Pipeline outcomes are
// reported through the notification and note endpoints, never here.
type IngestChunkResponse struct {
	SessionID  string `json:"session_id"`
	ChunkIndex int    `json:"chunk_index"`
	Status     string `json:"status"`
}
