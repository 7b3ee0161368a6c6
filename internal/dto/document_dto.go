package dto

type GenerateDocumentRequest struct {
	DocumentType string `json:"document_type" form:"document_type" validate:"required,oneof=certificate referral"`
}

type DraftResponse struct {
	SessionID    string `json:"session_id"`
	DocumentType string `json:"document_type"`
	Content      string `json:"content"`
}
