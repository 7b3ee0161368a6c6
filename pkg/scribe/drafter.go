package scribe

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"clinical-scribe-be/internal/entity"
	"clinical-scribe-be/internal/pkg/failure"
	"clinical-scribe-be/pkg/llm"
)

// DocumentType names a derived document generated from the finished
// consultation.
type DocumentType string

const (
	DocumentCertificate DocumentType = "certificate"
	DocumentReferral    DocumentType = "referral"
)

// ParseDocumentType validates a client-supplied type string.
func ParseDocumentType(raw string) (DocumentType, error) {
	switch DocumentType(strings.ToLower(strings.TrimSpace(raw))) {
	case DocumentCertificate:
		return DocumentCertificate, nil
	case DocumentReferral:
		return DocumentReferral, nil
	default:
		return "", fmt.Errorf("unknown document type %q", raw)
	}
}

// DocumentDrafter writes a derived clinical document (referral letter,
// medical certificate) from the dialogue and the SOAP note. Drafting
// reads the note; it never mutates it.
type DocumentDrafter interface {
	Draft(ctx context.Context, docType DocumentType, history []entity.DialogueTurn, note *entity.SOAPNote) (string, error)
}

// The SOAP stage needs JSON but derived documents need plain text, so the
// system prompt stays format-neutral and the per-type suffix dictates the
// output shape.
const drafterSystemPrompt = `You are an expert medical scribe assisting a physician.
Your role: document clinical consultations accurately and professionally.
You must strictly follow the output format and instructions given at the very end of the user prompt.
Tone: objective, clinical, and professional.`

const certificateSuffix = `TASK: Write a formal Medical Certificate based on the SOAP note above.
Output format: PLAIN TEXT ONLY.
Constraints:
1. Do NOT use JSON.
2. Do NOT include conversational fillers like "Here is the certificate".
3. Start directly with the title "MEDICAL CERTIFICATE".
4. Structure must include: patient name and demographics (use placeholders if missing), date of exam, diagnosis, duration of unfitness for work or school, and a doctor's name/signature placeholder.
5. Keep the tone strictly formal and medico-legal.`

const referralSuffix = `TASK: Write a formal Referral Letter based on the dialogue and SOAP note above.
Output format: PLAIN TEXT ONLY.
Constraints:
1. Do NOT use JSON.
2. Do NOT include conversational fillers like "Here is the letter".
3. Start directly with "Date:" or "To Dr. [Name]".
4. Include patient demographics if available, otherwise use placeholders.`

// SystemPromptFor reconstructs the system prompt a task type was generated
// with, so feedback records capture the full model input.
func SystemPromptFor(taskType string) string {
	if taskType == "soap" {
		return deltaSystemPrompt
	}
	return drafterSystemPrompt
}

type LLMDocumentDrafter struct {
	provider llm.LLMProvider
}

var _ DocumentDrafter = &LLMDocumentDrafter{}

func NewLLMDocumentDrafter(provider llm.LLMProvider) *LLMDocumentDrafter {
	return &LLMDocumentDrafter{provider: provider}
}

func (d *LLMDocumentDrafter) Draft(ctx context.Context, docType DocumentType, history []entity.DialogueTurn, note *entity.SOAPNote) (string, error) {
	var suffix string
	switch docType {
	case DocumentCertificate:
		suffix = certificateSuffix
	case DocumentReferral:
		suffix = referralSuffix
	default:
		return "", fmt.Errorf("unknown document type %q", docType)
	}

	noteJSON, err := json.Marshal(note)
	if err != nil {
		return "", err
	}

	messages := []llm.Message{
		{Role: "system", Content: drafterSystemPrompt},
	}
	for _, turn := range history {
		messages = append(messages, llm.Message{
			Role:    "user",
			Content: fmt.Sprintf("%s: %s", strings.ToUpper(turn.Role), turn.Content),
		})
	}
	messages = append(messages, llm.Message{
		Role:    "user",
		Content: fmt.Sprintf("--- REFERENCE: FINAL SOAP NOTE ---\n%s\n\n%s", noteJSON, suffix),
	})

	response, err := d.provider.Chat(ctx, messages, llm.WithTemperature(0.2))
	if err != nil {
		return "", failure.Transient(fmt.Errorf("draft %s: %w", docType, err))
	}

	draft := strings.TrimSpace(StripCodeFences(response))
	if draft == "" {
		return "", fmt.Errorf("model returned an empty %s draft", docType)
	}
	return draft, nil
}
