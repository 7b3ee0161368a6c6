package scribe

import (
	"context"
	"encoding/json"
	"log"
	"strconv"

	"clinical-scribe-be/internal/entity"
	"clinical-scribe-be/pkg/llm"
)

const roleTaggerSystemPrompt = `You are a medical conversation analyst. You receive a JSON array of utterances, each with an "id" and "text", from a doctor-patient consultation.
Classify who is speaking in each utterance.
Respond with ONLY a JSON object mapping each id to "doctor" or "patient". Example: {"0": "doctor", "1": "patient"}.
Do not add any other text.`

// LLMRoleTagger infers doctor/patient roles from semantic context. A
// failed or partial classification degrades to RoleUnknown per turn, so
// the pipeline never blocks on this stage.
type LLMRoleTagger struct {
	provider llm.LLMProvider
}

var _ RoleTagger = &LLMRoleTagger{}

func NewLLMRoleTagger(provider llm.LLMProvider) *LLMRoleTagger {
	return &LLMRoleTagger{provider: provider}
}

type taggedUtterance struct {
	ID   int    `json:"id"`
	Text string `json:"text"`
}

func (t *LLMRoleTagger) AssignRoles(ctx context.Context, turns []entity.DialogueTurn) ([]entity.DialogueTurn, error) {
	if len(turns) == 0 {
		return []entity.DialogueTurn{}, nil
	}

	// Index is the id: roles are unassigned at this point so there is
	// nothing else stable to key on.
	input := make([]taggedUtterance, len(turns))
	for i, turn := range turns {
		input[i] = taggedUtterance{ID: i, Text: turn.Content}
	}

	roleMap := t.classify(ctx, input)

	updated := make([]entity.DialogueTurn, len(turns))
	for i, turn := range turns {
		role, ok := roleMap[i]
		if !ok {
			role = entity.RoleUnknown
		}
		turn.Role = role
		updated[i] = turn
	}

	return updated, nil
}

func (t *LLMRoleTagger) classify(ctx context.Context, input []taggedUtterance) map[int]string {
	inputJSON, err := json.Marshal(input)
	if err != nil {
		return nil
	}

	response, err := t.provider.Chat(ctx, []llm.Message{
		{Role: "system", Content: roleTaggerSystemPrompt},
		{Role: "user", Content: string(inputJSON)},
	}, llm.WithTemperature(0.0), llm.WithJSONMode())
	if err != nil {
		log.Printf("[WARN] Role tagging failed, defaulting to unknown: %v", err)
		return nil
	}

	var rawMap map[string]string
	if err := json.Unmarshal([]byte(StripCodeFences(response)), &rawMap); err != nil {
		log.Printf("[WARN] Role tagging returned unparseable output: %v", err)
		return nil
	}

	roleMap := make(map[int]string, len(rawMap))
	for key, value := range rawMap {
		id, err := strconv.Atoi(key)
		if err != nil {
			continue
		}
		roleMap[id] = normalizeRole(value)
	}

	return roleMap
}

func normalizeRole(raw string) string {
	switch raw {
	case "doctor", "Doctor", "DOCTOR":
		return entity.RoleDoctor
	case "patient", "Patient", "PATIENT":
		return entity.RolePatient
	default:
		return entity.RoleUnknown
	}
}
