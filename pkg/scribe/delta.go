package scribe

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"

	"clinical-scribe-be/internal/entity"
	"clinical-scribe-be/internal/pkg/failure"
	"clinical-scribe-be/pkg/llm"
)

const deltaSystemPrompt = `You are an expert medical scribe. You receive a doctor-patient conversation and the SOAP note written so far.
Extract ONLY the NEW clinical information from the latest exchanges that is not already in the existing note.
Your output must be a strict JSON object with the keys: subjective, objective, assessment, plan.
Each key maps to an array of short factual statements (strings). Use empty arrays for sections with nothing new.
Never repeat statements already present in the existing note. Never invent information that was not said.`

// LLMDeltaGenerator asks the model for the incremental SOAP statements
// implied by the newest chunk. The model sees the whole masked history
// plus the current note as context.
type LLMDeltaGenerator struct {
	provider llm.LLMProvider
}

var _ DeltaGenerator = &LLMDeltaGenerator{}

func NewLLMDeltaGenerator(provider llm.LLMProvider) *LLMDeltaGenerator {
	return &LLMDeltaGenerator{provider: provider}
}

func (g *LLMDeltaGenerator) GenerateDelta(ctx context.Context, history []entity.DialogueTurn, current *entity.SOAPNote, chunkIndex int) (*entity.SOAPNote, error) {
	if len(history) == 0 {
		return entity.NewSOAPNote(), nil
	}

	messages := []llm.Message{
		{Role: "system", Content: deltaSystemPrompt},
	}

	for _, turn := range history {
		messages = append(messages, llm.Message{
			Role:    "user",
			Content: fmt.Sprintf("%s: %s", strings.ToUpper(turn.Role), turn.Content),
		})
	}

	noteContext := "{}"
	if current != nil && !current.IsEmpty() {
		if data, err := json.Marshal(current); err == nil {
			noteContext = string(data)
		}
	}
	messages = append(messages, llm.Message{
		Role:    "user",
		Content: "EXISTING NOTE (do not repeat anything from it):\n" + noteContext,
	})

	response, err := g.provider.Chat(ctx, messages,
		llm.WithTemperature(0.1),
		llm.WithJSONMode(),
	)
	if err != nil {
		// Model backends fail for operational reasons; worth a retry.
		return nil, failure.Transient(fmt.Errorf("delta generation failed: %w", err))
	}

	return ParseDeltaJSON(response, chunkIndex), nil
}

// rawDelta is the wire shape the model emits: plain strings per section.
type rawDelta struct {
	Subjective []string `json:"subjective"`
	Objective  []string `json:"objective"`
	Assessment []string `json:"assessment"`
	Plan       []string `json:"plan"`
}

// ParseDeltaJSON converts model output into a provenance-stamped delta.
// It tolerates markdown fences around the JSON. Unparseable output yields
// an empty delta: one bad generation loses one chunk's contribution, a
// crash would lose the session.
func ParseDeltaJSON(raw string, chunkIndex int) *entity.SOAPNote {
	clean := StripCodeFences(raw)

	var parsed rawDelta
	if err := json.Unmarshal([]byte(clean), &parsed); err != nil {
		log.Printf("[WARN] Delta JSON parsing failed, merging empty delta: %v", err)
		return entity.NewSOAPNote()
	}

	delta := entity.NewSOAPNote()
	delta.Subjective = stampItems(parsed.Subjective, chunkIndex)
	delta.Objective = stampItems(parsed.Objective, chunkIndex)
	delta.Assessment = stampItems(parsed.Assessment, chunkIndex)
	delta.Plan = stampItems(parsed.Plan, chunkIndex)
	return delta
}

func stampItems(texts []string, chunkIndex int) []entity.SOAPItem {
	items := make([]entity.SOAPItem, 0, len(texts))
	for _, text := range texts {
		text = strings.TrimSpace(text)
		if text == "" {
			continue
		}
		items = append(items, entity.NewSOAPItem(text, chunkIndex))
	}
	return items
}

// StripCodeFences removes a surrounding markdown code block, with or
// without a "json" language tag, leaving bare JSON.
func StripCodeFences(raw string) string {
	clean := strings.TrimSpace(raw)
	if !strings.Contains(clean, "```") {
		return clean
	}

	parts := strings.SplitN(clean, "```", 3)
	if len(parts) < 2 {
		return clean
	}
	clean = parts[1]
	clean = strings.TrimPrefix(clean, "json")
	return strings.TrimSpace(clean)
}
