package scribe

import (
	"fmt"
	"regexp"
	"strings"

	"clinical-scribe-be/internal/entity"
)

// Items whose content words are grounded below this fraction get flagged.
const defaultGroundingThreshold = 0.5

var (
	editTagPattern = regexp.MustCompile(`(?i)\s*\((Updated|Correction)\)`)
	wordPattern    = regexp.MustCompile(`[a-zA-Z][a-zA-Z'-]+`)
)

// Function words carry no clinical meaning and are excluded from the
// grounding comparison.
var stopwords = map[string]bool{
	"the": true, "and": true, "for": true, "with": true, "that": true,
	"this": true, "was": true, "were": true, "has": true, "have": true,
	"had": true, "been": true, "are": true, "not": true, "but": true,
	"his": true, "her": true, "their": true, "they": true, "she": true,
	"him": true, "from": true, "into": true, "over": true, "under": true,
	"patient": true, "reports": true, "reported": true, "doctor": true,
	"denies": true, "states": true, "stated": true, "none": true,
	"unclear": true, "since": true, "also": true, "about": true,
	"after": true, "before": true, "during": true, "will": true,
	"should": true, "could": true, "would": true, "daily": true,
	"recommends": true, "recommended": true, "advised": true,
	"prescribed": true, "continue": true, "monitor": true,
}

// LexicalGroundingChecker flags delta statements whose clinical content
// words do not appear in the chunk's transcript. It is a cheap lexical
// proxy for hallucination detection: a statement the conversation never
// mentioned cannot share vocabulary with it.
type LexicalGroundingChecker struct {
	Threshold float64
}

var _ HallucinationChecker = &LexicalGroundingChecker{}

func NewLexicalGroundingChecker() *LexicalGroundingChecker {
	return &LexicalGroundingChecker{Threshold: defaultGroundingThreshold}
}

func (c *LexicalGroundingChecker) Check(turns []entity.DialogueTurn, delta *entity.SOAPNote) []string {
	if delta == nil || delta.IsEmpty() {
		return nil
	}

	var transcript strings.Builder
	for _, turn := range turns {
		transcript.WriteString(turn.Content)
		transcript.WriteString(" ")
	}
	spoken := contentWords(transcript.String())

	sections := delta.Sections()
	var warnings []string
	// Fixed SOAP order keeps warning order deterministic.
	for _, section := range []string{"subjective", "objective", "assessment", "plan"} {
		for _, item := range sections[section] {
			words := contentWords(cleanItemText(item.Text))
			if len(words) == 0 {
				continue
			}

			matched := 0
			for word := range words {
				if spoken[word] {
					matched++
				}
			}

			grounding := float64(matched) / float64(len(words))
			if grounding < c.Threshold {
				warnings = append(warnings, fmt.Sprintf(
					"Possible hallucination in %s: %q is weakly supported by the conversation (%.0f%% of terms found)",
					section, item.Text, grounding*100))
			}
		}
	}

	return warnings
}

// cleanItemText strips edit markers so they don't count as ungrounded
// vocabulary.
func cleanItemText(text string) string {
	return editTagPattern.ReplaceAllString(text, "")
}

func contentWords(text string) map[string]bool {
	words := map[string]bool{}
	for _, match := range wordPattern.FindAllString(strings.ToLower(text), -1) {
		if len(match) <= 3 || stopwords[match] {
			continue
		}
		words[match] = true
	}
	return words
}
