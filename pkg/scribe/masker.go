package scribe

import (
	"regexp"
	"strings"

	"clinical-scribe-be/internal/entity"
)

// Redaction placeholders. Stable tokens so downstream prompts and the UI
// can render them consistently.
const (
	placeholderMRN      = "<MRN>"
	placeholderProvider = "<DOCTOR>"
	placeholderPhone    = "<PHONE>"
)

var (
	// "MRN: 12345678", "medicare no 4321", "patient id #99887766"
	mrnPattern = regexp.MustCompile(`(?i)\b(mrn|medical record|patient id|medicare no|id)[:\s#]*([0-9]{4,12})\b`)

	// "Dr. Smith", "Doctor Jones", "Nurse Riley", "Prof. Chen"
	providerPattern = regexp.MustCompile(`\b(?i:dr\.?|doctor|nurse|prof\.?)\s+([A-Z][a-z]+)\b`)

	// Local and international formats with common separators. A bare
	// digit pair like "140 160" is clinical data, not a phone number, so
	// a match needs a country/area prefix, three groups, or a 4+4 pair.
	phonePattern = regexp.MustCompile(`(?:\+\d{1,3}[\s-]?|\(\d{2,4}\)[\s-]?)\d{3,4}[\s-]\d{3,4}(?:[\s-]\d{3,4})?\b|\b\d{3,4}[\s-]\d{3,4}[\s-]\d{3,4}\b|\b\d{4}[\s-]\d{4}\b`)
)

// diseaseEponyms are surnames that name diseases, not people. A provider
// match on one of these is a false positive and must stay unmasked:
// "Parkinson's disease" losing its name destroys the note.
var diseaseEponyms = map[string]bool{
	"parkinson": true,
	"alzheimer": true,
	"addison":   true,
	"cushing":   true,
	"hodgkin":   true,
	"crohn":     true,
	"hashimoto": true,
	"gehrig":    true,
	"down":      true,
}

// RegexMasker is a deterministic PII scrubber for turn content. It runs
// before any content reaches a model or a store, so the raw identifiers
// exist only in the audio itself.
type RegexMasker struct{}

var _ Masker = &RegexMasker{}

func NewRegexMasker() *RegexMasker {
	return &RegexMasker{}
}

func (m *RegexMasker) MaskTurns(turns []entity.DialogueTurn) []entity.DialogueTurn {
	masked := make([]entity.DialogueTurn, len(turns))
	for i, turn := range turns {
		turn.Content = m.MaskText(turn.Content)
		masked[i] = turn
	}
	return masked
}

// MaskText redacts one string. Exposed for the metadata path, which
// masks free-text fields outside of dialogue turns.
func (m *RegexMasker) MaskText(text string) string {
	text = mrnPattern.ReplaceAllStringFunc(text, func(match string) string {
		groups := mrnPattern.FindStringSubmatch(match)
		return groups[1] + " " + placeholderMRN
	})

	text = providerPattern.ReplaceAllStringFunc(text, func(match string) string {
		groups := providerPattern.FindStringSubmatch(match)
		name := groups[1]
		if diseaseEponyms[strings.ToLower(name)] {
			return match
		}
		title := strings.TrimSuffix(match, name)
		return strings.TrimSpace(title) + " " + placeholderProvider
	})

	text = phonePattern.ReplaceAllString(text, placeholderPhone)

	return text
}
