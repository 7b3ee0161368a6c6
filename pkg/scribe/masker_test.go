package scribe

import (
	"testing"
	"time"

	"clinical-scribe-be/internal/entity"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMaskTextRedactsMedicalIDs(t *testing.T) {
	m := NewRegexMasker()

	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			"mrn with colon",
			"The MRN: 12345678 is on file",
			"The MRN <MRN> is on file",
		},
		{
			"medicare number",
			"her medicare no 4321098 was updated",
			"her medicare no <MRN> was updated",
		},
		{
			"patient id with hash",
			"see patient id #99887766 for history",
			"see patient id <MRN> for history",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, m.MaskText(tt.in))
		})
	}
}

func TestMaskTextRedactsProviderNames(t *testing.T) {
	m := NewRegexMasker()

	assert.Equal(t, "Dr. <DOCTOR> will see you", m.MaskText("Dr. Smith will see you"))
	assert.Equal(t, "ask Nurse <DOCTOR> about it", m.MaskText("ask Nurse Riley about it"))
	assert.Equal(t, "referred by Prof. <DOCTOR>", m.MaskText("referred by Prof. Chen"))
}

func TestMaskTextKeepsDiseaseEponyms(t *testing.T) {
	m := NewRegexMasker()

	// Eponym surnames match the provider pattern when a title precedes
	// them, but they name diseases, not people.
	for _, text := range []string{
		"first described by Doctor Alzheimer in 1906",
		"named after Dr. Parkinson",
		"symptoms consistent with Parkinson disease",
		"diagnosed with Crohn disease last year",
	} {
		assert.Equal(t, text, m.MaskText(text))
	}
}

func TestMaskTextRedactsPhoneNumbers(t *testing.T) {
	m := NewRegexMasker()

	for _, text := range []string{
		"call me on 0412 345 678 tomorrow",
		"the clinic is on (02) 9876 5432",
		"reach him at +61 412 345 678",
		"home number 9876 5432",
	} {
		masked := m.MaskText(text)
		assert.Contains(t, masked, "<PHONE>", "input: %s", text)
	}
}

func TestMaskTextKeepsClinicalNumberPairs(t *testing.T) {
	m := NewRegexMasker()

	// Measurement pairs share the digits-space-digits shape of a phone
	// number and must survive masking.
	for _, text := range []string{
		"glucose readings were 140 160 this week",
		"blood pressure 120 80 at rest",
		"weight dropped from 90 to 85 kg",
	} {
		assert.Equal(t, text, m.MaskText(text))
	}
}

func TestMaskTurnsPreservesCountAndOrder(t *testing.T) {
	m := NewRegexMasker()

	turns := []entity.DialogueTurn{
		{Role: entity.RoleDoctor, Content: "I'm Dr. Smith", ChunkIndex: 0, Timestamp: time.Now()},
		{Role: entity.RolePatient, Content: "my MRN: 12345678", ChunkIndex: 0},
		{Role: entity.RolePatient, Content: "the headache started yesterday", ChunkIndex: 0},
	}

	masked := m.MaskTurns(turns)

	require.Len(t, masked, 3)
	assert.Equal(t, entity.RoleDoctor, masked[0].Role)
	assert.Contains(t, masked[0].Content, "<DOCTOR>")
	assert.Contains(t, masked[1].Content, "<MRN>")
	assert.Equal(t, "the headache started yesterday", masked[2].Content)

	// Input is untouched.
	assert.Equal(t, "I'm Dr. Smith", turns[0].Content)
}
