package entity

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSOAPNoteHasNonNilSections(t *testing.T) {
	note := NewSOAPNote()

	assert.NotNil(t, note.Subjective)
	assert.NotNil(t, note.Objective)
	assert.NotNil(t, note.Assessment)
	assert.NotNil(t, note.Plan)
	assert.True(t, note.IsEmpty())
}

func TestMergeAppendsWithoutTouchingExistingItems(t *testing.T) {
	note := NewSOAPNote()
	note.Subjective = append(note.Subjective, NewSOAPItem("Headache since yesterday", 0))
	note.Plan = append(note.Plan, NewSOAPItem("Monitor symptoms", 0))

	firstID := note.Subjective[0].ID

	delta := NewSOAPNote()
	delta.Subjective = append(delta.Subjective, NewSOAPItem("Dizziness reported", 1))
	delta.Assessment = append(delta.Assessment, NewSOAPItem("Possible migraine", 1))

	note.Merge(delta)

	require.Len(t, note.Subjective, 2)
	assert.Equal(t, "Headache since yesterday", note.Subjective[0].Text)
	assert.Equal(t, firstID, note.Subjective[0].ID)
	assert.Equal(t, "Dizziness reported", note.Subjective[1].Text)
	require.Len(t, note.Assessment, 1)
	require.Len(t, note.Plan, 1)
	assert.Equal(t, 4, note.ItemCount())
}

func TestMergeStampsProvenancePerChunk(t *testing.T) {
	note := NewSOAPNote()
	note.Merge(&SOAPNote{Subjective: []SOAPItem{NewSOAPItem("from chunk 0", 0)}})
	note.Merge(&SOAPNote{Subjective: []SOAPItem{NewSOAPItem("from chunk 3", 3)}})

	require.Len(t, note.Subjective, 2)
	assert.Equal(t, 0, note.Subjective[0].SourceChunkIndex)
	assert.Equal(t, 3, note.Subjective[1].SourceChunkIndex)
}

func TestMergeNilDeltaIsNoop(t *testing.T) {
	note := NewSOAPNote()
	note.Objective = append(note.Objective, NewSOAPItem("BP 120/80", 0))

	note.Merge(nil)

	assert.Equal(t, 1, note.ItemCount())
}

func TestCloneIsIndependent(t *testing.T) {
	note := NewSOAPNote()
	note.Plan = append(note.Plan, NewSOAPItem("Paracetamol 500mg", 0))

	clone := note.Clone()
	clone.Merge(&SOAPNote{Plan: []SOAPItem{NewSOAPItem("Rest", 1)}})

	assert.Equal(t, 1, note.ItemCount())
	assert.Equal(t, 2, clone.ItemCount())
}

func TestHashPatientRefIsStableAndTruncated(t *testing.T) {
	a := HashPatientRef("MRN-12345678")
	b := HashPatientRef("MRN-12345678")
	c := HashPatientRef("MRN-87654321")

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
	assert.Len(t, a, 32)
	assert.NotContains(t, a, "12345678")
}
