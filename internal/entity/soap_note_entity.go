package entity

import "github.com/google/uuid"

// SOAPItem is a single provenance-tagged statement in the note.
// SourceChunkIndex records which audio chunk produced it; it is the only
// audit trail linking note content back to the timeline.
type SOAPItem struct {
	ID               string `json:"id"`
	Text             string `json:"text"`
	SourceChunkIndex int    `json:"source_chunk_index"`
}

// NewSOAPItem creates an item stamped with its originating chunk.
func NewSOAPItem(text string, sourceChunkIndex int) SOAPItem {
	return SOAPItem{
		ID:               uuid.NewString(),
		Text:             text,
		SourceChunkIndex: sourceChunkIndex,
	}
}

// SOAPNote is the cumulative structured consultation note. Sections only
// ever grow by append: Merge is the single mutator the pipeline uses, and
// it extends each section with the delta's items. In-place edits happen
// only through an explicit human overwrite outside the pipeline.
type SOAPNote struct {
	Subjective []SOAPItem `json:"subjective"`
	Objective  []SOAPItem `json:"objective"`
	Assessment []SOAPItem `json:"assessment"`
	Plan       []SOAPItem `json:"plan"`
}

// NewSOAPNote returns an empty note with non-nil sections so JSON output
// is always `[]`, never `null`.
func NewSOAPNote() *SOAPNote {
	return &SOAPNote{
		Subjective: []SOAPItem{},
		Objective:  []SOAPItem{},
		Assessment: []SOAPItem{},
		Plan:       []SOAPItem{},
	}
}

// Merge appends the delta's items to each section, preserving existing
// order. The delta itself is not modified.
func (n *SOAPNote) Merge(delta *SOAPNote) {
	if delta == nil {
		return
	}
	n.Subjective = append(n.Subjective, delta.Subjective...)
	n.Objective = append(n.Objective, delta.Objective...)
	n.Assessment = append(n.Assessment, delta.Assessment...)
	n.Plan = append(n.Plan, delta.Plan...)
}

// Clone returns a deep copy. Merging always happens on a copy so a failed
// persist never leaves a half-mutated note in memory.
func (n *SOAPNote) Clone() *SOAPNote {
	c := NewSOAPNote()
	c.Subjective = append(c.Subjective, n.Subjective...)
	c.Objective = append(c.Objective, n.Objective...)
	c.Assessment = append(c.Assessment, n.Assessment...)
	c.Plan = append(c.Plan, n.Plan...)
	return c
}

// IsEmpty reports whether no section holds any item.
func (n *SOAPNote) IsEmpty() bool {
	return len(n.Subjective) == 0 && len(n.Objective) == 0 &&
		len(n.Assessment) == 0 && len(n.Plan) == 0
}

// ItemCount returns the total number of items across all sections.
func (n *SOAPNote) ItemCount() int {
	return len(n.Subjective) + len(n.Objective) + len(n.Assessment) + len(n.Plan)
}

// Sections returns the four section slices keyed by name, in SOAP order.
// Used by checkers and tests that iterate uniformly.
func (n *SOAPNote) Sections() map[string][]SOAPItem {
	return map[string][]SOAPItem{
		"subjective": n.Subjective,
		"objective":  n.Objective,
		"assessment": n.Assessment,
		"plan":       n.Plan,
	}
}
