package scribe

import (
	"testing"

	"clinical-scribe-be/internal/entity"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func deltaWithPlan(texts ...string) *entity.SOAPNote {
	note := entity.NewSOAPNote()
	for _, text := range texts {
		note.Plan = append(note.Plan, entity.NewSOAPItem(text, 0))
	}
	return note
}

func TestDosageAboveLimitRaisesAlert(t *testing.T) {
	c := NewDosageSafetyChecker()

	alerts := c.Check(deltaWithPlan("Take paracetamol 5000mg daily for pain"))

	require.Len(t, alerts, 1)
	assert.Equal(t,
		"SAFETY ALERT: paracetamol dosage (5000mg) exceeds standard daily limit (4000mg)",
		alerts[0])
}

func TestDosageInGramsIsConverted(t *testing.T) {
	c := NewDosageSafetyChecker()

	alerts := c.Check(deltaWithPlan("Prescribed 4 g of ibuprofen per day"))

	require.Len(t, alerts, 1)
	assert.Contains(t, alerts[0], "ibuprofen dosage (4000mg)")
	assert.Contains(t, alerts[0], "3200mg")
}

func TestDosageWithinLimitStaysSilent(t *testing.T) {
	c := NewDosageSafetyChecker()

	assert.Empty(t, c.Check(deltaWithPlan(
		"Take ibuprofen 400mg every six hours",
		"Continue metformin 500mg twice daily",
	)))
}

func TestUnknownDrugIsIgnored(t *testing.T) {
	c := NewDosageSafetyChecker()

	assert.Empty(t, c.Check(deltaWithPlan("Start gabapentin 99999mg nightly")))
}

func TestRepeatedMentionAlertsOnce(t *testing.T) {
	c := NewDosageSafetyChecker()

	alerts := c.Check(deltaWithPlan("Paracetamol 5000mg, yes paracetamol 5000mg"))

	assert.Len(t, alerts, 1)
}

func TestOnlyPlanSectionIsScanned(t *testing.T) {
	c := NewDosageSafetyChecker()

	note := entity.NewSOAPNote()
	note.Subjective = append(note.Subjective, entity.NewSOAPItem("Patient took paracetamol 5000mg yesterday", 0))
	note.Assessment = append(note.Assessment, entity.NewSOAPItem("Possible paracetamol 5000mg overdose", 0))

	assert.Empty(t, c.Check(note))
}

func TestNilDeltaIsSafe(t *testing.T) {
	c := NewDosageSafetyChecker()

	assert.Nil(t, c.Check(nil))
}
