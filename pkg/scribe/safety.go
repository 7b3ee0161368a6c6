package scribe

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"clinical-scribe-be/internal/entity"
)

// drugLimit is one node of the in-memory dosage knowledge graph.
type drugLimit struct {
	DailyLimitMg int
}

// Daily dosage ceilings for common medications, in mg.
var drugKnowledgeGraph = map[string]drugLimit{
	"panadol":     {DailyLimitMg: 4000},
	"paracetamol": {DailyLimitMg: 4000},
	"ibuprofen":   {DailyLimitMg: 3200},
	"amoxicillin": {DailyLimitMg: 3000},
	"metformin":   {DailyLimitMg: 2550},
	"aspirin":     {DailyLimitMg: 4000},
}

// "paracetamol 5000mg", "ibuprofen 4 g", "500 mg of aspirin" (drug first
// form only; dose-first phrasing is matched by the second pattern).
var (
	drugDosePattern = regexp.MustCompile(`(?i)\b([a-z]+)\s+(\d+(?:\.\d+)?)\s*(mg|g)\b`)
	doseDrugPattern = regexp.MustCompile(`(?i)\b(\d+(?:\.\d+)?)\s*(mg|g)\s+(?:of\s+)?([a-z]+)\b`)
)

// DosageSafetyChecker scans plan statements for dosages above the daily
// ceiling. Unknown drugs and unparseable dose phrases are ignored: the
// checker only speaks when it is sure.
type DosageSafetyChecker struct{}

var _ SafetyChecker = &DosageSafetyChecker{}

func NewDosageSafetyChecker() *DosageSafetyChecker {
	return &DosageSafetyChecker{}
}

func (c *DosageSafetyChecker) Check(delta *entity.SOAPNote) []string {
	if delta == nil {
		return nil
	}

	var alerts []string
	for _, item := range delta.Plan {
		alerts = append(alerts, checkStatement(item.Text)...)
	}
	return alerts
}

func checkStatement(text string) []string {
	type mention struct {
		drug   string
		amount float64
		unit   string
	}

	var mentions []mention
	for _, m := range drugDosePattern.FindAllStringSubmatch(text, -1) {
		amount, err := strconv.ParseFloat(m[2], 64)
		if err != nil {
			continue
		}
		mentions = append(mentions, mention{drug: strings.ToLower(m[1]), amount: amount, unit: strings.ToLower(m[3])})
	}
	for _, m := range doseDrugPattern.FindAllStringSubmatch(text, -1) {
		amount, err := strconv.ParseFloat(m[1], 64)
		if err != nil {
			continue
		}
		mentions = append(mentions, mention{drug: strings.ToLower(m[3]), amount: amount, unit: strings.ToLower(m[2])})
	}

	seen := map[string]bool{}
	var alerts []string
	for _, m := range mentions {
		node, known := drugKnowledgeGraph[m.drug]
		if !known {
			continue
		}

		amountMg := m.amount
		if m.unit == "g" {
			amountMg *= 1000
		}

		key := fmt.Sprintf("%s:%g", m.drug, amountMg)
		if seen[key] {
			continue
		}
		seen[key] = true

		if amountMg > float64(node.DailyLimitMg) {
			alerts = append(alerts, fmt.Sprintf(
				"SAFETY ALERT: %s dosage (%.0fmg) exceeds standard daily limit (%dmg)",
				m.drug, amountMg, node.DailyLimitMg))
		}
	}

	return alerts
}
