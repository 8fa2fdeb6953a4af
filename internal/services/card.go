package services

import (
	"encoding/json"
	"strings"

	"qsar-llm-backend/internal/models"
)

// BuildCard reshapes an analysis into a summary card. It returns nil unless
// both a CAS number and PubChem data are available.
func BuildCard(result *models.AnalysisResult, moleculeName string) *models.CardData {
	if result == nil || result.CAS == nil || result.PubChemData == nil {
		return nil
	}

	cas := *result.CAS
	pc := result.PubChemData

	name := strings.TrimSpace(moleculeName)
	if name == "" {
		name = cas
	}

	return &models.CardData{
		Molecule: models.Molecule{
			CAS:     cas,
			Name:    name,
			Formula: pc.Formula,
			MW:      pc.MW,
			LogKow:  pc.LogKow,
			SMILES:  pc.SMILES,
		},
		Endpoints: []string{},
		Alerts:    parseAlerts(result.Profiling),
	}
}

type profilingAlert struct {
	Name string `json:"name"`
	Risk string `json:"risk"`
}

// parseAlerts relabels the first MaxCardAlerts alerts of a profiling payload.
// Payloads that are not objects, and entries that are not objects, are
// ignored.
func parseAlerts(profiling json.RawMessage) []models.Alert {
	alerts := []models.Alert{}
	if isEmptyJSON(profiling) {
		return alerts
	}

	var body struct {
		Alerts []json.RawMessage `json:"alerts"`
	}
	if err := json.Unmarshal(profiling, &body); err != nil {
		return alerts
	}

	for _, raw := range body.Alerts {
		if len(alerts) == models.MaxCardAlerts {
			break
		}

		if strings.TrimSpace(string(raw)) == "null" {
			continue
		}
		var a profilingAlert
		if err := json.Unmarshal(raw, &a); err != nil {
			continue
		}

		text := a.Name
		if text == "" {
			text = "Alert"
		}
		level := models.AlertLevelRed
		if a.Risk == "low" {
			level = models.AlertLevelAmber
		}
		alerts = append(alerts, models.Alert{Text: text, Level: level})
	}
	return alerts
}
