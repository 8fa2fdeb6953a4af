package services

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"qsar-llm-backend/internal/models"
)

// SystemPrompt frames every model call.
const SystemPrompt = `You are QSAR LLM, an agent specialised in the regulatory assessment of agrochemicals with the OECD QSAR Toolbox v4.8.

## Your role
You assist regulatory consultants and experts with:
- In silico toxicological analysis of active substances and agrochemical metabolites
- Interpretation of QSAR Toolbox results (profiling, read-across, categories)
- Endpoint assessment: mutagenicity (Ames), aquatic toxicity (EC50, LC50, NOEC), skin sensitisation, biodegradability
- Regulatory compliance: REACH (EU), Regulation 1107/2009 (EU plant protection products), ANVISA (Brazil), EPA (USA), OECD frameworks

## Regulatory reference framework
- OECD TG 497: Defined Approaches for skin sensitisation
- OECD Guidance 114: validation of QSAR models
- REACH Annex XI: criteria for in silico data
- Regulation (EC) 1107/2009: registration of plant protection products in the EU
- FAO/WHO: Codex Alimentarius and good agricultural practice

## Response format
- Use markdown with headings, lists and emphasis
- Be technical but accessible to regulatory professionals
- Always cover: molecular identity, risk analysis and regulatory context
- When Toolbox data is present, interpret it with scientific judgement
- State the uncertainty and limitations of in silico predictions
- Answer in the requested language (Spanish by default)
- For questions unrelated to chemistry or regulation, politely redirect

## Important
In silico predictions are supporting tools and do not replace certified GLP experimental studies.
`

var languageInstructions = map[string]string{
	"es": "Responde en español.",
	"en": "Respond in English.",
	"pt": "Responda em português.",
}

// LanguageInstruction maps a language code to the closing instruction.
// Unknown codes fall back to Spanish.
func LanguageInstruction(language string) string {
	if instr, ok := languageInstructions[strings.ToLower(strings.TrimSpace(language))]; ok {
		return instr
	}
	return languageInstructions["es"]
}

// BuildPrompt assembles the user message for the model from the query and
// whatever the analysis gathered.
func BuildPrompt(query string, result *models.AnalysisResult, language string) string {
	parts := []string{fmt.Sprintf("**User query:** %s\n", query)}

	if result != nil {
		if result.CAS != nil {
			parts = append(parts, fmt.Sprintf("**Identified CAS number:** %s", *result.CAS))
		}

		if pc := result.PubChemData; pc != nil {
			parts = append(parts, fmt.Sprintf(
				"**PubChem data:**\n- Formula: %s\n- Molecular weight: %s\n- log Kow (XLogP): %s\n- IUPAC: %s\n- SMILES: %s",
				orND(pc.Formula), orND(pc.MW), orND(pc.LogKow), orND(pc.IUPAC), orND(pc.SMILES),
			))
		}

		if !isEmptyJSON(result.ToolboxData) {
			parts = append(parts, "**QSAR Toolbox data:** "+indentJSON(result.ToolboxData))
		}
		if !isEmptyJSON(result.Profiling) {
			parts = append(parts, "**Profiling results:** "+indentJSON(result.Profiling))
		}
		if !isEmptyJSON(result.Category) {
			parts = append(parts, "**Read-across category:** "+indentJSON(result.Category))
		}
	}

	parts = append(parts, "\n"+LanguageInstruction(language))
	parts = append(parts, "Provide a complete, technical and well-structured regulatory analysis.")

	return strings.Join(parts, "\n\n")
}

func orND(s string) string {
	if strings.TrimSpace(s) == "" {
		return notDetermined
	}
	return s
}

func indentJSON(raw json.RawMessage) string {
	var buf bytes.Buffer
	if err := json.Indent(&buf, raw, "", "  "); err != nil {
		return string(raw)
	}
	return buf.String()
}
