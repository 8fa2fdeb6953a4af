package models

import "encoding/json"

// PubChemData is the reshaped property record of a PubChem compound.
type PubChemData struct {
	CID     int64  `json:"cid,omitempty"`
	Formula string `json:"formula,omitempty"`
	MW      string `json:"mw"`
	LogKow  string `json:"logKow"`
	SMILES  string `json:"smiles,omitempty"`
	IUPAC   string `json:"iupac,omitempty"`
}

// AnalysisResult holds everything gathered for one chat query. Toolbox
// payloads are kept verbatim.
type AnalysisResult struct {
	Query       string          `json:"query"`
	CAS         *string         `json:"cas"`
	ToolboxData json.RawMessage `json:"toolbox_data"`
	PubChemData *PubChemData    `json:"pubchem_data"`
	Profiling   json.RawMessage `json:"profiling"`
	Category    json.RawMessage `json:"category"`
	Endpoints   []string        `json:"endpoints"`
}

// ProfileRequest is the body of the profiling proxy endpoint.
type ProfileRequest struct {
	CAS       string   `json:"cas"`
	Profilers []string `json:"profilers,omitempty"`
}

// CategoryRequest is the body of the category proxy endpoint.
type CategoryRequest struct {
	CAS string `json:"cas"`
}
