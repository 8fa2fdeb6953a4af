package models

// ChatOptions toggles the optional toolbox steps. Nil means "not sent".
type ChatOptions struct {
	Profiling  *bool `json:"profiling,omitempty"`
	ReadAcross *bool `json:"readAcross,omitempty"`
	Aquatic    *bool `json:"aquatic,omitempty"`
	Mutagen    *bool `json:"mutagen,omitempty"`
}

// ProfilingEnabled is false unless the client asked for profiling.
func (o ChatOptions) ProfilingEnabled() bool {
	return o.Profiling != nil && *o.Profiling
}

// ReadAcrossEnabled is false unless the client asked for a category build.
func (o ChatOptions) ReadAcrossEnabled() bool {
	return o.ReadAcross != nil && *o.ReadAcross
}

// ChatRequest is the payload sent to the chat endpoint.
type ChatRequest struct {
	Query        string      `json:"query"`
	Options      ChatOptions `json:"options"`
	Model        string      `json:"model,omitempty"`
	Language     string      `json:"language,omitempty"`
	MoleculeName string      `json:"moleculeName,omitempty"`
}

// ChatResponse carries the model text and the summary card.
type ChatResponse struct {
	Message          string    `json:"message"`
	Data             *CardData `json:"data"`
	ToolboxConnected bool      `json:"toolbox_connected"`
	PubChemEnriched  bool      `json:"pubchem_enriched"`
	CAS              *string   `json:"cas"`
	Timestamp        string    `json:"timestamp"`
}

// Molecule is the identity block of a summary card.
type Molecule struct {
	CAS     string `json:"cas"`
	Name    string `json:"name"`
	Formula string `json:"formula,omitempty"`
	MW      string `json:"mw,omitempty"`
	LogKow  string `json:"logKow,omitempty"`
	SMILES  string `json:"smiles,omitempty"`
}

// Alert is a relabelled structural alert from toolbox profiling.
type Alert struct {
	Text  string `json:"text"`
	Level string `json:"level"` // "amber" or "red"
}

const (
	AlertLevelAmber = "amber"
	AlertLevelRed   = "red"

	// MaxCardAlerts bounds the alerts list of a summary card.
	MaxCardAlerts = 6
)

// CardData is the structured subset of gathered data returned next to the
// generated text.
type CardData struct {
	Molecule  Molecule `json:"molecule"`
	Endpoints []string `json:"endpoints"`
	Alerts    []Alert  `json:"alerts"`
}
