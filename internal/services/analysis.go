package services

import (
	"context"
	"encoding/json"

	"go.uber.org/zap"

	"qsar-llm-backend/internal/models"
)

type toolboxClient interface {
	Get(ctx context.Context, endpoint string, params map[string]string) json.RawMessage
	Post(ctx context.Context, endpoint string, payload interface{}) json.RawMessage
}

type pubchemClient interface {
	Lookup(ctx context.Context, casOrName string) *models.PubChemData
}

// Analyzer gathers toolbox and PubChem context for a chat query.
type Analyzer struct {
	toolbox toolboxClient
	pubchem pubchemClient
	log     *zap.Logger
}

func NewAnalyzer(toolbox toolboxClient, pubchem pubchemClient, log *zap.Logger) *Analyzer {
	return &Analyzer{toolbox: toolbox, pubchem: pubchem, log: log.Named("analysis")}
}

// Run executes the four analysis steps. A failing step leaves its field
// empty; Run itself never fails.
func (a *Analyzer) Run(ctx context.Context, query string, opts models.ChatOptions) *models.AnalysisResult {
	result := &models.AnalysisResult{
		Query:     query,
		Endpoints: []string{},
	}

	cas, found := ExtractCAS(query)
	if found {
		result.CAS = &cas
	}

	// Step 1: identification in the toolbox
	if found {
		if data := a.toolbox.Get(ctx, "substances/search", map[string]string{"cas": cas}); !isEmptyJSON(data) {
			result.ToolboxData = data
		}
	}

	// Step 2: PubChem enrichment
	identifier := query
	if found {
		identifier = cas
	}
	result.PubChemData = a.pubchem.Lookup(ctx, identifier)

	// Step 3: structural profiling
	if opts.ProfilingEnabled() && found {
		result.Profiling = a.toolbox.Post(ctx, "profiling/run", map[string]interface{}{
			"cas":       cas,
			"profilers": selectProfilers(opts),
		})
	}

	// Step 4: category for read-across
	if opts.ReadAcrossEnabled() && found {
		result.Category = a.toolbox.Post(ctx, "category/build", map[string]string{"cas": cas})
	}

	a.log.Debug("analysis finished",
		zap.Bool("cas_found", found),
		zap.Bool("toolbox", result.ToolboxData != nil),
		zap.Bool("pubchem", result.PubChemData != nil),
		zap.Bool("profiling", result.Profiling != nil),
		zap.Bool("category", result.Category != nil),
	)

	return result
}

// selectProfilers drops the mutagenicity and aquatic profilers only when the
// client explicitly switched them off.
func selectProfilers(opts models.ChatOptions) []string {
	profilers := make([]string, 0, len(DefaultProfilers))
	for _, p := range DefaultProfilers {
		switch {
		case p == "mutagenicity" && opts.Mutagen != nil && !*opts.Mutagen:
			continue
		case p == "aquatic_toxicity" && opts.Aquatic != nil && !*opts.Aquatic:
			continue
		}
		profilers = append(profilers, p)
	}
	return profilers
}
