package services

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"qsar-llm-backend/internal/metrics"
	"qsar-llm-backend/internal/models"
)

const (
	pubchemTimeout    = 10 * time.Second
	pubchemProperties = "IUPACName,MolecularFormula,MolecularWeight,XLogP,IsomericSMILES"

	notDetermined = "N/D"
)

// PubChemService looks up compound properties through PUG REST.
type PubChemService struct {
	baseURL    string
	httpClient *http.Client
	log        *zap.Logger
}

func NewPubChemService(baseURL string, log *zap.Logger) *PubChemService {
	return &PubChemService{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: pubchemTimeout},
		log:        log.Named("pubchem"),
	}
}

type pubchemProps struct {
	CID              int64       `json:"CID"`
	MolecularFormula string      `json:"MolecularFormula"`
	MolecularWeight  interface{} `json:"MolecularWeight"`
	XLogP            interface{} `json:"XLogP"`
	IsomericSMILES   string      `json:"IsomericSMILES"`
	SMILES           string      `json:"SMILES"`
	IUPACName        string      `json:"IUPACName"`
}

func (s *PubChemService) lookupURL(identifier string) string {
	id := identifier
	if !IsCAS(identifier) {
		id = url.PathEscape(identifier)
	}
	return fmt.Sprintf("%s/compound/name/%s/property/%s/JSON", s.baseURL, id, pubchemProperties)
}

// Lookup fetches basic compound data by CAS number or name. Any failure is
// logged and reported as nil.
func (s *PubChemService) Lookup(ctx context.Context, casOrName string) *models.PubChemData {
	casOrName = strings.TrimSpace(casOrName)
	if casOrName == "" {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, pubchemTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.lookupURL(casOrName), nil)
	if err != nil {
		s.fail(casOrName, err)
		return nil
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		s.fail(casOrName, err)
		return nil
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		metrics.UpstreamRequests.WithLabelValues("pubchem", metrics.OutcomeEmpty).Inc()
		s.log.Debug("pubchem lookup returned no record", zap.String("identifier", casOrName))
		return nil
	case resp.StatusCode != http.StatusOK:
		s.fail(casOrName, fmt.Errorf("status %d", resp.StatusCode))
		return nil
	}

	var body struct {
		PropertyTable struct {
			Properties []pubchemProps `json:"Properties"`
		} `json:"PropertyTable"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		s.fail(casOrName, fmt.Errorf("decode response: %w", err))
		return nil
	}
	if len(body.PropertyTable.Properties) == 0 {
		metrics.UpstreamRequests.WithLabelValues("pubchem", metrics.OutcomeEmpty).Inc()
		return nil
	}

	metrics.UpstreamRequests.WithLabelValues("pubchem", metrics.OutcomeOK).Inc()
	return reshapePubChem(body.PropertyTable.Properties[0])
}

func (s *PubChemService) fail(identifier string, err error) {
	metrics.UpstreamRequests.WithLabelValues("pubchem", metrics.OutcomeError).Inc()
	s.log.Warn("pubchem lookup failed", zap.String("identifier", identifier), zap.Error(err))
}

func reshapePubChem(p pubchemProps) *models.PubChemData {
	smiles := p.IsomericSMILES
	if smiles == "" {
		smiles = p.SMILES
	}
	return &models.PubChemData{
		CID:     p.CID,
		Formula: p.MolecularFormula,
		MW:      formatProperty(p.MolecularWeight) + " g/mol",
		LogKow:  formatProperty(p.XLogP),
		SMILES:  smiles,
		IUPAC:   p.IUPACName,
	}
}

// formatProperty renders a PubChem scalar that may arrive as string or number.
func formatProperty(v interface{}) string {
	switch val := v.(type) {
	case nil:
		return notDetermined
	case string:
		if strings.TrimSpace(val) == "" {
			return notDetermined
		}
		return val
	case float64:
		// integral values keep one decimal, e.g. 1.0
		if val == math.Trunc(val) && math.Abs(val) < 1e16 {
			return strconv.FormatFloat(val, 'f', 1, 64)
		}
		return strconv.FormatFloat(val, 'f', -1, 64)
	default:
		return fmt.Sprint(val)
	}
}
