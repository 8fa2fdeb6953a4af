package services

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"qsar-llm-backend/internal/metrics"
)

const glyphosateProps = `{
  "PropertyTable": {
    "Properties": [{
      "CID": 3496,
      "MolecularFormula": "C3H8NO5P",
      "MolecularWeight": "169.07",
      "XLogP": -4.6,
      "IsomericSMILES": "C(C(=O)O)NCP(=O)(O)O",
      "IUPACName": "2-(phosphonomethylamino)acetic acid"
    }]
  }
}`

func newTestPubChem(t *testing.T, handler http.HandlerFunc) *PubChemService {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewPubChemService(srv.URL+"/", zaptest.NewLogger(t))
}

func TestPubChemLookup_ByCAS(t *testing.T) {
	pc := newTestPubChem(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/compound/name/1071-83-6/property/"+pubchemProperties+"/JSON", r.URL.Path)
		w.Write([]byte(glyphosateProps))
	})

	data := pc.Lookup(context.Background(), "1071-83-6")
	require.NotNil(t, data)
	assert.Equal(t, int64(3496), data.CID)
	assert.Equal(t, "C3H8NO5P", data.Formula)
	assert.Equal(t, "169.07 g/mol", data.MW)
	assert.Equal(t, "-4.6", data.LogKow)
	assert.Equal(t, "C(C(=O)O)NCP(=O)(O)O", data.SMILES)
	assert.Equal(t, "2-(phosphonomethylamino)acetic acid", data.IUPAC)
}

func TestPubChemLookup_EscapesNames(t *testing.T) {
	pc := newTestPubChem(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/compound/name/acetic%20acid/property/"+pubchemProperties+"/JSON", r.URL.EscapedPath())
		w.Write([]byte(glyphosateProps))
	})

	assert.NotNil(t, pc.Lookup(context.Background(), "acetic acid"))
}

func TestPubChemLookup_NoRecord(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{"not found", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
			w.Write([]byte(`{"Fault":{"Code":"PUGREST.NotFound"}}`))
		}},
		{"empty property table", func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"PropertyTable":{"Properties":[]}}`))
		}},
		{"garbage body", func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte("not json"))
		}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			pc := newTestPubChem(t, tc.handler)
			assert.Nil(t, pc.Lookup(context.Background(), "unobtainium"))
		})
	}
}

func TestPubChemLookup_UpstreamErrorsCountAsErrors(t *testing.T) {
	tests := []struct {
		name        string
		status      int
		wantOutcome string
	}{
		{"not found is empty", http.StatusNotFound, metrics.OutcomeEmpty},
		{"busy is an error", http.StatusServiceUnavailable, metrics.OutcomeError},
		{"server error is an error", http.StatusInternalServerError, metrics.OutcomeError},
		{"bad request is an error", http.StatusBadRequest, metrics.OutcomeError},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			pc := newTestPubChem(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
			})
			counter := metrics.UpstreamRequests.WithLabelValues("pubchem", tc.wantOutcome)
			before := testutil.ToFloat64(counter)

			assert.Nil(t, pc.Lookup(context.Background(), "50-00-0"))
			assert.Equal(t, before+1, testutil.ToFloat64(counter))
		})
	}
}

func TestPubChemLookup_BlankIdentifier(t *testing.T) {
	called := false
	pc := newTestPubChem(t, func(w http.ResponseWriter, r *http.Request) {
		called = true
	})

	assert.Nil(t, pc.Lookup(context.Background(), "   "))
	assert.False(t, called)
}

func TestPubChemLookup_Unreachable(t *testing.T) {
	pc := NewPubChemService(closedURL(t), zaptest.NewLogger(t))
	assert.Nil(t, pc.Lookup(context.Background(), "50-00-0"))
}

func TestReshapePubChem_Fallbacks(t *testing.T) {
	data := reshapePubChem(pubchemProps{
		CID:    712,
		SMILES: "C=O",
	})

	assert.Equal(t, "C=O", data.SMILES)
	assert.Equal(t, "N/D g/mol", data.MW)
	assert.Equal(t, "N/D", data.LogKow)
}

func TestFormatProperty(t *testing.T) {
	tests := []struct {
		in   interface{}
		want string
	}{
		{nil, "N/D"},
		{"", "N/D"},
		{"  ", "N/D"},
		{"30.03", "30.03"},
		{0.35, "0.35"},
		{float64(169), "169.0"},
		{1.0, "1.0"},
		{-2.0, "-2.0"},
		{true, "true"},
	}

	for _, tc := range tests {
		assert.Equal(t, tc.want, formatProperty(tc.in), "input %#v", tc.in)
	}
}
