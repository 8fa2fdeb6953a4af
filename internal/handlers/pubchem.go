package handlers

import (
	"context"
	"net/http"
	"strings"

	"qsar-llm-backend/internal/models"
)

type compoundLookup interface {
	Lookup(ctx context.Context, casOrName string) *models.PubChemData
}

type PubChemHandler struct {
	pubchem compoundLookup
}

func NewPubChemHandler(pubchem compoundLookup) *PubChemHandler {
	return &PubChemHandler{pubchem: pubchem}
}

func (h *PubChemHandler) Lookup(w http.ResponseWriter, r *http.Request) {
	identifier := strings.TrimSpace(r.URL.Query().Get("q"))
	if identifier == "" {
		writeJSON(w, http.StatusBadRequest, errorResp("parameter 'q' is required", r))
		return
	}

	data := h.pubchem.Lookup(r.Context(), identifier)
	if data == nil {
		writeJSON(w, http.StatusNotFound, errorResp("not found in PubChem", r))
		return
	}

	writeJSON(w, http.StatusOK, data)
}
