package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-chi/chi"
)

// IssueApplePass handles POST /passes/apple with {customerId}, returning
// the signed archive as an attachment.
func (h *Handler) IssueApplePass(w http.ResponseWriter, r *http.Request) {
	var req struct {
		CustomerID string `json:"customerId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.CustomerID == "" {
		h.CreateResponse(w, Response{Code: http.StatusBadRequest, Error: "customerId is required"})
		return
	}

	customer, err := h.customers.Get(r.Context(), req.CustomerID)
	if err != nil {
		h.writeError(w, err)
		return
	}

	archive, serial, err := h.passes.IssueApple(r.Context(), customer)
	if err != nil {
		h.writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/vnd.apple.pkpass")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="loyalty-card-%s.pkpass"`, serial))
	w.WriteHeader(http.StatusOK)
	w.Write(archive)
}

// GoogleSaveLink handles GET /passes/google/{customerId}.
func (h *Handler) GoogleSaveLink(w http.ResponseWriter, r *http.Request) {
	customer, err := h.customers.Get(r.Context(), chi.URLParam(r, "customerId"))
	if err != nil {
		h.writeError(w, err)
		return
	}

	if !h.google.Available() {
		h.CreateResponse(w, Response{Code: http.StatusServiceUnavailable, Error: "google wallet not configured"})
		return
	}

	link, err := h.google.BuildSaveLink(customer.ID.Hex(), customer.Name, customer.Balance)
	if err != nil {
		h.writeError(w, err)
		return
	}

	h.CreateResponse(w, Response{Code: http.StatusOK, Data: map[string]string{"saveUrl": link}})
}
