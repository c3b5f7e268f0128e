package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi"
	"github.com/shopspring/decimal"
)

type createCustomerRequest struct {
	Name   string `json:"name"`
	Phone  string `json:"phone,omitempty"`
	Source string `json:"source,omitempty"`
}

// CreateCustomer handles POST /customers, the public registration flow.
func (h *Handler) CreateCustomer(w http.ResponseWriter, r *http.Request) {
	var req createCustomerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.CreateResponse(w, Response{Code: http.StatusBadRequest, Error: "invalid request body"})
		return
	}

	req.Name = strings.TrimSpace(req.Name)
	if len(req.Name) < 2 || len(req.Name) > 100 {
		h.CreateResponse(w, Response{Code: http.StatusBadRequest, Error: "name must be 2-100 characters"})
		return
	}

	customer, err := h.customers.Create(r.Context(), req.Name, strings.TrimSpace(req.Phone), req.Source)
	if err != nil {
		h.writeError(w, err)
		return
	}

	h.CreateResponse(w, Response{Code: http.StatusCreated, Message: "customer created", Data: customer})
}

// GetCustomer handles GET /customers/{customerId}.
func (h *Handler) GetCustomer(w http.ResponseWriter, r *http.Request) {
	customer, err := h.customers.Get(r.Context(), chi.URLParam(r, "customerId"))
	if err != nil {
		h.writeError(w, err)
		return
	}

	h.CreateResponse(w, Response{Code: http.StatusOK, Data: customer})
}

// ListCustomers handles GET /customers.
func (h *Handler) ListCustomers(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.ParseInt(r.URL.Query().Get("limit"), 10, 64)
	offset, _ := strconv.ParseInt(r.URL.Query().Get("offset"), 10, 64)

	customers, err := h.customers.List(r.Context(), limit, offset)
	if err != nil {
		h.writeError(w, err)
		return
	}

	h.CreateResponse(w, Response{Code: http.StatusOK, Data: customers})
}

type balanceRequest struct {
	Amount      string `json:"amount"`
	Operation   string `json:"operation"` // credit or debit
	Description string `json:"description,omitempty"`
	Source      string `json:"source,omitempty"`
}

// BalanceOperation handles POST /customers/{customerId}/balance. The
// resulting balance change flows to registered wallet devices through the
// customer-updated event.
func (h *Handler) BalanceOperation(w http.ResponseWriter, r *http.Request) {
	customerID := chi.URLParam(r, "customerId")

	var req balanceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.CreateResponse(w, Response{Code: http.StatusBadRequest, Error: "invalid request body"})
		return
	}

	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		h.CreateResponse(w, Response{Code: http.StatusBadRequest, Error: "amount must be a decimal number"})
		return
	}

	source := req.Source
	if source == "" {
		source = "admin"
	}

	var rsp struct {
		Customer    any `json:"customer"`
		Transaction any `json:"transaction"`
	}
	switch req.Operation {
	case "credit":
		rsp.Customer, rsp.Transaction, err = h.customers.Credit(r.Context(), customerID, amount, req.Description, source)
	case "debit":
		rsp.Customer, rsp.Transaction, err = h.customers.Debit(r.Context(), customerID, amount, req.Description, source)
	default:
		h.CreateResponse(w, Response{Code: http.StatusBadRequest, Error: "operation must be credit or debit"})
		return
	}
	if err != nil {
		h.writeError(w, err)
		return
	}

	h.CreateResponse(w, Response{Code: http.StatusOK, Message: "balance updated", Data: rsp})
}

// ListTransactions handles GET /customers/{customerId}/transactions.
func (h *Handler) ListTransactions(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.ParseInt(r.URL.Query().Get("limit"), 10, 64)

	transactions, err := h.customers.Transactions(r.Context(), chi.URLParam(r, "customerId"), limit)
	if err != nil {
		h.writeError(w, err)
		return
	}

	h.CreateResponse(w, Response{Code: http.StatusOK, Data: transactions})
}
