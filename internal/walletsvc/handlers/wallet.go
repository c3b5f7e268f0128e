package handlers

import (
	"crypto/subtle"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi"
	log "github.com/sirupsen/logrus"

	"github.com/loyclub/loyalty-services/internal/walletsvc/service"
)

// WalletAuth validates the Authorization header every wallet web-service
// call carries: "<scheme> <token>" where the token must equal the
// configured pass-type secret. Any mismatch gets the same 401, never a
// hint whether the device or the identity was the problem.
func (h *Handler) WalletAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, token, found := strings.Cut(r.Header.Get("Authorization"), " ")
		if !found || subtle.ConstantTimeCompare([]byte(token), []byte(h.walletSecret)) != 1 {
			h.CreateResponse(w, Response{Code: http.StatusUnauthorized, Error: "unauthorized"})
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RegisterDevice handles
// POST /v1/devices/{deviceLibraryIdentifier}/registrations/{passTypeIdentifier}/{serialNumber}
func (h *Handler) RegisterDevice(w http.ResponseWriter, r *http.Request) {
	deviceLibraryID := chi.URLParam(r, "deviceLibraryIdentifier")
	passTypeID := chi.URLParam(r, "passTypeIdentifier")
	serialNumber := chi.URLParam(r, "serialNumber")

	var body struct {
		PushToken string `json:"pushToken"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.PushToken == "" {
		h.CreateResponse(w, Response{Code: http.StatusBadRequest, Error: "pushToken is required"})
		return
	}
	if deviceLibraryID == "" || passTypeID == "" || serialNumber == "" {
		h.CreateResponse(w, Response{Code: http.StatusBadRequest, Error: "missing required parameters"})
		return
	}

	customer, err := h.customers.Get(r.Context(), customerIDFromSerial(serialNumber))
	if err != nil {
		h.writeError(w, err)
		return
	}

	_, err = h.registrations.Register(r.Context(), customer.ID, serialNumber, deviceLibraryID, body.PushToken, passTypeID)
	if err != nil {
		h.writeError(w, err)
		return
	}

	log.Infof("device %.8s... registered for pass %s", deviceLibraryID, serialNumber)
	h.CreateResponse(w, Response{Code: http.StatusCreated, Message: "device registered"})
}

// UpdatablePasses handles
// GET /v1/devices/{deviceLibraryIdentifier}/registrations/{passTypeIdentifier}?passesUpdatedSince=
func (h *Handler) UpdatablePasses(w http.ResponseWriter, r *http.Request) {
	deviceLibraryID := chi.URLParam(r, "deviceLibraryIdentifier")
	passTypeID := chi.URLParam(r, "passTypeIdentifier")
	if deviceLibraryID == "" || passTypeID == "" {
		h.CreateResponse(w, Response{Code: http.StatusBadRequest, Error: "missing required parameters"})
		return
	}

	since := service.ParseSince(r.URL.Query().Get("passesUpdatedSince"))

	result, err := h.registrations.FindUpdatable(r.Context(), deviceLibraryID, passTypeID, since)
	if err != nil {
		h.writeError(w, err)
		return
	}

	if len(result.SerialNumbers) == 0 {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(result)
}

// LatestPass handles GET /v1/passes/{passTypeIdentifier}/{serialNumber},
// regenerating the archive from current customer state.
func (h *Handler) LatestPass(w http.ResponseWriter, r *http.Request) {
	passTypeID := chi.URLParam(r, "passTypeIdentifier")
	serialNumber := chi.URLParam(r, "serialNumber")
	if passTypeID == "" || serialNumber == "" {
		h.CreateResponse(w, Response{Code: http.StatusBadRequest, Error: "missing required parameters"})
		return
	}

	reg, err := h.registrations.FindBySerial(r.Context(), serialNumber, passTypeID)
	if err != nil {
		h.writeError(w, err)
		return
	}

	customer, err := h.customers.Get(r.Context(), reg.CustomerID.Hex())
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
	w.Header().Set("Last-Modified", reg.LastUpdated.UTC().Format(http.TimeFormat))
	w.WriteHeader(http.StatusOK)
	w.Write(archive)
}

// UnregisterDevice handles
// DELETE /v1/devices/{deviceLibraryIdentifier}/registrations/{passTypeIdentifier}/{serialNumber}
func (h *Handler) UnregisterDevice(w http.ResponseWriter, r *http.Request) {
	deviceLibraryID := chi.URLParam(r, "deviceLibraryIdentifier")
	passTypeID := chi.URLParam(r, "passTypeIdentifier")
	serialNumber := chi.URLParam(r, "serialNumber")
	if deviceLibraryID == "" || passTypeID == "" || serialNumber == "" {
		h.CreateResponse(w, Response{Code: http.StatusBadRequest, Error: "missing required parameters"})
		return
	}

	if err := h.registrations.Unregister(r.Context(), deviceLibraryID, serialNumber, passTypeID); err != nil {
		h.writeError(w, err)
		return
	}

	h.CreateResponse(w, Response{Code: http.StatusOK, Message: "device unregistered"})
}

// DeviceLog handles POST /v1/log, ingesting device-side error reports
// into the server log.
func (h *Handler) DeviceLog(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Logs []string `json:"logs"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Logs == nil {
		h.CreateResponse(w, Response{Code: http.StatusBadRequest, Error: "invalid log format"})
		return
	}

	for _, line := range body.Logs {
		log.Warnf("wallet device log: %s", line)
	}

	h.CreateResponse(w, Response{Code: http.StatusOK, Message: "logs received"})
}

// customerIDFromSerial recovers the owning customer from a serial of the
// form LOY-<customerID>-<issuedAtMillis>.
func customerIDFromSerial(serialNumber string) string {
	parts := strings.Split(serialNumber, "-")
	if len(parts) != 3 || parts[0] != "LOY" {
		return ""
	}
	return parts[1]
}
