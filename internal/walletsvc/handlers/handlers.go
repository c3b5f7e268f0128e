package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/jwtauth"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/loyclub/loyalty-services/internal/passkit"
	"github.com/loyclub/loyalty-services/internal/walletsvc/models"
	"github.com/loyclub/loyalty-services/internal/walletsvc/service"
)

// CustomerAPI is what the handlers need from the customer service.
type CustomerAPI interface {
	Create(ctx context.Context, name, phone, source string) (*models.Customer, error)
	Get(ctx context.Context, id string) (*models.Customer, error)
	List(ctx context.Context, limit, offset int64) ([]*models.Customer, error)
	Transactions(ctx context.Context, customerID string, limit int64) ([]*models.Transaction, error)
	Credit(ctx context.Context, customerID string, amount decimal.Decimal, description, source string) (*models.Customer, *models.Transaction, error)
	Debit(ctx context.Context, customerID string, amount decimal.Decimal, description, source string) (*models.Customer, *models.Transaction, error)
}

// RegistrationAPI is the device registration ledger surface.
type RegistrationAPI interface {
	Register(ctx context.Context, customerID primitive.ObjectID, serialNumber, deviceLibraryID, pushToken, passTypeID string) (*models.WalletRegistration, error)
	FindUpdatable(ctx context.Context, deviceLibraryID, passTypeID string, since time.Time) (*service.UpdatablePasses, error)
	Unregister(ctx context.Context, deviceLibraryID, serialNumber, passTypeID string) error
	FindBySerial(ctx context.Context, serialNumber, passTypeID string) (*models.WalletRegistration, error)
}

// PassIssuer produces signed archives.
type PassIssuer interface {
	IssueApple(ctx context.Context, customer *models.Customer) ([]byte, string, error)
}

// GoogleLinker mints Save to Google Wallet links.
type GoogleLinker interface {
	Available() bool
	BuildSaveLink(customerID, name, balance string) (string, error)
}

type Handler struct {
	tokenAuth     *jwtauth.JWTAuth
	customers     CustomerAPI
	registrations RegistrationAPI
	passes        PassIssuer
	google        GoogleLinker

	walletSecret string
	passTypeID   string
}

func NewHandler(customers CustomerAPI, registrations RegistrationAPI, passes PassIssuer, google GoogleLinker, walletSecret, passTypeID string) *Handler {
	return &Handler{
		customers:     customers,
		registrations: registrations,
		passes:        passes,
		google:        google,
		walletSecret:  walletSecret,
		passTypeID:    passTypeID,
	}
}

type Response struct {
	Message string      `json:"message"`
	Code    int         `json:"code"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

func (h *Handler) CreateResponse(w http.ResponseWriter, rsp Response) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(rsp.Code)

	json.NewEncoder(w).Encode(rsp)
}

// writeError maps domain errors to status codes. Crypto and
// infrastructure failures go out as a generic 500; the detail stays in
// the server log.
func (h *Handler) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrCustomerNotFound):
		h.CreateResponse(w, Response{Code: http.StatusNotFound, Error: "customer not found"})
	case errors.Is(err, service.ErrDeviceNotRegistered):
		h.CreateResponse(w, Response{Code: http.StatusNotFound, Error: "registration not found"})
	case errors.Is(err, service.ErrDuplicatePhone),
		errors.Is(err, service.ErrInvalidAmount),
		errors.Is(err, service.ErrInsufficientBalance):
		h.CreateResponse(w, Response{Code: http.StatusBadRequest, Error: err.Error()})
	case errors.Is(err, passkit.ErrSigningFailed),
		errors.Is(err, passkit.ErrSigningTimeout),
		errors.Is(err, passkit.ErrPackagingFailed):
		log.Errorf("pass generation error: %v", err)
		h.CreateResponse(w, Response{Code: http.StatusInternalServerError, Error: "pass generation failed"})
	default:
		log.Errorf("internal error: %v", err)
		h.CreateResponse(w, Response{Code: http.StatusInternalServerError, Error: "internal server error"})
	}
}

func (h *Handler) HealthHandler(w http.ResponseWriter, r *http.Request) {
	rsp := Response{
		Message: "wallet service is running at port " + os.Getenv("WALLET_SERVICE_PORT"),
		Code:    200,
	}
	h.CreateResponse(w, rsp)
}

func (h *Handler) InitAuth() {
	var jwtKey = os.Getenv("JWT_SECRET_KEY")
	h.tokenAuth = jwtauth.New("HS256", []byte(jwtKey), nil)
}
