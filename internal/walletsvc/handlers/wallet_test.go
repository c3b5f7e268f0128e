package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/loyclub/loyalty-services/internal/walletsvc/models"
	"github.com/loyclub/loyalty-services/internal/walletsvc/service"
)

const (
	testSecret   = "wallet-secret"
	testPassType = "pass.club.loy"
	testDevice   = "d1f2e3a4b5c6d7e8"
)

var testCustomerID = func() primitive.ObjectID {
	id, _ := primitive.ObjectIDFromHex("64f0c2a1b3d4e5f601234567")
	return id
}()

var testSerial = "LOY-64f0c2a1b3d4e5f601234567-1700000000000"

type stubCustomers struct {
	customer *models.Customer
	err      error
}

func (s *stubCustomers) Create(ctx context.Context, name, phone, source string) (*models.Customer, error) {
	return s.customer, s.err
}

func (s *stubCustomers) Get(ctx context.Context, id string) (*models.Customer, error) {
	return s.customer, s.err
}

func (s *stubCustomers) List(ctx context.Context, limit, offset int64) ([]*models.Customer, error) {
	return []*models.Customer{s.customer}, s.err
}

func (s *stubCustomers) Transactions(ctx context.Context, customerID string, limit int64) ([]*models.Transaction, error) {
	return nil, s.err
}

func (s *stubCustomers) Credit(ctx context.Context, customerID string, amount decimal.Decimal, description, source string) (*models.Customer, *models.Transaction, error) {
	return s.customer, &models.Transaction{}, s.err
}

func (s *stubCustomers) Debit(ctx context.Context, customerID string, amount decimal.Decimal, description, source string) (*models.Customer, *models.Transaction, error) {
	return s.customer, &models.Transaction{}, s.err
}

type stubRegistrations struct {
	reg       *models.WalletRegistration
	updatable *service.UpdatablePasses
	err       error
}

func (s *stubRegistrations) Register(ctx context.Context, customerID primitive.ObjectID, serialNumber, deviceLibraryID, pushToken, passTypeID string) (*models.WalletRegistration, error) {
	return s.reg, s.err
}

func (s *stubRegistrations) FindUpdatable(ctx context.Context, deviceLibraryID, passTypeID string, since time.Time) (*service.UpdatablePasses, error) {
	return s.updatable, s.err
}

func (s *stubRegistrations) Unregister(ctx context.Context, deviceLibraryID, serialNumber, passTypeID string) error {
	return s.err
}

func (s *stubRegistrations) FindBySerial(ctx context.Context, serialNumber, passTypeID string) (*models.WalletRegistration, error) {
	return s.reg, s.err
}

type stubIssuer struct {
	archive []byte
	err     error
}

func (s *stubIssuer) IssueApple(ctx context.Context, customer *models.Customer) ([]byte, string, error) {
	return s.archive, testSerial, s.err
}

type stubGoogle struct{}

func (stubGoogle) Available() bool { return false }
func (stubGoogle) BuildSaveLink(customerID, name, balance string) (string, error) {
	return "", nil
}

func testCustomer() *models.Customer {
	return &models.Customer{
		ID:      testCustomerID,
		Name:    "Jamie Doe",
		Balance: "150.00",
	}
}

func testRegistration() *models.WalletRegistration {
	return &models.WalletRegistration{
		CustomerID:              testCustomerID,
		SerialNumber:            testSerial,
		DeviceLibraryIdentifier: testDevice,
		PushToken:               "tok",
		PassTypeIdentifier:      testPassType,
		LastUpdated:             time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC),
		IsActive:                true,
	}
}

func newTestRouter(t *testing.T, customers CustomerAPI, regs RegistrationAPI, issuer PassIssuer) *chi.Mux {
	t.Helper()
	t.Setenv("JWT_SECRET_KEY", "test-admin-secret")

	h := NewHandler(customers, regs, issuer, stubGoogle{}, testSecret, testPassType)
	h.InitAuth()

	r := chi.NewRouter()
	h.SetRoutes(r)
	return r
}

func walletRequest(method, path, body string) *http.Request {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
	}
	req.Header.Set("Authorization", "ApplePass "+testSecret)
	return req
}

func registerPath() string {
	return "/api/v1/wallet/v1/devices/" + testDevice + "/registrations/" + testPassType + "/" + testSerial
}

func TestWalletAuthRejectsUniformly(t *testing.T) {
	r := newTestRouter(t, &stubCustomers{customer: testCustomer()}, &stubRegistrations{}, &stubIssuer{})

	for _, header := range []string{"", "ApplePass wrong-token", testSecret} {
		req := httptest.NewRequest(http.MethodPost, registerPath(), strings.NewReader(`{"pushToken":"tok"}`))
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		assert.Equal(t, http.StatusUnauthorized, w.Code, "header %q", header)
	}
}

func TestRegisterDevice(t *testing.T) {
	regs := &stubRegistrations{reg: testRegistration()}
	r := newTestRouter(t, &stubCustomers{customer: testCustomer()}, regs, &stubIssuer{})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, walletRequest(http.MethodPost, registerPath(), `{"pushToken":"tok"}`))
	assert.Equal(t, http.StatusCreated, w.Code)
}

func TestRegisterDeviceMissingPushToken(t *testing.T) {
	r := newTestRouter(t, &stubCustomers{customer: testCustomer()}, &stubRegistrations{}, &stubIssuer{})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, walletRequest(http.MethodPost, registerPath(), `{}`))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRegisterDeviceUnknownSerial(t *testing.T) {
	r := newTestRouter(t, &stubCustomers{err: service.ErrCustomerNotFound}, &stubRegistrations{}, &stubIssuer{})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, walletRequest(http.MethodPost, registerPath(), `{"pushToken":"tok"}`))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestUpdatablePasses(t *testing.T) {
	regs := &stubRegistrations{updatable: &service.UpdatablePasses{
		SerialNumbers: []string{testSerial},
		LastUpdated:   "1700000000000",
	}}
	r := newTestRouter(t, &stubCustomers{customer: testCustomer()}, regs, &stubIssuer{})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, walletRequest(http.MethodGet,
		"/api/v1/wallet/v1/devices/"+testDevice+"/registrations/"+testPassType+"?passesUpdatedSince=1600000000000", ""))
	require.Equal(t, http.StatusOK, w.Code)

	var body service.UpdatablePasses
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, []string{testSerial}, body.SerialNumbers)
	assert.Equal(t, "1700000000000", body.LastUpdated)
}

func TestUpdatablePassesNoContent(t *testing.T) {
	regs := &stubRegistrations{updatable: &service.UpdatablePasses{SerialNumbers: []string{}}}
	r := newTestRouter(t, &stubCustomers{customer: testCustomer()}, regs, &stubIssuer{})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, walletRequest(http.MethodGet,
		"/api/v1/wallet/v1/devices/"+testDevice+"/registrations/"+testPassType, ""))
	assert.Equal(t, http.StatusNoContent, w.Code)
}

func TestLatestPass(t *testing.T) {
	regs := &stubRegistrations{reg: testRegistration()}
	issuer := &stubIssuer{archive: []byte("pkpass-bytes")}
	r := newTestRouter(t, &stubCustomers{customer: testCustomer()}, regs, issuer)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, walletRequest(http.MethodGet,
		"/api/v1/wallet/v1/passes/"+testPassType+"/"+testSerial, ""))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/vnd.apple.pkpass", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), testSerial)
	assert.Equal(t, "Sat, 01 Aug 2026 12:00:00 GMT", w.Header().Get("Last-Modified"))
	assert.Equal(t, "pkpass-bytes", w.Body.String())
}

func TestLatestPassUnregistered(t *testing.T) {
	regs := &stubRegistrations{err: service.ErrDeviceNotRegistered}
	r := newTestRouter(t, &stubCustomers{customer: testCustomer()}, regs, &stubIssuer{})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, walletRequest(http.MethodGet,
		"/api/v1/wallet/v1/passes/"+testPassType+"/"+testSerial, ""))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestUnregisterDevice(t *testing.T) {
	r := newTestRouter(t, &stubCustomers{customer: testCustomer()}, &stubRegistrations{}, &stubIssuer{})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, walletRequest(http.MethodDelete, registerPath(), ""))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestUnregisterDeviceNotFound(t *testing.T) {
	regs := &stubRegistrations{err: service.ErrDeviceNotRegistered}
	r := newTestRouter(t, &stubCustomers{customer: testCustomer()}, regs, &stubIssuer{})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, walletRequest(http.MethodDelete, registerPath(), ""))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestDeviceLog(t *testing.T) {
	r := newTestRouter(t, &stubCustomers{customer: testCustomer()}, &stubRegistrations{}, &stubIssuer{})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, walletRequest(http.MethodPost, "/api/v1/wallet/v1/log", `{"logs":["pass render failed"]}`))
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, walletRequest(http.MethodPost, "/api/v1/wallet/v1/log", `{"nope":true}`))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCustomerIDFromSerial(t *testing.T) {
	assert.Equal(t, "64f0c2a1b3d4e5f601234567", customerIDFromSerial(testSerial))
	assert.Equal(t, "", customerIDFromSerial("garbage"))
	assert.Equal(t, "", customerIDFromSerial("XXX-a-1"))
}
