package handlers

import (
	"github.com/go-chi/chi"
	"github.com/go-chi/jwtauth"
)

func (h *Handler) SetRoutes(r *chi.Mux) {
	r.Route("/api/v1", func(r chi.Router) {

		// public routes here
		r.Post("/customers", h.CreateCustomer)

		// Apple Wallet web service, called by devices holding a pass.
		// webServiceURL points at /api/v1/wallet and the client appends
		// its own /v1/... protocol paths.
		r.Route("/wallet", func(r chi.Router) {
			r.Use(h.WalletAuth)

			r.Post("/v1/devices/{deviceLibraryIdentifier}/registrations/{passTypeIdentifier}/{serialNumber}", h.RegisterDevice)
			r.Get("/v1/devices/{deviceLibraryIdentifier}/registrations/{passTypeIdentifier}", h.UpdatablePasses)
			r.Get("/v1/passes/{passTypeIdentifier}/{serialNumber}", h.LatestPass)
			r.Delete("/v1/devices/{deviceLibraryIdentifier}/registrations/{passTypeIdentifier}/{serialNumber}", h.UnregisterDevice)
			r.Post("/v1/log", h.DeviceLog)
		})

		// Secure routes
		r.Group(func(r chi.Router) {
			r.Use(jwtauth.Verifier(h.tokenAuth))
			r.Use(jwtauth.Authenticator)

			r.Get("/health", h.HealthHandler)

			r.Get("/customers", h.ListCustomers)
			r.Get("/customers/{customerId}", h.GetCustomer)
			r.Post("/customers/{customerId}/balance", h.BalanceOperation)
			r.Get("/customers/{customerId}/transactions", h.ListTransactions)

			r.Post("/passes/apple", h.IssueApplePass)
			r.Get("/passes/google/{customerId}", h.GoogleSaveLink)
		})
	})
}
