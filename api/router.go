package api

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// NewRouter builds the HTTP routing table
func NewRouter(h *Handler) *mux.Router {
	r := mux.NewRouter()

	r.Handle("/metrics", promhttp.Handler())
	r.HandleFunc("/healthz", h.HealthCheckHandler).Methods(http.MethodGet)

	v1 := r.PathPrefix("/api/v1").Subrouter()

	v1.HandleFunc("/accounts", h.CreateAccountHandler).Methods(http.MethodPost)
	v1.HandleFunc("/accounts/{id:[0-9]+}", h.GetAccountHandler).Methods(http.MethodGet)
	v1.HandleFunc("/accounts/{id:[0-9]+}/transactions", h.GetTransactionsHandler).Methods(http.MethodGet)
	v1.HandleFunc("/accounts/{id:[0-9]+}/purchase", h.PurchaseHandler).Methods(http.MethodPost)
	v1.HandleFunc("/accounts/{id:[0-9]+}/oasis/spend", h.SpendOasisHandler).Methods(http.MethodPost)
	v1.HandleFunc("/accounts/{id:[0-9]+}/block", h.SetBlockedHandler).Methods(http.MethodPost)

	v1.HandleFunc("/transfers", h.TransferHandler).Methods(http.MethodPost)

	v1.HandleFunc("/escrow/hold", h.HoldEscrowHandler).Methods(http.MethodPost)
	v1.HandleFunc("/contests/{id}/settle", h.SettleHandler).Methods(http.MethodPost)
	v1.HandleFunc("/contests/{id}/refund", h.RefundEscrowHandler).Methods(http.MethodPost)
	v1.HandleFunc("/contests/{id}/forfeit", h.ForfeitHandler).Methods(http.MethodPost)

	v1.HandleFunc("/backing-bets", h.PlaceBackingBetHandler).Methods(http.MethodPost)
	v1.HandleFunc("/backing-bets/{id:[0-9]+}/cancel", h.CancelBackingBetHandler).Methods(http.MethodPost)

	v1.HandleFunc("/oasis/mint", h.MintHandler).Methods(http.MethodPost)

	return r
}
