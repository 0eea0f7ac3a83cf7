package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"tavla/service"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

const responseTypeRejection = "rejection"

// Handler exposes the wallet core over HTTP. Financial POST endpoints
// accept an Idempotency-Key header; retried keys replay the stored
// response, including stored rejections.
type Handler struct {
	wallet          service.WalletService
	escrow          service.EscrowService
	settlement      service.SettlementService
	backing         service.BackingService
	mint            service.MintService
	forfeit         service.ForfeitService
	guard           service.IdempotencyGuard
	rakeRate        decimal.Decimal
	playerShareRate decimal.Decimal
}

// NewHandler creates a new API handler
func NewHandler(
	wallet service.WalletService,
	escrow service.EscrowService,
	settlement service.SettlementService,
	backing service.BackingService,
	mint service.MintService,
	forfeit service.ForfeitService,
	guard service.IdempotencyGuard,
	rakeRate decimal.Decimal,
	playerShareRate decimal.Decimal,
) *Handler {
	return &Handler{
		wallet:          wallet,
		escrow:          escrow,
		settlement:      settlement,
		backing:         backing,
		mint:            mint,
		forfeit:         forfeit,
		guard:           guard,
		rakeRate:        rakeRate,
		playerShareRate: playerShareRate,
	}
}

// guarded wraps a service call as a GuardedOp. Taxonomy errors become
// stored rejections so a retried key replays the same rejection;
// anything else is an infrastructure failure and is not stored.
func guarded(responseType string, fn func(ctx context.Context) (any, error)) service.GuardedOp {
	return func(ctx context.Context) (string, any, error) {
		payload, err := fn(ctx)
		if err != nil {
			if service.IsRejection(err) {
				return responseTypeRejection, rejection{Error: err.Error(), Code: errorCode(err)}, nil
			}
			return "", nil, err
		}
		return responseType, payload, nil
	}
}

// runGuarded executes op under the idempotency guard and writes the
// resulting record, replayed or fresh, with the appropriate status.
func (h *Handler) runGuarded(w http.ResponseWriter, r *http.Request, endpoint string, op service.GuardedOp) {
	timer := prometheus.NewTimer(httpRequestDuration.WithLabelValues(r.Method, endpoint))
	defer timer.ObserveDuration()

	key := r.Header.Get("Idempotency-Key")
	record, replayed, err := h.guard.Execute(r.Context(), key, op)
	if err != nil {
		logrus.WithError(err).WithField("endpoint", endpoint).Error("request failed")
		httpRequestsTotal.WithLabelValues(r.Method, endpoint, "500").Inc()
		respondWithError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	if replayed {
		idempotentReplaysTotal.WithLabelValues(endpoint).Inc()
		w.Header().Set("Idempotency-Replayed", "true")
	}

	status := http.StatusOK
	if record.ResponseType == responseTypeRejection {
		var rej rejection
		if err := json.Unmarshal(record.Payload, &rej); err == nil {
			status = statusForCode(rej.Code)
		} else {
			status = http.StatusUnprocessableEntity
		}
	}

	httpRequestsTotal.WithLabelValues(r.Method, endpoint, strconv.Itoa(status)).Inc()
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(record.Payload)
}

func decodeBody(w http.ResponseWriter, r *http.Request, endpoint string, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		httpRequestsTotal.WithLabelValues(r.Method, endpoint, "400").Inc()
		respondWithError(w, http.StatusBadRequest, "malformed JSON body")
		return false
	}
	return true
}

func pathID(r *http.Request, name string) (int64, error) {
	return strconv.ParseInt(mux.Vars(r)[name], 10, 64)
}

// HealthCheckHandler reports liveness
func (h *Handler) HealthCheckHandler(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// CreateAccountHandler opens a new wallet account
func (h *Handler) CreateAccountHandler(w http.ResponseWriter, r *http.Request) {
	account, err := h.wallet.CreateAccount(r.Context())
	if err != nil {
		logrus.WithError(err).Error("failed to create account")
		httpRequestsTotal.WithLabelValues("POST", "/accounts", "500").Inc()
		respondWithError(w, http.StatusInternalServerError, "failed to create account")
		return
	}
	httpRequestsTotal.WithLabelValues("POST", "/accounts", "201").Inc()
	respondWithJSON(w, http.StatusCreated, account)
}

// GetAccountHandler returns an account's balances
func (h *Handler) GetAccountHandler(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid account id")
		return
	}

	account, err := h.wallet.GetAccount(r.Context(), id)
	if err != nil {
		if errors.Is(err, service.ErrAccountNotFound) {
			httpRequestsTotal.WithLabelValues("GET", "/accounts/{id}", "404").Inc()
			respondWithError(w, http.StatusNotFound, "account not found")
			return
		}
		httpRequestsTotal.WithLabelValues("GET", "/accounts/{id}", "500").Inc()
		respondWithError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	httpRequestsTotal.WithLabelValues("GET", "/accounts/{id}", "200").Inc()
	respondWithJSON(w, http.StatusOK, account)
}

// GetTransactionsHandler returns an account's recent transactions
func (h *Handler) GetTransactionsHandler(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid account id")
		return
	}

	limit := 50
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			limit = parsed
		}
	}

	transactions, err := h.wallet.GetTransactions(r.Context(), id, limit)
	if err != nil {
		if errors.Is(err, service.ErrAccountNotFound) {
			respondWithError(w, http.StatusNotFound, "account not found")
			return
		}
		respondWithError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	respondWithJSON(w, http.StatusOK, transactions)
}

type purchaseRequest struct {
	Amount      decimal.Decimal `json:"amount"`
	ReferenceID string          `json:"reference_id"`
}

// PurchaseHandler credits purchased points to an account
func (h *Handler) PurchaseHandler(w http.ResponseWriter, r *http.Request) {
	const endpoint = "/accounts/{id}/purchase"

	id, err := pathID(r, "id")
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid account id")
		return
	}

	var req purchaseRequest
	if !decodeBody(w, r, endpoint, &req) {
		return
	}
	if req.Amount.Sign() <= 0 {
		httpRequestsTotal.WithLabelValues("POST", endpoint, "422").Inc()
		respondWithError(w, http.StatusUnprocessableEntity, "positive amount required")
		return
	}

	h.runGuarded(w, r, endpoint, guarded("purchase", func(ctx context.Context) (any, error) {
		return h.wallet.Purchase(ctx, id, req.Amount, req.ReferenceID)
	}))
}

type transferRequest struct {
	FromAccountID int64           `json:"from_account_id"`
	ToAccountID   int64           `json:"to_account_id"`
	Amount        decimal.Decimal `json:"amount"`
}

// TransferHandler moves points between two accounts
func (h *Handler) TransferHandler(w http.ResponseWriter, r *http.Request) {
	const endpoint = "/transfers"

	var req transferRequest
	if !decodeBody(w, r, endpoint, &req) {
		return
	}
	if req.Amount.Sign() <= 0 {
		httpRequestsTotal.WithLabelValues("POST", endpoint, "422").Inc()
		respondWithError(w, http.StatusUnprocessableEntity, "positive amount required")
		return
	}
	if req.FromAccountID == req.ToAccountID {
		httpRequestsTotal.WithLabelValues("POST", endpoint, "422").Inc()
		respondWithError(w, http.StatusUnprocessableEntity, "self-transfer not allowed")
		return
	}

	h.runGuarded(w, r, endpoint, guarded("transfer", func(ctx context.Context) (any, error) {
		if err := h.wallet.Transfer(ctx, req.FromAccountID, req.ToAccountID, req.Amount); err != nil {
			return nil, err
		}
		return map[string]string{"status": "transferred"}, nil
	}))
}

type spendOasisRequest struct {
	Amount      decimal.Decimal `json:"amount"`
	ReferenceID string          `json:"reference_id"`
}

// SpendOasisHandler debits oasis tokens for an in-platform purchase
func (h *Handler) SpendOasisHandler(w http.ResponseWriter, r *http.Request) {
	const endpoint = "/accounts/{id}/oasis/spend"

	id, err := pathID(r, "id")
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid account id")
		return
	}

	var req spendOasisRequest
	if !decodeBody(w, r, endpoint, &req) {
		return
	}

	h.runGuarded(w, r, endpoint, guarded("oasis_spend", func(ctx context.Context) (any, error) {
		if err := h.wallet.SpendOasis(ctx, id, req.Amount, req.ReferenceID); err != nil {
			return nil, err
		}
		return map[string]string{"status": "spent"}, nil
	}))
}

type setBlockedRequest struct {
	Blocked bool `json:"blocked"`
}

// SetBlockedHandler flips the administrative block flag
func (h *Handler) SetBlockedHandler(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid account id")
		return
	}

	var req setBlockedRequest
	if !decodeBody(w, r, "/accounts/{id}/block", &req) {
		return
	}

	if err := h.wallet.SetBlocked(r.Context(), id, req.Blocked); err != nil {
		if errors.Is(err, service.ErrAccountNotFound) {
			respondWithError(w, http.StatusNotFound, "account not found")
			return
		}
		respondWithError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]bool{"blocked": req.Blocked})
}

type holdRequest struct {
	ContestID string          `json:"contest_id"`
	AccountID int64           `json:"account_id"`
	Amount    decimal.Decimal `json:"amount"`
}

// HoldEscrowHandler moves a stake into contest escrow
func (h *Handler) HoldEscrowHandler(w http.ResponseWriter, r *http.Request) {
	const endpoint = "/escrow/hold"

	var req holdRequest
	if !decodeBody(w, r, endpoint, &req) {
		return
	}
	if req.ContestID == "" {
		httpRequestsTotal.WithLabelValues("POST", endpoint, "422").Inc()
		respondWithError(w, http.StatusUnprocessableEntity, "contest_id required")
		return
	}
	if req.Amount.Sign() <= 0 {
		httpRequestsTotal.WithLabelValues("POST", endpoint, "422").Inc()
		respondWithError(w, http.StatusUnprocessableEntity, "positive amount required")
		return
	}

	h.runGuarded(w, r, endpoint, guarded("escrow_hold", func(ctx context.Context) (any, error) {
		holdID, err := h.escrow.Hold(ctx, req.ContestID, req.AccountID, req.Amount)
		if err != nil {
			return nil, err
		}
		return map[string]string{"hold_id": holdID, "contest_id": req.ContestID}, nil
	}))
}

type settleRequest struct {
	WinnerID int64            `json:"winner_id"`
	LoserID  int64            `json:"loser_id"`
	RakeRate *decimal.Decimal `json:"rake_rate,omitempty"`
}

// SettleHandler settles a contest with funds in escrow
func (h *Handler) SettleHandler(w http.ResponseWriter, r *http.Request) {
	const endpoint = "/contests/{id}/settle"
	contestID := mux.Vars(r)["id"]

	var req settleRequest
	if !decodeBody(w, r, endpoint, &req) {
		return
	}

	rake := h.rakeRate
	if req.RakeRate != nil {
		rake = *req.RakeRate
	}

	h.runGuarded(w, r, endpoint, guarded("settlement", func(ctx context.Context) (any, error) {
		return h.settlement.Settle(ctx, contestID, req.WinnerID, req.LoserID, rake)
	}))
}

// RefundEscrowHandler refunds all held stakes of a cancelled contest
func (h *Handler) RefundEscrowHandler(w http.ResponseWriter, r *http.Request) {
	const endpoint = "/contests/{id}/refund"
	contestID := mux.Vars(r)["id"]

	h.runGuarded(w, r, endpoint, guarded("refund", func(ctx context.Context) (any, error) {
		refunded, err := h.escrow.Refund(ctx, contestID)
		if err != nil {
			return nil, err
		}
		return map[string]any{"contest_id": contestID, "refunded_holds": refunded}, nil
	}))
}

type forfeitRequest struct {
	DisconnectedID int64 `json:"disconnected_id"`
}

// ForfeitHandler resolves a disconnect timeout as a forfeit
func (h *Handler) ForfeitHandler(w http.ResponseWriter, r *http.Request) {
	const endpoint = "/contests/{id}/forfeit"
	contestID := mux.Vars(r)["id"]

	var req forfeitRequest
	if !decodeBody(w, r, endpoint, &req) {
		return
	}

	h.runGuarded(w, r, endpoint, guarded("forfeit", func(ctx context.Context) (any, error) {
		return h.forfeit.ResolveDisconnect(ctx, contestID, req.DisconnectedID, h.rakeRate)
	}))
}

type placeBetRequest struct {
	ContestID      string          `json:"contest_id"`
	SupporterID    int64           `json:"supporter_id"`
	BackedPlayerID int64           `json:"backed_player_id"`
	Amount         decimal.Decimal `json:"amount"`
	Odds           decimal.Decimal `json:"odds"`
}

// PlaceBackingBetHandler stakes a supporter's wager on a participant
func (h *Handler) PlaceBackingBetHandler(w http.ResponseWriter, r *http.Request) {
	const endpoint = "/backing-bets"

	var req placeBetRequest
	if !decodeBody(w, r, endpoint, &req) {
		return
	}
	if req.ContestID == "" {
		httpRequestsTotal.WithLabelValues("POST", endpoint, "422").Inc()
		respondWithError(w, http.StatusUnprocessableEntity, "contest_id required")
		return
	}

	h.runGuarded(w, r, endpoint, guarded("backing_bet", func(ctx context.Context) (any, error) {
		return h.backing.PlaceBet(ctx, req.ContestID, req.SupporterID, req.BackedPlayerID, req.Amount, req.Odds)
	}))
}

type cancelBetRequest struct {
	SupporterID int64 `json:"supporter_id"`
}

// CancelBackingBetHandler refunds a still-pending backing bet
func (h *Handler) CancelBackingBetHandler(w http.ResponseWriter, r *http.Request) {
	const endpoint = "/backing-bets/{id}/cancel"

	betID, err := pathID(r, "id")
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid bet id")
		return
	}

	var req cancelBetRequest
	if !decodeBody(w, r, endpoint, &req) {
		return
	}

	h.runGuarded(w, r, endpoint, guarded("bet_cancelled", func(ctx context.Context) (any, error) {
		if err := h.backing.Cancel(ctx, betID, req.SupporterID); err != nil {
			return nil, err
		}
		return map[string]any{"bet_id": betID, "status": "refunded"}, nil
	}))
}

type mintRequest struct {
	AccountID   int64           `json:"account_id"`
	Amount      decimal.Decimal `json:"amount"`
	Reason      string          `json:"reason"`
	ReferenceID string          `json:"reference_id"`
}

// MintHandler mints oasis reward tokens under the daily cap
func (h *Handler) MintHandler(w http.ResponseWriter, r *http.Request) {
	const endpoint = "/oasis/mint"

	var req mintRequest
	if !decodeBody(w, r, endpoint, &req) {
		return
	}

	h.runGuarded(w, r, endpoint, guarded("oasis_mint", func(ctx context.Context) (any, error) {
		newBalance, err := h.mint.Mint(ctx, req.AccountID, req.Amount, req.Reason, req.ReferenceID)
		if err != nil {
			return nil, err
		}
		return map[string]any{"account_id": req.AccountID, "oasis_balance": newBalance}, nil
	}))
}
