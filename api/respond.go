package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"tavla/service"
)

func respondWithError(w http.ResponseWriter, code int, message string) {
	respondWithJSON(w, code, map[string]string{"error": message})
}

func respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if payload != nil {
		json.NewEncoder(w).Encode(payload)
	}
}

// rejection is the stored shape of a deliberately rejected operation.
// It replays with the same status code on a retried idempotency key.
type rejection struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

func errorCode(err error) string {
	switch {
	case errors.Is(err, service.ErrInsufficientFunds):
		return "insufficient_funds"
	case errors.Is(err, service.ErrAccountNotFound):
		return "account_not_found"
	case errors.Is(err, service.ErrAccountBlocked):
		return "account_blocked"
	case errors.Is(err, service.ErrInvalidEscrowState):
		return "invalid_escrow_state"
	case errors.Is(err, service.ErrDailyMintCapReached):
		return "daily_mint_cap_reached"
	case errors.Is(err, service.ErrAlreadySettled):
		return "already_settled"
	case errors.Is(err, service.ErrBetNotFound):
		return "bet_not_found"
	case errors.Is(err, service.ErrForfeitNotApplicable):
		return "forfeit_not_applicable"
	default:
		return "invalid_request"
	}
}

func statusForCode(code string) int {
	switch code {
	case "account_not_found", "bet_not_found":
		return http.StatusNotFound
	case "invalid_escrow_state", "already_settled":
		return http.StatusConflict
	case "account_blocked":
		return http.StatusForbidden
	default:
		return http.StatusUnprocessableEntity
	}
}
