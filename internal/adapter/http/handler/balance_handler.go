package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/iho/splitledger/internal/adapter/http/dto"
	"github.com/iho/splitledger/internal/usecase"
)

// BalanceHandler handles balance-related HTTP requests.
type BalanceHandler struct {
	balanceUC *usecase.BalanceUseCase
}

// NewBalanceHandler creates a new BalanceHandler.
func NewBalanceHandler(balanceUC *usecase.BalanceUseCase) *BalanceHandler {
	return &BalanceHandler{balanceUC: balanceUC}
}

// GroupBalances returns the simplified balance rows of a group together
// with the per-member summary.
func (h *BalanceHandler) GroupBalances(w http.ResponseWriter, r *http.Request) {
	userID, ok := callerID(w, r)
	if !ok {
		return
	}

	groupID := chi.URLParam(r, "groupID")

	out, err := h.balanceUC.GroupBalances(r.Context(), groupID, userID)
	if err != nil {
		status := mapDomainError(err)
		writeError(w, status, "failed to get balances", err.Error())

		return
	}

	writeJSON(w, http.StatusOK, dto.GroupBalancesFromDomain(out))
}

// Recalculate forces a rebuild of a group's balance rows. Balances are
// recalculated after every financial write, so this is only needed to
// repair drift.
func (h *BalanceHandler) Recalculate(w http.ResponseWriter, r *http.Request) {
	userID, ok := callerID(w, r)
	if !ok {
		return
	}

	groupID := chi.URLParam(r, "groupID")

	count, err := h.balanceUC.ForceRecalculate(r.Context(), groupID, userID)
	if err != nil {
		status := mapDomainError(err)
		writeError(w, status, "failed to recalculate balances", err.Error())

		return
	}

	writeJSON(w, http.StatusOK, dto.RecalculateResponse{BalanceCount: count})
}

// UserBalance returns one member's slice of the group balance view.
func (h *BalanceHandler) UserBalance(w http.ResponseWriter, r *http.Request) {
	callerUserID, ok := callerID(w, r)
	if !ok {
		return
	}

	groupID := chi.URLParam(r, "groupID")
	memberID := chi.URLParam(r, "userID")

	// Members may look up each other; UserBalance itself only serves the
	// subject, so route through the full view for third-party lookups.
	if memberID == callerUserID {
		balance, err := h.balanceUC.UserBalance(r.Context(), groupID, callerUserID)
		if err != nil {
			status := mapDomainError(err)
			writeError(w, status, "failed to get balance", err.Error())

			return
		}

		writeJSON(w, http.StatusOK, dto.MemberBalanceFromDomain(balance))

		return
	}

	out, err := h.balanceUC.GroupBalances(r.Context(), groupID, callerUserID)
	if err != nil {
		status := mapDomainError(err)
		writeError(w, status, "failed to get balance", err.Error())

		return
	}

	for i := range out.Summary {
		if out.Summary[i].UserID == memberID {
			writeJSON(w, http.StatusOK, dto.MemberBalanceFromDomain(&out.Summary[i]))
			return
		}
	}

	writeError(w, http.StatusNotFound, "member has no balance", "")
}
