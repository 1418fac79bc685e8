package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/iho/splitledger/internal/adapter/http/dto"
	"github.com/iho/splitledger/internal/usecase"
)

// SettlementHandler handles settlement-related HTTP requests.
type SettlementHandler struct {
	settlementUC *usecase.SettlementUseCase
}

// NewSettlementHandler creates a new SettlementHandler.
func NewSettlementHandler(settlementUC *usecase.SettlementUseCase) *SettlementHandler {
	return &SettlementHandler{settlementUC: settlementUC}
}

// Create records a payment between two members.
func (h *SettlementHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := callerID(w, r)
	if !ok {
		return
	}

	groupID := chi.URLParam(r, "groupID")

	var req dto.CreateSettlementRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	input, err := req.ToUseCaseInput(groupID, userID)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid settlement", err.Error())
		return
	}

	settlement, err := h.settlementUC.Settle(r.Context(), input)
	if err != nil {
		status := mapDomainError(err)
		writeError(w, status, "failed to record settlement", err.Error())

		return
	}

	writeJSON(w, http.StatusCreated, dto.SettlementFromDomain(settlement))
}

// SettleShares marks individual shares of an expense as settled.
func (h *SettlementHandler) SettleShares(w http.ResponseWriter, r *http.Request) {
	userID, ok := callerID(w, r)
	if !ok {
		return
	}

	groupID := chi.URLParam(r, "groupID")
	expenseID := chi.URLParam(r, "expenseID")

	var req dto.SettleSharesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	input := req.ToUseCaseInput(groupID, expenseID, userID)

	if err := h.settlementUC.SettleShares(r.Context(), input); err != nil {
		status := mapDomainError(err)
		writeError(w, status, "failed to settle shares", err.Error())

		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "settled"})
}

// ListByGroup returns a group's settlement history, newest first.
func (h *SettlementHandler) ListByGroup(w http.ResponseWriter, r *http.Request) {
	userID, ok := callerID(w, r)
	if !ok {
		return
	}

	groupID := chi.URLParam(r, "groupID")

	settlements, err := h.settlementUC.ListGroupSettlements(r.Context(), groupID, userID)
	if err != nil {
		status := mapDomainError(err)
		writeError(w, status, "failed to list settlements", err.Error())

		return
	}

	writeJSON(w, http.StatusOK, dto.SettlementsFromDomain(settlements))
}

// ListByUser returns one member's settlements split by direction.
func (h *SettlementHandler) ListByUser(w http.ResponseWriter, r *http.Request) {
	callerUserID, ok := callerID(w, r)
	if !ok {
		return
	}

	groupID := chi.URLParam(r, "groupID")
	memberID := chi.URLParam(r, "userID")

	out, err := h.settlementUC.ListUserSettlements(r.Context(), groupID, memberID, callerUserID)
	if err != nil {
		status := mapDomainError(err)
		writeError(w, status, "failed to list settlements", err.Error())

		return
	}

	writeJSON(w, http.StatusOK, dto.UserSettlementsResponse{
		Sent:     dto.SettlementsFromDomain(out.Sent),
		Received: dto.SettlementsFromDomain(out.Received),
	})
}
