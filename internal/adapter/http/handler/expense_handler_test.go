package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/iho/splitledger/internal/adapter/http/dto"
	"github.com/iho/splitledger/internal/domain"
	"github.com/iho/splitledger/internal/usecase"
)

func TestExpenseHandler_Create_Success(t *testing.T) {
	env := newHandlerEnv()

	body := `{
		"description": "Dinner",
		"amount": "30.00",
		"currency": "EUR",
		"split_type": "equal",
		"participants": [
			{"user_id": "alice"},
			{"user_id": "bob"},
			{"user_id": "carol"}
		]
	}`

	req := newRequest(http.MethodPost, "/api/v1/groups/grp-1/expenses/", "alice", body, map[string]string{"groupID": "grp-1"})
	rec := httptest.NewRecorder()

	env.expenses.Create(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp dto.ExpenseResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}

	if resp.PaidBy != "alice" {
		t.Errorf("expected paid_by to default to the caller, got %s", resp.PaidBy)
	}

	if !resp.Amount.Amount.Equal(decimal.RequireFromString("30.00")) {
		t.Errorf("expected amount 30.00, got %s", resp.Amount.Amount)
	}

	if len(resp.Shares) != 3 {
		t.Fatalf("expected 3 shares, got %d", len(resp.Shares))
	}

	// Balances must already reflect the new expense.
	balances, err := env.balanceRepo.ListByGroup(context.Background(), "grp-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(balances) != 2 {
		t.Fatalf("expected 2 balance rows after creation, got %d", len(balances))
	}
}

func TestExpenseHandler_Create_InvalidBody(t *testing.T) {
	env := newHandlerEnv()

	req := newRequest(http.MethodPost, "/api/v1/groups/grp-1/expenses/", "alice", `{not json`, map[string]string{"groupID": "grp-1"})
	rec := httptest.NewRecorder()

	env.expenses.Create(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestExpenseHandler_Create_CurrencyMismatch(t *testing.T) {
	env := newHandlerEnv()

	body := `{
		"description": "Dinner",
		"amount": "30.00",
		"currency": "USD",
		"split_type": "equal",
		"participants": [{"user_id": "alice"}, {"user_id": "bob"}]
	}`

	req := newRequest(http.MethodPost, "/api/v1/groups/grp-1/expenses/", "alice", body, map[string]string{"groupID": "grp-1"})
	rec := httptest.NewRecorder()

	env.expenses.Create(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for a currency mismatch, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestExpenseHandler_Create_NonMemberCaller(t *testing.T) {
	env := newHandlerEnv()

	body := `{
		"description": "Dinner",
		"amount": "30.00",
		"currency": "EUR",
		"split_type": "equal",
		"participants": [{"user_id": "alice"}, {"user_id": "bob"}]
	}`

	req := newRequest(http.MethodPost, "/api/v1/groups/grp-1/expenses/", "mallory", body, map[string]string{"groupID": "grp-1"})
	rec := httptest.NewRecorder()

	env.expenses.Create(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for a non-member, got %d", rec.Code)
	}
}

func TestExpenseHandler_Get(t *testing.T) {
	env := newHandlerEnv()
	out := createExpense(t, env, "alice", "12.00")

	req := newRequest(http.MethodGet, "/api/v1/groups/grp-1/expenses/"+out.Expense.ID, "bob", "", map[string]string{
		"groupID":   "grp-1",
		"expenseID": out.Expense.ID,
	})
	rec := httptest.NewRecorder()

	env.expenses.Get(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp dto.ExpenseResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}

	if resp.ID != out.Expense.ID {
		t.Errorf("expected expense %s, got %s", out.Expense.ID, resp.ID)
	}
}

func TestExpenseHandler_Get_NotFound(t *testing.T) {
	env := newHandlerEnv()

	req := newRequest(http.MethodGet, "/api/v1/groups/grp-1/expenses/nope", "bob", "", map[string]string{
		"groupID":   "grp-1",
		"expenseID": "nope",
	})
	rec := httptest.NewRecorder()

	env.expenses.Get(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestExpenseHandler_List_FiltersByCategory(t *testing.T) {
	env := newHandlerEnv()
	createExpenseWithCategory(t, env, "alice", "12.00", "food")
	createExpenseWithCategory(t, env, "alice", "40.00", "travel")

	req := newRequest(http.MethodGet, "/api/v1/groups/grp-1/expenses/?category=food", "bob", "", map[string]string{"groupID": "grp-1"})
	rec := httptest.NewRecorder()

	env.expenses.List(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp []*dto.ExpenseResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}

	if len(resp) != 1 {
		t.Fatalf("expected 1 expense, got %d", len(resp))
	}

	if resp[0].Category != "food" {
		t.Errorf("expected category food, got %s", resp[0].Category)
	}
}

func TestExpenseHandler_Update_StrangerForbidden(t *testing.T) {
	env := newHandlerEnv()
	out := createExpense(t, env, "bob", "12.00")

	body := `{"description": "Hijacked"}`
	req := newRequest(http.MethodPatch, "/api/v1/groups/grp-1/expenses/"+out.Expense.ID, "carol", body, map[string]string{
		"groupID":   "grp-1",
		"expenseID": out.Expense.ID,
	})
	rec := httptest.NewRecorder()

	env.expenses.Update(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestExpenseHandler_Update_Description(t *testing.T) {
	env := newHandlerEnv()
	out := createExpense(t, env, "bob", "12.00")

	body := `{"description": "Brunch, actually"}`
	req := newRequest(http.MethodPatch, "/api/v1/groups/grp-1/expenses/"+out.Expense.ID, "bob", body, map[string]string{
		"groupID":   "grp-1",
		"expenseID": out.Expense.ID,
	})
	rec := httptest.NewRecorder()

	env.expenses.Update(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp dto.ExpenseResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}

	if resp.Description != "Brunch, actually" {
		t.Errorf("expected updated description, got %q", resp.Description)
	}
}

func TestExpenseHandler_Delete(t *testing.T) {
	env := newHandlerEnv()
	out := createExpense(t, env, "alice", "12.00")

	req := newRequest(http.MethodDelete, "/api/v1/groups/grp-1/expenses/"+out.Expense.ID, "alice", "", map[string]string{
		"groupID":   "grp-1",
		"expenseID": out.Expense.ID,
	})
	rec := httptest.NewRecorder()

	env.expenses.Delete(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d: %s", rec.Code, rec.Body.String())
	}

	balances, err := env.balanceRepo.ListByGroup(context.Background(), "grp-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(balances) != 0 {
		t.Fatalf("expected balances cleared after deletion, got %d rows", len(balances))
	}
}

func TestExpenseHandler_UserSummary(t *testing.T) {
	env := newHandlerEnv()
	createExpense(t, env, "alice", "30.00")

	req := newRequest(http.MethodGet, "/api/v1/groups/grp-1/members/alice/summary", "bob", "", map[string]string{
		"groupID": "grp-1",
		"userID":  "alice",
	})
	rec := httptest.NewRecorder()

	env.expenses.UserSummary(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
}

func createExpense(t *testing.T, env *handlerEnv, paidBy, amount string) *usecase.ExpenseOutput {
	t.Helper()
	return createExpenseWithCategory(t, env, paidBy, amount, "")
}

func createExpenseWithCategory(t *testing.T, env *handlerEnv, paidBy, amount, category string) *usecase.ExpenseOutput {
	t.Helper()

	money, err := domain.MoneyFromDecimal(decimal.RequireFromString(amount), "EUR")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	out, err := env.expenseUC.Create(context.Background(), usecase.CreateExpenseInput{
		GroupID:     "grp-1",
		CallerID:    paidBy,
		PaidBy:      paidBy,
		Description: "Shared expense",
		Category:    category,
		Amount:      money,
		SplitType:   domain.SplitEqual,
		Participants: []domain.SplitParticipant{
			{UserID: "alice"},
			{UserID: "bob"},
			{UserID: "carol"},
		},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	return out
}
