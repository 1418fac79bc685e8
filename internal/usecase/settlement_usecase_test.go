package usecase_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/iho/splitledger/internal/domain"
	"github.com/iho/splitledger/internal/usecase"
)

func TestSettlementUseCase_Settle(t *testing.T) {
	// Every case starts from bob owing alice 1000.
	settle := func(t *testing.T, env *testEnv, input usecase.SettleInput) (*domain.Settlement, error) {
		t.Helper()
		return env.settlements.Settle(context.Background(), input)
	}

	newDebtEnv := func(t *testing.T) *testEnv {
		t.Helper()
		env := newTestEnv()
		env.addExpense(t, "alice", eur(2000), "alice", "bob")
		return env
	}

	t.Run("full payment removes the balance", func(t *testing.T) {
		env := newDebtEnv(t)

		s, err := settle(t, env, usecase.SettleInput{
			GroupID: "grp-1", CallerID: "bob", FromUserID: "bob", ToUserID: "alice", Amount: eur(1000),
		})
		if err != nil {
			t.Fatalf("settle: %v", err)
		}
		if s.ID == "" {
			t.Error("settlement has no ID")
		}

		if got := env.groupBalances(t); len(got) != 0 {
			t.Errorf("expected no balances, got %v", got)
		}
	})

	t.Run("partial payment decrements", func(t *testing.T) {
		env := newDebtEnv(t)

		if _, err := settle(t, env, usecase.SettleInput{
			GroupID: "grp-1", CallerID: "bob", FromUserID: "bob", ToUserID: "alice", Amount: eur(400),
		}); err != nil {
			t.Fatalf("settle: %v", err)
		}

		got := env.groupBalances(t)
		if got["bob->alice"] != 600 {
			t.Errorf("balance = %v, want bob->alice 600", got)
		}
	})

	t.Run("overpayment clamps to zero", func(t *testing.T) {
		env := newDebtEnv(t)

		if _, err := settle(t, env, usecase.SettleInput{
			GroupID: "grp-1", CallerID: "bob", FromUserID: "bob", ToUserID: "alice", Amount: eur(5000),
		}); err != nil {
			t.Fatalf("settle: %v", err)
		}

		if got := env.groupBalances(t); len(got) != 0 {
			t.Errorf("expected no balances after overpayment, got %v", got)
		}
	})

	t.Run("pay-ahead keeps audit record only", func(t *testing.T) {
		env := newDebtEnv(t)

		// carol owes nothing to bob; the payment is recorded anyway.
		if _, err := settle(t, env, usecase.SettleInput{
			GroupID: "grp-1", CallerID: "carol", FromUserID: "carol", ToUserID: "bob", Amount: eur(300),
		}); err != nil {
			t.Fatalf("settle: %v", err)
		}

		got := env.groupBalances(t)
		if got["bob->alice"] != 1000 {
			t.Errorf("existing balance disturbed: %v", got)
		}

		history, err := env.settlements.ListGroupSettlements(context.Background(), "grp-1", "alice")
		if err != nil {
			t.Fatalf("list settlements: %v", err)
		}
		if len(history) != 1 {
			t.Errorf("expected 1 settlement, got %d", len(history))
		}
	})

	t.Run("recipient may record the payment", func(t *testing.T) {
		env := newDebtEnv(t)

		if _, err := settle(t, env, usecase.SettleInput{
			GroupID: "grp-1", CallerID: "alice", FromUserID: "bob", ToUserID: "alice", Amount: eur(1000),
		}); err != nil {
			t.Fatalf("settle as recipient: %v", err)
		}
	})

	t.Run("third party rejected", func(t *testing.T) {
		env := newDebtEnv(t)

		_, err := settle(t, env, usecase.SettleInput{
			GroupID: "grp-1", CallerID: "carol", FromUserID: "bob", ToUserID: "alice", Amount: eur(1000),
		})
		if !errors.Is(err, domain.ErrForbidden) {
			t.Errorf("expected ErrForbidden, got %v", err)
		}
	})

	t.Run("self settlement rejected", func(t *testing.T) {
		env := newDebtEnv(t)

		_, err := settle(t, env, usecase.SettleInput{
			GroupID: "grp-1", CallerID: "bob", FromUserID: "bob", ToUserID: "bob", Amount: eur(1000),
		})
		if !errors.Is(err, domain.ErrSelfSettlement) {
			t.Errorf("expected ErrSelfSettlement, got %v", err)
		}
	})

	t.Run("non-member counterparty rejected", func(t *testing.T) {
		env := newDebtEnv(t)

		_, err := settle(t, env, usecase.SettleInput{
			GroupID: "grp-1", CallerID: "bob", FromUserID: "bob", ToUserID: "mallory", Amount: eur(1000),
		})
		if !errors.Is(err, domain.ErrNotAMember) {
			t.Errorf("expected ErrNotAMember, got %v", err)
		}
	})

	t.Run("currency must match group", func(t *testing.T) {
		env := newDebtEnv(t)

		_, err := settle(t, env, usecase.SettleInput{
			GroupID: "grp-1", CallerID: "bob", FromUserID: "bob", ToUserID: "alice", Amount: domain.NewMoney(1000, "USD"),
		})
		if !errors.Is(err, domain.ErrCurrencyMismatch) {
			t.Errorf("expected ErrCurrencyMismatch, got %v", err)
		}
	})

	t.Run("zero amount rejected", func(t *testing.T) {
		env := newDebtEnv(t)

		_, err := settle(t, env, usecase.SettleInput{
			GroupID: "grp-1", CallerID: "bob", FromUserID: "bob", ToUserID: "alice", Amount: eur(0),
		})
		if !errors.Is(err, domain.ErrInvalidAmount) {
			t.Errorf("expected ErrInvalidAmount, got %v", err)
		}
	})

	t.Run("oversized notes rejected", func(t *testing.T) {
		env := newDebtEnv(t)

		_, err := settle(t, env, usecase.SettleInput{
			GroupID: "grp-1", CallerID: "bob", FromUserID: "bob", ToUserID: "alice", Amount: eur(1000),
			Notes: strings.Repeat("x", domain.MaxNotesLength+1),
		})
		if !errors.Is(err, domain.ErrNotesTooLong) {
			t.Errorf("expected ErrNotesTooLong, got %v", err)
		}
	})

	t.Run("reverse debt is left for netting", func(t *testing.T) {
		env := newDebtEnv(t)

		// alice pays bob while bob still owes alice; there is no
		// alice->bob row to decrement, so only the audit record lands.
		if _, err := settle(t, env, usecase.SettleInput{
			GroupID: "grp-1", CallerID: "alice", FromUserID: "alice", ToUserID: "bob", Amount: eur(200),
		}); err != nil {
			t.Fatalf("settle: %v", err)
		}

		got := env.groupBalances(t)
		if got["bob->alice"] != 1000 {
			t.Errorf("bob->alice = %v, want 1000", got)
		}
	})
}

func TestSettlementUseCase_SettleShares(t *testing.T) {
	t.Run("settling all shares clears balances", func(t *testing.T) {
		env := newTestEnv()
		out := env.addExpense(t, "alice", eur(3000), "alice", "bob", "carol")

		var ids []string
		for _, s := range out.Shares {
			if !s.IsSettled {
				ids = append(ids, s.ID)
			}
		}

		err := env.settlements.SettleShares(context.Background(), usecase.SettleSharesInput{
			GroupID: "grp-1", ExpenseID: out.Expense.ID, CallerID: "alice", ShareIDs: ids,
		})
		if err != nil {
			t.Fatalf("settle shares: %v", err)
		}

		if got := env.groupBalances(t); len(got) != 0 {
			t.Errorf("expected no balances, got %v", got)
		}
	})

	t.Run("settling one share rebalances the rest", func(t *testing.T) {
		env := newTestEnv()
		out := env.addExpense(t, "alice", eur(3000), "alice", "bob", "carol")

		var bobShare string
		for _, s := range out.Shares {
			if s.UserID == "bob" {
				bobShare = s.ID
			}
		}

		err := env.settlements.SettleShares(context.Background(), usecase.SettleSharesInput{
			GroupID: "grp-1", ExpenseID: out.Expense.ID, CallerID: "bob", ShareIDs: []string{bobShare},
		})
		if err != nil {
			t.Fatalf("settle share: %v", err)
		}

		got := env.groupBalances(t)
		if len(got) != 1 || got["carol->alice"] != 1000 {
			t.Errorf("balances = %v, want only carol->alice 1000", got)
		}
	})

	t.Run("already settled rejected", func(t *testing.T) {
		env := newTestEnv()
		out := env.addExpense(t, "alice", eur(3000), "alice", "bob", "carol")

		var aliceShare string
		for _, s := range out.Shares {
			if s.UserID == "alice" {
				aliceShare = s.ID
			}
		}

		err := env.settlements.SettleShares(context.Background(), usecase.SettleSharesInput{
			GroupID: "grp-1", ExpenseID: out.Expense.ID, CallerID: "alice", ShareIDs: []string{aliceShare},
		})
		if !errors.Is(err, domain.ErrAlreadySettled) {
			t.Errorf("expected ErrAlreadySettled, got %v", err)
		}
	})

	t.Run("foreign share rejected", func(t *testing.T) {
		env := newTestEnv()
		first := env.addExpense(t, "alice", eur(3000), "alice", "bob", "carol")
		second := env.addExpense(t, "bob", eur(1000), "bob", "carol")

		var foreign string
		for _, s := range second.Shares {
			if s.UserID == "carol" {
				foreign = s.ID
			}
		}

		err := env.settlements.SettleShares(context.Background(), usecase.SettleSharesInput{
			GroupID: "grp-1", ExpenseID: first.Expense.ID, CallerID: "carol", ShareIDs: []string{foreign},
		})
		if !errors.Is(err, domain.ErrShareNotFound) {
			t.Errorf("expected ErrShareNotFound, got %v", err)
		}
	})

	t.Run("empty id list rejected", func(t *testing.T) {
		env := newTestEnv()
		out := env.addExpense(t, "alice", eur(3000), "alice", "bob")

		err := env.settlements.SettleShares(context.Background(), usecase.SettleSharesInput{
			GroupID: "grp-1", ExpenseID: out.Expense.ID, CallerID: "alice",
		})
		if !errors.Is(err, domain.ErrShareNotFound) {
			t.Errorf("expected ErrShareNotFound, got %v", err)
		}
	})

	t.Run("unknown expense rejected", func(t *testing.T) {
		env := newTestEnv()

		err := env.settlements.SettleShares(context.Background(), usecase.SettleSharesInput{
			GroupID: "grp-1", ExpenseID: "exp-missing", CallerID: "alice", ShareIDs: []string{"sh-1"},
		})
		if !errors.Is(err, domain.ErrExpenseNotFound) {
			t.Errorf("expected ErrExpenseNotFound, got %v", err)
		}
	})
}

func TestSettlementUseCase_ListUserSettlements(t *testing.T) {
	env := newTestEnv()
	env.addExpense(t, "alice", eur(2000), "alice", "bob")

	if _, err := env.settlements.Settle(context.Background(), usecase.SettleInput{
		GroupID: "grp-1", CallerID: "bob", FromUserID: "bob", ToUserID: "alice", Amount: eur(600),
	}); err != nil {
		t.Fatalf("first settle: %v", err)
	}

	if _, err := env.settlements.Settle(context.Background(), usecase.SettleInput{
		GroupID: "grp-1", CallerID: "alice", FromUserID: "alice", ToUserID: "bob", Amount: eur(100),
	}); err != nil {
		t.Fatalf("second settle: %v", err)
	}

	out, err := env.settlements.ListUserSettlements(context.Background(), "grp-1", "bob", "bob")
	if err != nil {
		t.Fatalf("list: %v", err)
	}

	if len(out.Sent) != 1 || out.Sent[0].Amount.Units != 600 {
		t.Errorf("sent = %+v, want one 600 payment", out.Sent)
	}
	if len(out.Received) != 1 || out.Received[0].Amount.Units != 100 {
		t.Errorf("received = %+v, want one 100 payment", out.Received)
	}

	if _, err := env.settlements.ListUserSettlements(context.Background(), "grp-1", "bob", "mallory"); !errors.Is(err, domain.ErrNotAMember) {
		t.Errorf("expected ErrNotAMember, got %v", err)
	}
}
