package service

import (
	"context"
	"errors"

	"github.com/curtWhite/finance-game-server/internal/ledger"
	"github.com/curtWhite/finance-game-server/internal/models"
	"github.com/curtWhite/finance-game-server/internal/worker"
)

// withSheet loads a player's balance sheet, applies fn and persists the
// result against a live read of the bank balance. A player without a stored
// sheet gets a fresh empty one.
func (s *Service) withSheet(username string, fn func(*ledger.BalanceSheet) error) (ledger.Document, error) {
	acct, err := s.repo.FindBankAccount(username)
	if err != nil {
		return ledger.Document{}, err
	}

	bs, err := s.repo.LoadBalanceSheet(username)
	if err != nil {
		if !isNotFound(err) {
			return ledger.Document{}, err
		}
		bs = ledger.New(username, s.log)
	}

	if err := fn(bs); err != nil {
		return ledger.Document{}, err
	}

	if err := s.repo.SaveBalanceSheet(bs, acct.Balance); err != nil {
		return ledger.Document{}, err
	}
	return bs.Document(acct.Balance, ""), nil
}

func isNotFound(err error) bool {
	return errors.Is(err, models.ErrNotFound)
}

// GetBalanceSheet returns the current balance sheet document without
// writing anything back.
func (s *Service) GetBalanceSheet(username string) (ledger.Document, error) {
	acct, err := s.repo.FindBankAccount(username)
	if err != nil {
		return ledger.Document{}, err
	}
	bs, err := s.repo.LoadBalanceSheet(username)
	if err != nil {
		if !isNotFound(err) {
			return ledger.Document{}, err
		}
		bs = ledger.New(username, s.log)
	}
	return bs.Document(acct.Balance, ""), nil
}

// AddAsset upserts an asset on a player's sheet.
func (s *Service) AddAsset(username, name string, income, value float64) (ledger.Document, error) {
	if name == "" {
		return ledger.Document{}, models.Invalid("asset name is required")
	}
	return s.withSheet(username, func(bs *ledger.BalanceSheet) error {
		bs.AddAsset(name, income, value)
		return nil
	})
}

// RemoveAsset removes or decrements an asset.
func (s *Service) RemoveAsset(username, name string, amount *float64) (ledger.Document, error) {
	return s.withSheet(username, func(bs *ledger.BalanceSheet) error {
		bs.RemoveAsset(name, amount)
		return nil
	})
}

// AddLiability upserts a liability and its paired expense.
func (s *Service) AddLiability(username string, l ledger.Liability) (ledger.Document, error) {
	if l.Name == "" {
		return ledger.Document{}, models.Invalid("liability name is required")
	}
	return s.withSheet(username, func(bs *ledger.BalanceSheet) error {
		return bs.AddLiability(l)
	})
}

// RemoveLiability removes or decrements a liability. The paired expense line
// is intentionally left for the wholesale update path to clean up.
func (s *Service) RemoveLiability(username, name string, loanAmount *float64) (ledger.Document, error) {
	return s.withSheet(username, func(bs *ledger.BalanceSheet) error {
		bs.RemoveLiability(name, loanAmount)
		return nil
	})
}

// AddIncome upserts an income line.
func (s *Service) AddIncome(username, name string, amount float64) (ledger.Document, error) {
	if name == "" {
		return ledger.Document{}, models.Invalid("income name is required")
	}
	return s.withSheet(username, func(bs *ledger.BalanceSheet) error {
		bs.AddIncome(name, amount)
		return nil
	})
}

// RemoveIncome removes or decrements an income line.
func (s *Service) RemoveIncome(username, name string, amount *float64) (ledger.Document, error) {
	return s.withSheet(username, func(bs *ledger.BalanceSheet) error {
		bs.RemoveIncome(name, amount)
		return nil
	})
}

// AddExpense upserts an expense line.
func (s *Service) AddExpense(username, name string, amount float64) (ledger.Document, error) {
	if name == "" {
		return ledger.Document{}, models.Invalid("expense name is required")
	}
	return s.withSheet(username, func(bs *ledger.BalanceSheet) error {
		bs.AddExpense(name, amount)
		return nil
	})
}

// RemoveExpense removes or decrements an expense line.
func (s *Service) RemoveExpense(username, name string, amount *float64) (ledger.Document, error) {
	return s.withSheet(username, func(bs *ledger.BalanceSheet) error {
		bs.RemoveExpense(name, amount)
		return nil
	})
}

// UpdateLiabilities applies a wholesale liability update in the background.
// The handler acknowledges immediately; completion is pushed to the player's
// room as liabilities_offset_complete.
func (s *Service) UpdateLiabilities(username string, updates []ledger.Liability) (*worker.Handle, error) {
	return s.pool.Submit("update-liabilities", func(ctx context.Context) error {
		doc, err := s.withSheet(username, func(bs *ledger.BalanceSheet) error {
			return bs.ApplyLiabilityUpdates(updates)
		})
		if err != nil {
			s.notify.Emit("liabilities_offset_complete", map[string]interface{}{
				"username": username,
				"error":    err.Error(),
				"success":  false,
				"message":  "Failed to update liabilities",
			}, username)
			return err
		}
		s.notify.Emit("liabilities_offset_complete", map[string]interface{}{
			"username": username,
			"message":  "Liabilities updated successfully",
			"payload":  map[string]interface{}{"balancesheet": doc},
		}, username)
		return nil
	})
}

// UpdateAssets merges asset updates in the background and pushes
// assets_update_complete to the player's room.
func (s *Service) UpdateAssets(username string, updates []ledger.Asset) (*worker.Handle, error) {
	return s.pool.Submit("update-assets", func(ctx context.Context) error {
		doc, err := s.withSheet(username, func(bs *ledger.BalanceSheet) error {
			bs.ApplyAssetUpdates(updates)
			return nil
		})
		if err != nil {
			s.notify.Emit("assets_update_complete", map[string]interface{}{
				"username": username,
				"error":    err.Error(),
				"success":  false,
				"message":  "Failed to update assets",
			}, username)
			return err
		}
		s.notify.Emit("assets_update_complete", map[string]interface{}{
			"username": username,
			"message":  "Assets updated successfully",
			"payload":  map[string]interface{}{"balancesheet": doc},
		}, username)
		return nil
	})
}
