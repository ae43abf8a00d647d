package repository

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/curtWhite/finance-game-server/internal/models"
)

// EnsureBankAccount loads a player's bank account, creating it with the
// given starting balance when none exists.
func (r *Repository) EnsureBankAccount(username string, initialBalance float64) (*models.BankAccount, error) {
	var acct *models.BankAccount
	err := r.guard.do("EnsureBankAccount", func() error {
		found, err := r.findBank(username)
		if err == nil {
			acct = found
			return nil
		}
		if err != sql.ErrNoRows {
			return fmt.Errorf("failed to load bank account: %w", err)
		}
		query := `
			INSERT INTO bank_accounts (username, balance, late_payments, logs, created_at, updated_at)
			VALUES ($1, $2, 0, '[]', NOW(), NOW())
			RETURNING id, created_at, updated_at`
		acct = &models.BankAccount{Username: username, Balance: initialBalance}
		if err := r.db.QueryRow(query, username, initialBalance).
			Scan(&acct.ID, &acct.CreatedAt, &acct.UpdatedAt); err != nil {
			return fmt.Errorf("failed to create bank account for %s: %w", username, err)
		}
		return nil
	})
	return acct, err
}

// FindBankAccount loads a player's bank account. Returns models.ErrNotFound
// when none exists.
func (r *Repository) FindBankAccount(username string) (*models.BankAccount, error) {
	var acct *models.BankAccount
	err := r.guard.do("FindBankAccount", func() error {
		found, err := r.findBank(username)
		if err == sql.ErrNoRows {
			return fmt.Errorf("bank account for %s: %w", username, models.ErrNotFound)
		}
		if err != nil {
			return fmt.Errorf("failed to load bank account: %w", err)
		}
		acct = found
		return nil
	})
	return acct, err
}

// SaveBankAccount persists the account's balance, late-payment counter and
// capped operation log.
func (r *Repository) SaveBankAccount(acct *models.BankAccount) error {
	return r.guard.do("SaveBankAccount", func() error {
		logs, err := json.Marshal(acct.Logs)
		if err != nil {
			return fmt.Errorf("failed to encode bank logs: %w", err)
		}
		query := `
			UPDATE bank_accounts
			SET balance = $2, late_payments = $3, logs = $4, updated_at = NOW()
			WHERE username = $1`
		res, err := r.db.Exec(query, acct.Username, acct.Balance, acct.LatePayments, logs)
		if err != nil {
			return fmt.Errorf("failed to save bank account for %s: %w", acct.Username, err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return fmt.Errorf("bank account for %s: %w", acct.Username, models.ErrNotFound)
		}
		return nil
	})
}

func (r *Repository) findBank(username string) (*models.BankAccount, error) {
	acct := &models.BankAccount{}
	var logs []byte
	query := `
		SELECT id, username, balance, late_payments, logs, created_at, updated_at
		FROM bank_accounts
		WHERE username = $1`
	err := r.db.QueryRow(query, username).
		Scan(&acct.ID, &acct.Username, &acct.Balance, &acct.LatePayments, &logs, &acct.CreatedAt, &acct.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if len(logs) > 0 {
		if err := json.Unmarshal(logs, &acct.Logs); err != nil {
			return nil, fmt.Errorf("failed to decode bank logs: %w", err)
		}
	}
	return acct, nil
}

// LoadGameBank loads the game treasury, seeding it on first use.
func (r *Repository) LoadGameBank(initialBalance float64) (*models.GameBank, error) {
	bank := &models.GameBank{Name: "GAME BANK"}
	err := r.guard.do("LoadGameBank", func() error {
		query := `SELECT balance FROM game_bank WHERE name = $1`
		err := r.db.QueryRow(query, bank.Name).Scan(&bank.Balance)
		if err == sql.ErrNoRows {
			bank.Balance = initialBalance
			_, err = r.db.Exec(`INSERT INTO game_bank (name, balance) VALUES ($1, $2)`, bank.Name, bank.Balance)
		}
		if err != nil {
			return fmt.Errorf("failed to load game bank: %w", err)
		}
		return nil
	})
	return bank, err
}

// SaveGameBank persists the treasury balance.
func (r *Repository) SaveGameBank(bank *models.GameBank) error {
	return r.guard.do("SaveGameBank", func() error {
		_, err := r.db.Exec(`UPDATE game_bank SET balance = $2 WHERE name = $1`, bank.Name, bank.Balance)
		if err != nil {
			return fmt.Errorf("failed to save game bank: %w", err)
		}
		return nil
	})
}
