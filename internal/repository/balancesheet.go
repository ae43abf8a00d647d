package repository

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/curtWhite/finance-game-server/internal/ledger"
	"github.com/curtWhite/finance-game-server/internal/models"
)

// storedSheet is one balancesheets row.
type storedSheet struct {
	id          int64
	username    string
	assets      []byte
	liabilities []byte
	income      []byte
	expenses    []byte
	prev        string
}

func (s *storedSheet) document() (ledger.Document, error) {
	var d ledger.Document
	for _, part := range []struct {
		raw []byte
		dst any
	}{
		{s.assets, &d.Assets},
		{s.liabilities, &d.Liabilities},
		{s.income, &d.Income},
		{s.expenses, &d.Expenses},
	} {
		if len(part.raw) == 0 {
			continue
		}
		if err := json.Unmarshal(part.raw, part.dst); err != nil {
			return d, fmt.Errorf("failed to decode balance sheet column: %w", err)
		}
	}
	// Derived totals are never persisted; recompute from the lists.
	sheet := d.Sheet(s.username)
	d.Cashflow = sheet.Cashflow()
	d.Prev = s.prev
	return d, nil
}

// snapshotPolicy decides the prev_balancesheet value embedded by a save.
// A sheet saved for the first time snapshots itself; after that the stored
// document is captured only when its cashflow differs from the one being
// written. The snapshot carries neither the storage id nor its own previous
// pointer, so the history is bounded to one level.
func snapshotPolicy(current ledger.Document, stored *ledger.Document, storedPrev string) (string, error) {
	var src ledger.Document
	switch {
	case stored == nil:
		src = current
	case stored.Cashflow != current.Cashflow:
		src = *stored
	default:
		return storedPrev, nil
	}
	src.ID = ""
	src.Prev = ""
	raw, err := json.Marshal(src)
	if err != nil {
		return "", fmt.Errorf("failed to serialize previous balance sheet: %w", err)
	}
	return string(raw), nil
}

// SaveBalanceSheet upserts a player's balance sheet keyed by username,
// applying the change-triggered snapshot policy, and assigns the storage id
// on first insert. bankBalance must be a live read of the player's bank.
func (r *Repository) SaveBalanceSheet(bs *ledger.BalanceSheet, bankBalance float64) error {
	return r.guard.do("SaveBalanceSheet", func() error {
		stored, err := r.findSheet("username = $1", bs.Username)
		if err != nil && err != sql.ErrNoRows {
			return fmt.Errorf("failed to read stored balance sheet: %w", err)
		}

		current := bs.Document(bankBalance, "")
		var storedDoc *ledger.Document
		var storedPrev string
		if err == nil {
			doc, derr := stored.document()
			if derr != nil {
				return derr
			}
			storedDoc = &doc
			storedPrev = stored.prev
		}

		prev, err := snapshotPolicy(current, storedDoc, storedPrev)
		if err != nil {
			return err
		}

		assets, err := json.Marshal(current.Assets)
		if err != nil {
			return fmt.Errorf("failed to encode assets: %w", err)
		}
		liabilities, err := json.Marshal(current.Liabilities)
		if err != nil {
			return fmt.Errorf("failed to encode liabilities: %w", err)
		}
		income, err := json.Marshal(current.Income)
		if err != nil {
			return fmt.Errorf("failed to encode income: %w", err)
		}
		expenses, err := json.Marshal(current.Expenses)
		if err != nil {
			return fmt.Errorf("failed to encode expenses: %w", err)
		}

		query := `
			INSERT INTO balancesheets (username, assets, liabilities, income, expenses, prev_balancesheet, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, NOW(), NOW())
			ON CONFLICT (username) DO UPDATE SET
				assets = EXCLUDED.assets,
				liabilities = EXCLUDED.liabilities,
				income = EXCLUDED.income,
				expenses = EXCLUDED.expenses,
				prev_balancesheet = EXCLUDED.prev_balancesheet,
				updated_at = NOW()
			RETURNING id`
		var id int64
		if err := r.db.QueryRow(query, bs.Username, assets, liabilities, income, expenses, prev).Scan(&id); err != nil {
			return fmt.Errorf("failed to save balance sheet for %s: %w", bs.Username, err)
		}
		bs.ID = id
		return nil
	})
}

// LoadBalanceSheet loads a player's balance sheet by username. Returns
// models.ErrNotFound when no row exists.
func (r *Repository) LoadBalanceSheet(username string) (*ledger.BalanceSheet, error) {
	return r.loadSheet("username = $1", username)
}

// LoadBalanceSheetByID loads a balance sheet by its storage id.
func (r *Repository) LoadBalanceSheetByID(id int64) (*ledger.BalanceSheet, error) {
	return r.loadSheet("id = $1", id)
}

func (r *Repository) loadSheet(where string, arg any) (*ledger.BalanceSheet, error) {
	var bs *ledger.BalanceSheet
	err := r.guard.do("LoadBalanceSheet", func() error {
		stored, err := r.findSheet(where, arg)
		if err == sql.ErrNoRows {
			return fmt.Errorf("balance sheet: %w", models.ErrNotFound)
		}
		if err != nil {
			return fmt.Errorf("failed to load balance sheet: %w", err)
		}
		doc, err := stored.document()
		if err != nil {
			return err
		}
		bs = doc.Sheet(stored.username)
		bs.ID = stored.id
		bs.AttachLogger(r.log)
		return nil
	})
	return bs, err
}

// PrevSnapshot returns the embedded previous balance sheet document for a
// player, with ok reporting whether one exists.
func (r *Repository) PrevSnapshot(username string) (ledger.Document, bool, error) {
	var doc ledger.Document
	var ok bool
	err := r.guard.do("PrevSnapshot", func() error {
		stored, err := r.findSheet("username = $1", username)
		if err == sql.ErrNoRows {
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to load previous balance sheet: %w", err)
		}
		if stored.prev == "" {
			return nil
		}
		if err := json.Unmarshal([]byte(stored.prev), &doc); err != nil {
			return fmt.Errorf("failed to decode previous balance sheet: %w", err)
		}
		ok = true
		return nil
	})
	return doc, ok, err
}

func (r *Repository) findSheet(where string, arg any) (*storedSheet, error) {
	s := &storedSheet{}
	query := `
		SELECT id, username, assets, liabilities, income, expenses, prev_balancesheet
		FROM balancesheets
		WHERE ` + where
	err := r.db.QueryRow(query, arg).
		Scan(&s.id, &s.username, &s.assets, &s.liabilities, &s.income, &s.expenses, &s.prev)
	if err != nil {
		return nil, err
	}
	return s, nil
}
