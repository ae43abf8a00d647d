package repository

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/curtWhite/finance-game-server/internal/models"
)

// InsertLottoTicket stores a freshly purchased ticket.
func (r *Repository) InsertLottoTicket(t *models.LottoTicket) error {
	return r.guard.do("InsertLottoTicket", func() error {
		query := `
			INSERT INTO lotto_tickets (id, username, cost, prize, status, result_at, bought_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7)`
		_, err := r.db.Exec(query, t.ID, t.Username, t.Cost, t.Prize, t.Status, t.ResultAt, t.BoughtAt)
		if err != nil {
			return fmt.Errorf("failed to insert lotto ticket: %w", err)
		}
		return nil
	})
}

// FindLottoTicket loads a ticket by id.
func (r *Repository) FindLottoTicket(id string) (*models.LottoTicket, error) {
	t := &models.LottoTicket{}
	err := r.guard.do("FindLottoTicket", func() error {
		query := `
			SELECT id, username, cost, prize, status, result_at, bought_at
			FROM lotto_tickets
			WHERE id = $1`
		err := r.db.QueryRow(query, id).
			Scan(&t.ID, &t.Username, &t.Cost, &t.Prize, &t.Status, &t.ResultAt, &t.BoughtAt)
		if err == sql.ErrNoRows {
			return fmt.Errorf("lotto ticket %s: %w", id, models.ErrNotFound)
		}
		if err != nil {
			return fmt.Errorf("failed to find lotto ticket: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return t, nil
}

// UpdateLottoTicket persists a ticket's resolved status and prize.
func (r *Repository) UpdateLottoTicket(t *models.LottoTicket) error {
	return r.guard.do("UpdateLottoTicket", func() error {
		query := `UPDATE lotto_tickets SET status = $2, prize = $3 WHERE id = $1`
		res, err := r.db.Exec(query, t.ID, t.Status, t.Prize)
		if err != nil {
			return fmt.Errorf("failed to update lotto ticket: %w", err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return fmt.Errorf("lotto ticket %s: %w", t.ID, models.ErrNotFound)
		}
		return nil
	})
}

// FindDueLottoTickets returns pending tickets whose result time has passed.
// The cron sweep uses this to recover tickets lost to a restart mid-delay.
func (r *Repository) FindDueLottoTickets(now time.Time) ([]*models.LottoTicket, error) {
	var tickets []*models.LottoTicket
	err := r.guard.do("FindDueLottoTickets", func() error {
		query := `
			SELECT id, username, cost, prize, status, result_at, bought_at
			FROM lotto_tickets
			WHERE status = $1 AND result_at <= $2
			ORDER BY result_at`
		rows, err := r.db.Query(query, models.TicketPending, now)
		if err != nil {
			return fmt.Errorf("failed to query due lotto tickets: %w", err)
		}
		defer rows.Close()
		for rows.Next() {
			t := &models.LottoTicket{}
			if err := rows.Scan(&t.ID, &t.Username, &t.Cost, &t.Prize, &t.Status, &t.ResultAt, &t.BoughtAt); err != nil {
				return fmt.Errorf("failed to scan lotto ticket: %w", err)
			}
			tickets = append(tickets, t)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}
	return tickets, nil
}
