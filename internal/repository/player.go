package repository

import (
	"database/sql"
	"fmt"

	"github.com/curtWhite/finance-game-server/internal/models"
)

// CreatePlayer creates a new player in the database
func (r *Repository) CreatePlayer(player *models.Player) error {
	return r.guard.do("CreatePlayer", func() error {
		query := `
			INSERT INTO players (username, email, password_hash, score, level, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)
			RETURNING id, created_at, updated_at`
		err := r.db.QueryRow(query, player.Username, player.Email, player.PasswordHash, player.Score, player.Level).
			Scan(&player.ID, &player.CreatedAt, &player.UpdatedAt)
		if err != nil {
			return fmt.Errorf("failed to create player: %w", err)
		}
		return nil
	})
}

// FindPlayerByUsername retrieves a player by username
func (r *Repository) FindPlayerByUsername(username string) (*models.Player, error) {
	player := &models.Player{}
	err := r.guard.do("FindPlayerByUsername", func() error {
		query := `
			SELECT id, username, email, password_hash, score, level, created_at, updated_at
			FROM players
			WHERE username = $1`
		err := r.db.QueryRow(query, username).
			Scan(&player.ID, &player.Username, &player.Email, &player.PasswordHash,
				&player.Score, &player.Level, &player.CreatedAt, &player.UpdatedAt)
		if err == sql.ErrNoRows {
			return fmt.Errorf("player %s: %w", username, models.ErrNotFound)
		}
		if err != nil {
			return fmt.Errorf("failed to find player: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return player, nil
}

// ListPlayers returns all registered players, used by the reminder sweep.
func (r *Repository) ListPlayers() ([]*models.Player, error) {
	var players []*models.Player
	err := r.guard.do("ListPlayers", func() error {
		query := `
			SELECT id, username, email, password_hash, score, level, created_at, updated_at
			FROM players
			ORDER BY username`
		rows, err := r.db.Query(query)
		if err != nil {
			return fmt.Errorf("failed to list players: %w", err)
		}
		defer rows.Close()
		for rows.Next() {
			p := &models.Player{}
			if err := rows.Scan(&p.ID, &p.Username, &p.Email, &p.PasswordHash,
				&p.Score, &p.Level, &p.CreatedAt, &p.UpdatedAt); err != nil {
				return fmt.Errorf("failed to scan player: %w", err)
			}
			players = append(players, p)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}
	return players, nil
}

// SavePlayer persists mutable player fields.
func (r *Repository) SavePlayer(player *models.Player) error {
	return r.guard.do("SavePlayer", func() error {
		query := `
			UPDATE players
			SET email = $2, score = $3, level = $4, updated_at = CURRENT_TIMESTAMP
			WHERE username = $1`
		res, err := r.db.Exec(query, player.Username, player.Email, player.Score, player.Level)
		if err != nil {
			return fmt.Errorf("failed to save player %s: %w", player.Username, err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return fmt.Errorf("player %s: %w", player.Username, models.ErrNotFound)
		}
		return nil
	})
}
