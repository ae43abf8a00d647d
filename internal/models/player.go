package models

// Player represents a registered player in the game
type Player struct {
	ID             int64   `json:"id"`
	Username       string  `json:"username"`
	Email          string  `json:"email"`
	PasswordHash   string  `json:"-"` // Not serialized
	Score          float64 `json:"score"`
	Level          int     `json:"level"`
	BalanceSheetID int64   `json:"balancesheet_id,omitempty"`
	CreatedAt      string  `json:"created_at"`
	UpdatedAt      string  `json:"updated_at"`
}
