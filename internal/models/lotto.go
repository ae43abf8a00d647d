package models

import "time"

// Lottery ticket states.
const (
	TicketPending = "pending"
	TicketWon     = "won"
	TicketLost    = "lost"
)

// LottoTicket represents a purchased lottery ticket. The ticket matures at
// ResultAt; resolution deposits the prize on a win.
type LottoTicket struct {
	ID       string    `json:"id"`
	Username string    `json:"username"`
	Cost     float64   `json:"cost"`
	Prize    float64   `json:"prize"`
	Status   string    `json:"status"`
	ResultAt time.Time `json:"result_at"`
	BoughtAt time.Time `json:"bought_at"`
}

// Due reports whether the ticket is pending and its result time has passed.
func (t *LottoTicket) Due(now time.Time) bool {
	return t.Status == TicketPending && !t.ResultAt.After(now)
}
