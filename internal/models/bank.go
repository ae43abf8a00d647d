package models

import "time"

// maxBankLogEntries caps the retained operation log per account.
const maxBankLogEntries = 20

// BankAccount represents a player's bank account. The late-payments counter
// feeds the credit scoring model; it moves only on payment events explicitly
// marked late or on-time.
type BankAccount struct {
	ID           int64          `json:"id"`
	Username     string         `json:"customer"`
	Balance      float64        `json:"balance"`
	LatePayments int            `json:"late_payments"`
	Logs         []BankLogEntry `json:"bank_logs,omitempty"`
	CreatedAt    string         `json:"created_at"`
	UpdatedAt    string         `json:"updated_at"`
}

// BankLogEntry records a single bank operation.
type BankLogEntry struct {
	ID           string    `json:"id"`
	Type         string    `json:"type"` // deposit, withdraw, payment
	Amount       float64   `json:"amount"`
	BalanceAfter float64   `json:"balanceAfter"`
	From         string    `json:"from,omitempty"`
	To           string    `json:"to,omitempty"`
	Message      string    `json:"message,omitempty"`
	Date         time.Time `json:"date"`
}

// AppendLog appends an entry and trims the log to the retention cap.
func (b *BankAccount) AppendLog(entry BankLogEntry) {
	b.Logs = append(b.Logs, entry)
	if len(b.Logs) > maxBankLogEntries {
		b.Logs = b.Logs[len(b.Logs)-maxBankLogEntries:]
	}
}

// GameBank is the singleton game treasury that pays salaries and prizes and
// issues loans to players.
type GameBank struct {
	Name    string  `json:"name"`
	Balance float64 `json:"balance"`
}
