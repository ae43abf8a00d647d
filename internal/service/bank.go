package service

import (
	"context"
	"fmt"
	"time"

	"github.com/curtWhite/finance-game-server/internal/amortization"
	"github.com/curtWhite/finance-game-server/internal/creditscore"
	"github.com/curtWhite/finance-game-server/internal/ledger"
	"github.com/curtWhite/finance-game-server/internal/models"
	"github.com/curtWhite/finance-game-server/internal/worker"
	"github.com/google/uuid"
)

const gameBankName = "GAME BANK"

// Deposit credits a player's account in the background and pushes
// transaction_complete to their room.
func (s *Service) Deposit(username string, amount float64, sender, message string) (*worker.Handle, error) {
	return s.pool.Submit("deposit", func(ctx context.Context) error {
		acct, err := s.deposit(username, amount, sender, message)
		if err != nil {
			s.emitTransaction(username, "Deposit", nil, err)
			return err
		}
		s.emitTransaction(username, "Deposit", acct, nil)
		s.notifyByEmail(username, amount, "Deposit", acct.Balance)
		return nil
	})
}

func (s *Service) deposit(username string, amount float64, sender, message string) (*models.BankAccount, error) {
	if amount <= 0 {
		return nil, models.Invalid("deposit amount must be positive")
	}
	acct, err := s.repo.FindBankAccount(username)
	if err != nil {
		return nil, err
	}
	acct.Balance += amount
	acct.AppendLog(models.BankLogEntry{
		ID:           uuid.NewString(),
		Type:         "deposit",
		Amount:       amount,
		BalanceAfter: acct.Balance,
		From:         sender,
		Message:      message,
		Date:         time.Now().UTC(),
	})
	if err := s.repo.SaveBankAccount(acct); err != nil {
		return nil, err
	}
	return acct, nil
}

// Withdraw debits a player's account in the background.
func (s *Service) Withdraw(username string, amount float64) (*worker.Handle, error) {
	return s.pool.Submit("withdraw", func(ctx context.Context) error {
		acct, err := s.withdraw(username, amount)
		if err != nil {
			s.emitTransaction(username, "Withdrawal", nil, err)
			return err
		}
		s.emitTransaction(username, "Withdrawal", acct, nil)
		s.notifyByEmail(username, amount, "Withdrawal", acct.Balance)
		return nil
	})
}

func (s *Service) withdraw(username string, amount float64) (*models.BankAccount, error) {
	if amount <= 0 {
		return nil, models.Invalid("withdraw amount must be positive")
	}
	acct, err := s.repo.FindBankAccount(username)
	if err != nil {
		return nil, err
	}
	if amount > acct.Balance {
		return nil, models.Invalid("insufficient funds for withdrawal")
	}
	acct.Balance -= amount
	acct.AppendLog(models.BankLogEntry{
		ID:           uuid.NewString(),
		Type:         "withdraw",
		Amount:       amount,
		BalanceAfter: acct.Balance,
		Date:         time.Now().UTC(),
	})
	if err := s.repo.SaveBankAccount(acct); err != nil {
		return nil, err
	}
	return acct, nil
}

// MakePayment processes a payment in the background. late moves the
// late-payment counter up; an on-time payment works it back toward zero.
// Completion is pushed to the player's room as payment_complete.
func (s *Service) MakePayment(username string, amount float64, recipient string, late bool) (*worker.Handle, error) {
	return s.pool.Submit("payment", func(ctx context.Context) error {
		acct, err := s.makePayment(username, amount, recipient, late)
		if err != nil {
			s.log.Warnf("Payment failed for %s: %v", username, err)
			s.notify.Emit("payment_complete", map[string]interface{}{
				"username": username,
				"error":    err.Error(),
				"success":  false,
				"message":  fmt.Sprintf("Payment failed: %v", err),
			}, username)
			return err
		}
		doc, derr := s.GetBalanceSheet(username)
		if derr != nil {
			s.log.Errorf("Failed to load balance sheet after payment for %s: %v", username, derr)
		}
		s.notify.Emit("payment_complete", map[string]interface{}{
			"username": username,
			"message":  fmt.Sprintf("Payment of %.2f to %s completed successfully", amount, recipient),
			"payload": map[string]interface{}{
				"balancesheet": doc,
				"bank":         acct,
			},
		}, username)
		return nil
	})
}

func (s *Service) makePayment(username string, amount float64, recipient string, late bool) (*models.BankAccount, error) {
	if amount <= 0 {
		return nil, models.Invalid("payment amount must be positive")
	}
	acct, err := s.repo.FindBankAccount(username)
	if err != nil {
		return nil, err
	}
	if amount > acct.Balance {
		return nil, models.Invalid("insufficient funds for payment")
	}
	acct.Balance -= amount
	if late {
		acct.LatePayments++
	} else if acct.LatePayments > 0 {
		acct.LatePayments--
	}
	acct.AppendLog(models.BankLogEntry{
		ID:           uuid.NewString(),
		Type:         "payment",
		Amount:       amount,
		BalanceAfter: acct.Balance,
		To:           recipient,
		Date:         time.Now().UTC(),
	})
	if err := s.repo.SaveBankAccount(acct); err != nil {
		return nil, err
	}
	return acct, nil
}

// LoanRequest describes a requested loan.
type LoanRequest struct {
	Amount               float64                `json:"amount" validate:"required,gt=0"`
	Name                 string                 `json:"name"`
	TermYears            float64                `json:"amortizationTerm"`
	CompoundingFrequency amortization.Frequency `json:"compoundingFrequency"`
	PaymentFrequency     amortization.Frequency `json:"paymentFrequency"`
}

// RequestLoan gates a loan on the player's credit score, funds it from the
// game treasury and books it as a liability on the balance sheet. The bank
// deposit, the treasury debit and the ledger save are separate writes; a
// crash between them can leave them inconsistent.
func (s *Service) RequestLoan(username string, req LoanRequest) (*Profile, error) {
	if req.Amount <= 0 {
		return nil, models.Invalid("loan amount must be positive")
	}

	acct, err := s.repo.FindBankAccount(username)
	if err != nil {
		return nil, err
	}
	bs, err := s.repo.LoadBalanceSheet(username)
	if err != nil {
		return nil, err
	}

	cur := creditscore.FromSheet(bs)
	score, err := s.creditScore(bs, acct)
	if err != nil {
		return nil, err
	}
	required := creditscore.RequiredScore(req.Amount, cur)
	if score < required {
		s.log.Infof("Loan denied for %s: score %d below required %d", username, score, required)
		return nil, models.Invalid("insufficient credit score")
	}

	rate, err := s.rates.LoanRate()
	if err != nil {
		s.log.Warnf("Rate feed unavailable, using default loan rate: %v", err)
		rate = s.config.DefaultLoanRate
	}

	treasury, err := s.repo.LoadGameBank(s.config.GameBankBalance)
	if err != nil {
		return nil, err
	}
	if treasury.Balance < req.Amount {
		return nil, models.Invalid("the bank cannot fund this loan")
	}
	treasury.Balance -= req.Amount
	if err := s.repo.SaveGameBank(treasury); err != nil {
		return nil, err
	}

	acct.Balance += req.Amount
	acct.AppendLog(models.BankLogEntry{
		ID:           uuid.NewString(),
		Type:         "deposit",
		Amount:       req.Amount,
		BalanceAfter: acct.Balance,
		From:         gameBankName,
		Message:      "Loan disbursement",
		Date:         time.Now().UTC(),
	})
	if err := s.repo.SaveBankAccount(acct); err != nil {
		return nil, err
	}

	name := req.Name
	if name == "" {
		name = "Bank Loan"
	}
	now := time.Now().UTC()
	liability := ledger.Liability{
		Name:                 name,
		LoanAmount:           req.Amount,
		InterestRate:         rate / 100,
		AmortizationTerm:     req.TermYears,
		CompoundingFrequency: req.CompoundingFrequency,
		PaymentFrequency:     req.PaymentFrequency,
		OriginalLoanAmount:   req.Amount,
		StartDate:            now.Format(time.RFC3339),
		NextDueDate:          now.AddDate(0, 1, 0).Format(time.RFC3339),
	}
	if err := bs.AddLiability(liability); err != nil {
		return nil, err
	}
	if err := s.repo.SaveBalanceSheet(bs, acct.Balance); err != nil {
		return nil, err
	}

	s.log.Infof("Loan of %.2f issued to %s at %.2f%%", req.Amount, username, rate)
	return s.GetProfile(username)
}

// PayPlayer disburses a salary or prize from the game treasury in the
// background and pushes salary_reciept_complete to the player's room.
func (s *Service) PayPlayer(username string, amount float64, message string) (*worker.Handle, error) {
	return s.pool.Submit("pay-player", func(ctx context.Context) error {
		if amount <= 0 {
			err := models.Invalid("payout amount must be positive")
			s.emitSalary(username, nil, message, err)
			return err
		}
		treasury, err := s.repo.LoadGameBank(s.config.GameBankBalance)
		if err != nil {
			s.emitSalary(username, nil, message, err)
			return err
		}
		treasury.Balance -= amount
		if err := s.repo.SaveGameBank(treasury); err != nil {
			s.emitSalary(username, nil, message, err)
			return err
		}
		acct, err := s.deposit(username, amount, gameBankName, message)
		if err != nil {
			s.emitSalary(username, nil, message, err)
			return err
		}
		s.emitSalary(username, acct, message, nil)
		return nil
	})
}

func (s *Service) emitSalary(username string, acct *models.BankAccount, message string, err error) {
	payload := map[string]interface{}{
		"username": username,
		"message":  message,
	}
	if err != nil {
		payload["error"] = err.Error()
		payload["success"] = false
	} else {
		payload["payload"] = map[string]interface{}{"bank": acct}
	}
	s.notify.Emit("salary_reciept_complete", payload, username)
}

func (s *Service) emitTransaction(username, kind string, acct *models.BankAccount, err error) {
	payload := map[string]interface{}{
		"username": username,
		"type":     kind,
	}
	if err != nil {
		payload["error"] = err.Error()
		payload["success"] = false
		payload["message"] = fmt.Sprintf("%s failed: %v", kind, err)
	} else {
		payload["message"] = fmt.Sprintf("%s completed successfully", kind)
		payload["payload"] = map[string]interface{}{"bank": acct}
	}
	s.notify.Emit("transaction_complete", payload, username)
}

// notifyByEmail sends a transaction email when the player has an address.
// Delivery failures are logged, never surfaced.
func (s *Service) notifyByEmail(username string, amount float64, kind string, balance float64) {
	if s.mail == nil {
		return
	}
	player, err := s.repo.FindPlayerByUsername(username)
	if err != nil || player.Email == "" {
		return
	}
	if err := s.mail.SendTransactionNotification(player.Email, username, amount, kind, balance); err != nil {
		s.log.Errorf("Failed to email %s notification to %s: %v", kind, username, err)
	}
}

// reminderWindow is how far ahead of the due date reminders go out.
const reminderWindow = 3 * 24 * time.Hour

// SendPaymentReminders emails every player whose liabilities come due inside
// the reminder window or are already overdue. Run daily by the scheduler.
func (s *Service) SendPaymentReminders() error {
	players, err := s.repo.ListPlayers()
	if err != nil {
		return err
	}
	now := time.Now().UTC()
	for _, player := range players {
		if player.Email == "" {
			continue
		}
		bs, err := s.repo.LoadBalanceSheet(player.Username)
		if err != nil {
			if isNotFound(err) {
				continue
			}
			s.log.Errorf("Failed to load balance sheet for %s: %v", player.Username, err)
			continue
		}
		for _, l := range bs.Liabilities {
			if l.NextDueDate == "" {
				continue
			}
			due, err := time.Parse(time.RFC3339, l.NextDueDate)
			if err != nil {
				s.log.Warnf("Unparseable due date %q on %s for %s", l.NextDueDate, l.Name, player.Username)
				continue
			}
			if due.After(now.Add(reminderWindow)) {
				continue
			}
			sched, err := l.Amortize()
			if err != nil {
				s.log.Errorf("Failed to amortize %s for %s: %v", l.Name, player.Username, err)
				continue
			}
			overdue := due.Before(now)
			if err := s.mail.SendPaymentReminder(player.Email, player.Username, l.Name, due, sched.Payment, overdue); err != nil {
				s.log.Errorf("Failed to send reminder to %s: %v", player.Username, err)
			}
		}
	}
	return nil
}
