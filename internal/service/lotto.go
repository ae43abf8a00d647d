package service

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/curtWhite/finance-game-server/internal/models"
	"github.com/curtWhite/finance-game-server/internal/worker"
	"github.com/google/uuid"
)

// Draw parameters: six numbers out of thirty-six, prize scaled by the share
// of the player's numbers matching the drawn ones.
const (
	lottoNumbers = 6
	lottoPoolMax = 36
)

// prizeMultiplier maps the match share to a payout multiple of the ticket
// cost. Below 0.3 the ticket loses.
func prizeMultiplier(matchShare float64) float64 {
	switch {
	case matchShare >= 1.0:
		return 1000
	case matchShare >= 0.9:
		return 500
	case matchShare >= 0.8:
		return 250
	case matchShare >= 0.7:
		return 125
	case matchShare >= 0.6:
		return 62.5
	case matchShare >= 0.5:
		return 30
	case matchShare >= 0.4:
		return 15
	case matchShare >= 0.3:
		return 5
	default:
		return 0
	}
}

// drawMatchShare samples a ticket and a winning draw and returns the share of
// matching numbers.
func drawMatchShare() float64 {
	picked := rand.Perm(lottoPoolMax)[:lottoNumbers]
	drawn := rand.Perm(lottoPoolMax)[:lottoNumbers]
	inDraw := make(map[int]bool, lottoNumbers)
	for _, n := range drawn {
		inDraw[n] = true
	}
	matches := 0
	for _, n := range picked {
		if inDraw[n] {
			matches++
		}
	}
	return float64(matches) / float64(lottoNumbers)
}

// BuyLottoTicket withdraws the ticket cost, stores a pending ticket maturing
// after delay and schedules its resolution. The withdrawal happens before the
// handler acknowledges, so insufficient funds fail the purchase outright.
func (s *Service) BuyLottoTicket(username string, cost float64, delay time.Duration) (*models.LottoTicket, *worker.Handle, error) {
	if cost <= 0 {
		return nil, nil, models.Invalid("ticket cost must be positive")
	}
	if delay <= 0 {
		delay = time.Hour
	}

	if _, err := s.withdraw(username, cost); err != nil {
		return nil, nil, err
	}

	now := time.Now().UTC()
	ticket := &models.LottoTicket{
		ID:       uuid.NewString(),
		Username: username,
		Cost:     cost,
		Status:   models.TicketPending,
		ResultAt: now.Add(delay),
		BoughtAt: now,
	}
	if err := s.repo.InsertLottoTicket(ticket); err != nil {
		return nil, nil, err
	}

	handle, err := s.pool.Submit("lotto-ticket", func(ctx context.Context) error {
		timer := time.NewTimer(time.Until(ticket.ResultAt))
		defer timer.Stop()
		select {
		case <-timer.C:
		case <-ctx.Done():
			// The cron sweep picks the ticket up after restart.
			return ctx.Err()
		}
		return s.resolveTicket(ticket.ID)
	})
	if err != nil {
		s.log.Errorf("Failed to schedule lotto resolution for %s: %v", username, err)
		return ticket, nil, nil
	}

	s.log.Infof("Lotto ticket %s bought by %s, result at %s", ticket.ID, username, ticket.ResultAt)
	return ticket, handle, nil
}

// resolveTicket draws the lottery for a pending ticket, deposits the prize on
// a win and pushes lotto_result_ready to the player's room. Already-resolved
// tickets are skipped, which makes the timer path and the cron sweep safe to
// overlap.
func (s *Service) resolveTicket(id string) error {
	ticket, err := s.repo.FindLottoTicket(id)
	if err != nil {
		return err
	}
	if ticket.Status != models.TicketPending {
		s.log.Warnf("Lotto ticket %s is not pending (status: %s)", ticket.ID, ticket.Status)
		return nil
	}

	share := drawMatchShare()
	multiplier := prizeMultiplier(share)
	if multiplier > 0 {
		ticket.Status = models.TicketWon
		ticket.Prize = ticket.Cost * multiplier
	} else {
		ticket.Status = models.TicketLost
		ticket.Prize = 0
	}
	if err := s.repo.UpdateLottoTicket(ticket); err != nil {
		s.emitLottoError(ticket, err)
		return err
	}

	var acct *models.BankAccount
	if ticket.Prize > 0 {
		acct, err = s.deposit(ticket.Username, ticket.Prize, "Lotto Office",
			fmt.Sprintf("Lotto prize for ticket %s", ticket.ID))
		if err != nil {
			s.emitLottoError(ticket, err)
			return err
		}
		s.log.Infof("Prize of %.2f deposited for %s", ticket.Prize, ticket.Username)
	}

	doc, err := s.GetBalanceSheet(ticket.Username)
	if err != nil {
		s.log.Errorf("Failed to load balance sheet after lotto for %s: %v", ticket.Username, err)
	}
	s.notify.Emit("lotto_result_ready", map[string]interface{}{
		"username":  ticket.Username,
		"ticket_id": ticket.ID,
		"message":   "Lotto ticket result is ready!",
		"payload": map[string]interface{}{
			"ticket":       ticket,
			"balancesheet": doc,
			"bank":         acct,
		},
	}, ticket.Username)
	return nil
}

func (s *Service) emitLottoError(ticket *models.LottoTicket, err error) {
	s.notify.Emit("lotto_result_ready", map[string]interface{}{
		"username":  ticket.Username,
		"ticket_id": ticket.ID,
		"error":     err.Error(),
		"success":   false,
		"message":   "Failed to process lotto ticket",
	}, ticket.Username)
}

// SweepDueLottoTickets resolves every pending ticket past its result time.
// Recovers tickets whose in-process timer was lost to a restart.
func (s *Service) SweepDueLottoTickets() error {
	tickets, err := s.repo.FindDueLottoTickets(time.Now().UTC())
	if err != nil {
		return err
	}
	for _, t := range tickets {
		if err := s.resolveTicket(t.ID); err != nil {
			s.log.Errorf("Failed to resolve due lotto ticket %s: %v", t.ID, err)
		}
	}
	return nil
}
