package service

import (
	"fmt"
	"time"

	"github.com/curtWhite/finance-game-server/internal/config"
	"github.com/curtWhite/finance-game-server/internal/creditscore"
	"github.com/curtWhite/finance-game-server/internal/ledger"
	"github.com/curtWhite/finance-game-server/internal/models"
	"github.com/curtWhite/finance-game-server/internal/notify"
	"github.com/curtWhite/finance-game-server/internal/repository"
	"github.com/curtWhite/finance-game-server/internal/worker"
	"github.com/golang-jwt/jwt/v5"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
)

// RateSource provides the annual loan rate in percent.
type RateSource interface {
	LoanRate() (float64, error)
}

// Mailer sends player-facing emails.
type Mailer interface {
	SendPaymentReminder(to, username, liability string, dueDate time.Time, amount float64, isOverdue bool) error
	SendTransactionNotification(to, username string, amount float64, transactionType string, balance float64) error
}

// Service handles business logic
type Service struct {
	repo   *repository.Repository
	log    *logrus.Logger
	config *config.Config
	notify notify.Notifier
	pool   *worker.Pool
	rates  RateSource
	mail   Mailer
}

// NewService initializes a new service
func NewService(repo *repository.Repository, log *logrus.Logger, cfg *config.Config,
	notifier notify.Notifier, pool *worker.Pool, rates RateSource, mail Mailer) *Service {
	return &Service{
		repo:   repo,
		log:    log,
		config: cfg,
		notify: notifier,
		pool:   pool,
		rates:  rates,
		mail:   mail,
	}
}

// Register creates a new player with a hashed password, a bank account seeded
// with the starting balance and an empty balance sheet.
func (s *Service) Register(username, email, password string) (*models.Player, error) {
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	player := &models.Player{
		Username:     username,
		Email:        email,
		PasswordHash: string(hashedPassword),
		Level:        1,
	}

	if err := s.repo.CreatePlayer(player); err != nil {
		return nil, err
	}

	acct, err := s.repo.EnsureBankAccount(username, s.config.InitialPlayerBalance)
	if err != nil {
		return nil, err
	}

	bs := ledger.New(username, s.log)
	if err := s.repo.SaveBalanceSheet(bs, acct.Balance); err != nil {
		return nil, err
	}
	player.BalanceSheetID = bs.ID

	s.log.Infof("Player registered: %s", player.Username)
	return player, nil
}

// Login authenticates a player and returns a JWT token
func (s *Service) Login(username, password string) (string, error) {
	player, err := s.repo.FindPlayerByUsername(username)
	if err != nil {
		return "", fmt.Errorf("invalid credentials")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(player.PasswordHash), []byte(password)); err != nil {
		return "", fmt.Errorf("invalid credentials")
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   player.Username,
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(24 * time.Hour)),
	})
	tokenString, err := token.SignedString([]byte(s.config.JWTSecret))
	if err != nil {
		return "", fmt.Errorf("failed to generate token: %w", err)
	}

	s.log.Infof("Player logged in: %s", player.Username)
	return tokenString, nil
}

// Profile is the full player view returned by GET /api/player.
type Profile struct {
	Player       *models.Player      `json:"player"`
	Bank         *models.BankAccount `json:"bank"`
	CreditScore  int                 `json:"credit_score"`
	BalanceSheet ledger.Document     `json:"balancesheet"`
}

// GetProfile assembles a player's profile. The credit score is derived on
// every call, never read from storage.
func (s *Service) GetProfile(username string) (*Profile, error) {
	player, err := s.repo.FindPlayerByUsername(username)
	if err != nil {
		return nil, err
	}
	acct, err := s.repo.FindBankAccount(username)
	if err != nil {
		return nil, err
	}
	bs, err := s.repo.LoadBalanceSheet(username)
	if err != nil {
		return nil, err
	}
	player.BalanceSheetID = bs.ID

	score, err := s.creditScore(bs, acct)
	if err != nil {
		return nil, err
	}

	return &Profile{
		Player:       player,
		Bank:         acct,
		CreditScore:  score,
		BalanceSheet: bs.Document(acct.Balance, ""),
	}, nil
}

// UpdateProfile persists a player's mutable fields.
func (s *Service) UpdateProfile(username, email string, score float64, level int) (*models.Player, error) {
	player, err := s.repo.FindPlayerByUsername(username)
	if err != nil {
		return nil, err
	}
	if email != "" {
		player.Email = email
	}
	player.Score = score
	player.Level = level
	if err := s.repo.SavePlayer(player); err != nil {
		return nil, err
	}
	return player, nil
}

// creditScore computes the player's current score from the live sheet, the
// stored previous snapshot and the late-payment counter.
func (s *Service) creditScore(bs *ledger.BalanceSheet, acct *models.BankAccount) (int, error) {
	cur := creditscore.FromSheet(bs)
	prevDoc, ok, err := s.repo.PrevSnapshot(bs.Username)
	if err != nil {
		return 0, err
	}
	var prev *creditscore.Snapshot
	if ok {
		snap := creditscore.FromDocument(prevDoc)
		prev = &snap
	}
	return creditscore.Score(cur, prev, acct.LatePayments), nil
}
