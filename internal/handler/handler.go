package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/curtWhite/finance-game-server/internal/ledger"
	"github.com/curtWhite/finance-game-server/internal/middleware"
	"github.com/curtWhite/finance-game-server/internal/models"
	"github.com/curtWhite/finance-game-server/internal/service"
	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"
)

type Handler struct {
	svc      *service.Service
	validate *validator.Validate
}

func NewHandler(svc *service.Service) *Handler {
	return &Handler{svc: svc, validate: validator.New()}
}

func respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(payload)
}

func respondWithError(w http.ResponseWriter, code int, message string) {
	respondWithJSON(w, code, map[string]string{"error": message})
}

// respondWithServiceError maps service errors onto HTTP statuses: validation
// problems are the client's fault, missing records are 404, the rest is ours.
func respondWithServiceError(w http.ResponseWriter, err error) {
	switch {
	case models.IsValidation(err):
		respondWithError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, models.ErrNotFound):
		respondWithError(w, http.StatusNotFound, err.Error())
	default:
		respondWithError(w, http.StatusInternalServerError, err.Error())
	}
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request payload")
		return false
	}
	if err := h.validate.Struct(dst); err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return false
	}
	return true
}

// pathUser returns the {username} path variable, rejecting requests whose
// token subject does not match it.
func pathUser(w http.ResponseWriter, r *http.Request) (string, bool) {
	username := mux.Vars(r)["username"]
	authed, ok := middleware.Username(r.Context())
	if !ok || authed != username {
		respondWithError(w, http.StatusForbidden, "cannot act on another player's account")
		return "", false
	}
	return username, true
}

type registerRequest struct {
	Username string `json:"username" validate:"required,min=3,max=32"`
	Email    string `json:"email" validate:"omitempty,email"`
	Password string `json:"password" validate:"required,min=6"`
}

// Register handles player registration
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if !h.decode(w, r, &req) {
		return
	}
	player, err := h.svc.Register(req.Username, req.Email, req.Password)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}
	respondWithJSON(w, http.StatusCreated, player)
}

type loginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// Login handles player authentication
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !h.decode(w, r, &req) {
		return
	}
	token, err := h.svc.Login(req.Username, req.Password)
	if err != nil {
		respondWithError(w, http.StatusUnauthorized, err.Error())
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]string{
		"token":    token,
		"username": req.Username,
	})
}

// GetPlayer returns the authenticated player's profile.
func (h *Handler) GetPlayer(w http.ResponseWriter, r *http.Request) {
	username, ok := middleware.Username(r.Context())
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "not authenticated")
		return
	}
	profile, err := h.svc.GetProfile(username)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, profile)
}

type updatePlayerRequest struct {
	Email string  `json:"email" validate:"omitempty,email"`
	Score float64 `json:"score" validate:"gte=0"`
	Level int     `json:"level" validate:"gte=1"`
}

// UpdatePlayer updates the authenticated player's mutable fields.
func (h *Handler) UpdatePlayer(w http.ResponseWriter, r *http.Request) {
	username, ok := middleware.Username(r.Context())
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "not authenticated")
		return
	}
	var req updatePlayerRequest
	if !h.decode(w, r, &req) {
		return
	}
	player, err := h.svc.UpdateProfile(username, req.Email, req.Score, req.Level)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, player)
}

// GetBalanceSheet returns the player's balance sheet document.
func (h *Handler) GetBalanceSheet(w http.ResponseWriter, r *http.Request) {
	username, ok := pathUser(w, r)
	if !ok {
		return
	}
	doc, err := h.svc.GetBalanceSheet(username)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, doc)
}

type assetRequest struct {
	Name   string  `json:"name" validate:"required"`
	Income float64 `json:"income" validate:"gte=0"`
	Value  float64 `json:"value" validate:"gte=0"`
}

// AddAsset upserts an asset on the player's sheet.
func (h *Handler) AddAsset(w http.ResponseWriter, r *http.Request) {
	username, ok := pathUser(w, r)
	if !ok {
		return
	}
	var req assetRequest
	if !h.decode(w, r, &req) {
		return
	}
	doc, err := h.svc.AddAsset(username, req.Name, req.Income, req.Value)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, doc)
}

type removeRequest struct {
	Name   string   `json:"name" validate:"required"`
	Amount *float64 `json:"amount"`
}

// RemoveAsset removes or decrements an asset.
func (h *Handler) RemoveAsset(w http.ResponseWriter, r *http.Request) {
	username, ok := pathUser(w, r)
	if !ok {
		return
	}
	var req removeRequest
	if !h.decode(w, r, &req) {
		return
	}
	doc, err := h.svc.RemoveAsset(username, req.Name, req.Amount)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, doc)
}

// AddLiability upserts a liability and its paired expense.
func (h *Handler) AddLiability(w http.ResponseWriter, r *http.Request) {
	username, ok := pathUser(w, r)
	if !ok {
		return
	}
	var l ledger.Liability
	if !h.decode(w, r, &l) {
		return
	}
	doc, err := h.svc.AddLiability(username, l)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, doc)
}

// removeLiabilityRequest keys the decrement by loanAmount, matching the
// field name liabilities carry everywhere else on the wire.
type removeLiabilityRequest struct {
	Name       string   `json:"name" validate:"required"`
	LoanAmount *float64 `json:"loanAmount"`
}

// RemoveLiability removes or decrements a liability.
func (h *Handler) RemoveLiability(w http.ResponseWriter, r *http.Request) {
	username, ok := pathUser(w, r)
	if !ok {
		return
	}
	var req removeLiabilityRequest
	if !h.decode(w, r, &req) {
		return
	}
	doc, err := h.svc.RemoveLiability(username, req.Name, req.LoanAmount)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, doc)
}

type itemRequest struct {
	Name   string  `json:"name" validate:"required"`
	Amount float64 `json:"amount" validate:"gt=0"`
}

// AddIncome upserts an income line.
func (h *Handler) AddIncome(w http.ResponseWriter, r *http.Request) {
	username, ok := pathUser(w, r)
	if !ok {
		return
	}
	var req itemRequest
	if !h.decode(w, r, &req) {
		return
	}
	doc, err := h.svc.AddIncome(username, req.Name, req.Amount)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, doc)
}

// RemoveIncome removes or decrements an income line.
func (h *Handler) RemoveIncome(w http.ResponseWriter, r *http.Request) {
	username, ok := pathUser(w, r)
	if !ok {
		return
	}
	var req removeRequest
	if !h.decode(w, r, &req) {
		return
	}
	doc, err := h.svc.RemoveIncome(username, req.Name, req.Amount)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, doc)
}

// AddExpense upserts an expense line.
func (h *Handler) AddExpense(w http.ResponseWriter, r *http.Request) {
	username, ok := pathUser(w, r)
	if !ok {
		return
	}
	var req itemRequest
	if !h.decode(w, r, &req) {
		return
	}
	doc, err := h.svc.AddExpense(username, req.Name, req.Amount)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, doc)
}

// RemoveExpense removes or decrements an expense line.
func (h *Handler) RemoveExpense(w http.ResponseWriter, r *http.Request) {
	username, ok := pathUser(w, r)
	if !ok {
		return
	}
	var req removeRequest
	if !h.decode(w, r, &req) {
		return
	}
	doc, err := h.svc.RemoveExpense(username, req.Name, req.Amount)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, doc)
}

type liabilityUpdatesRequest struct {
	Updates []ledger.Liability `json:"updates" validate:"required,min=1"`
}

// UpdateLiabilities schedules a wholesale liability update and acknowledges
// immediately; completion arrives on the player's socket room.
func (h *Handler) UpdateLiabilities(w http.ResponseWriter, r *http.Request) {
	username, ok := pathUser(w, r)
	if !ok {
		return
	}
	var req liabilityUpdatesRequest
	if !h.decode(w, r, &req) {
		return
	}
	if _, err := h.svc.UpdateLiabilities(username, req.Updates); err != nil {
		respondWithServiceError(w, err)
		return
	}
	respondWithJSON(w, http.StatusAccepted, map[string]string{
		"status":  "processing",
		"message": "Liability update scheduled",
	})
}

type assetUpdatesRequest struct {
	Updates []ledger.Asset `json:"updates" validate:"required,min=1"`
}

// UpdateAssets schedules a merge update of assets.
func (h *Handler) UpdateAssets(w http.ResponseWriter, r *http.Request) {
	username, ok := pathUser(w, r)
	if !ok {
		return
	}
	var req assetUpdatesRequest
	if !h.decode(w, r, &req) {
		return
	}
	if _, err := h.svc.UpdateAssets(username, req.Updates); err != nil {
		respondWithServiceError(w, err)
		return
	}
	respondWithJSON(w, http.StatusAccepted, map[string]string{
		"status":  "processing",
		"message": "Asset update scheduled",
	})
}

type depositRequest struct {
	Amount  float64 `json:"amount" validate:"required,gt=0"`
	Sender  string  `json:"sender"`
	Message string  `json:"message"`
}

// Deposit schedules a deposit to the player's account.
func (h *Handler) Deposit(w http.ResponseWriter, r *http.Request) {
	username, ok := pathUser(w, r)
	if !ok {
		return
	}
	var req depositRequest
	if !h.decode(w, r, &req) {
		return
	}
	if _, err := h.svc.Deposit(username, req.Amount, req.Sender, req.Message); err != nil {
		respondWithServiceError(w, err)
		return
	}
	respondWithJSON(w, http.StatusAccepted, map[string]string{
		"status":  "processing",
		"message": "Deposit scheduled",
	})
}

type withdrawRequest struct {
	Amount float64 `json:"amount" validate:"required,gt=0"`
}

// Withdraw schedules a withdrawal from the player's account.
func (h *Handler) Withdraw(w http.ResponseWriter, r *http.Request) {
	username, ok := pathUser(w, r)
	if !ok {
		return
	}
	var req withdrawRequest
	if !h.decode(w, r, &req) {
		return
	}
	if _, err := h.svc.Withdraw(username, req.Amount); err != nil {
		respondWithServiceError(w, err)
		return
	}
	respondWithJSON(w, http.StatusAccepted, map[string]string{
		"status":  "processing",
		"message": "Withdrawal scheduled",
	})
}

type paymentRequest struct {
	Amount    float64 `json:"amount" validate:"required,gt=0"`
	Recipient string  `json:"recipient" validate:"required"`
	Late      bool    `json:"late_payment"`
}

// MakePayment schedules a payment; the late flag moves the late-payment
// counter that feeds credit scoring.
func (h *Handler) MakePayment(w http.ResponseWriter, r *http.Request) {
	username, ok := pathUser(w, r)
	if !ok {
		return
	}
	var req paymentRequest
	if !h.decode(w, r, &req) {
		return
	}
	if _, err := h.svc.MakePayment(username, req.Amount, req.Recipient, req.Late); err != nil {
		respondWithServiceError(w, err)
		return
	}
	respondWithJSON(w, http.StatusAccepted, map[string]string{
		"status":  "processing",
		"message": "Payment scheduled",
	})
}

// RequestLoan issues a credit-gated loan synchronously and returns the
// refreshed profile.
func (h *Handler) RequestLoan(w http.ResponseWriter, r *http.Request) {
	username, ok := pathUser(w, r)
	if !ok {
		return
	}
	var req service.LoanRequest
	if !h.decode(w, r, &req) {
		return
	}
	profile, err := h.svc.RequestLoan(username, req)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, profile)
}

type lottoRequest struct {
	Cost         float64 `json:"cost" validate:"required,gt=0"`
	DelaySeconds int     `json:"delay_seconds" validate:"gte=0"`
}

// BuyLottoTicket withdraws the ticket cost and schedules the draw.
func (h *Handler) BuyLottoTicket(w http.ResponseWriter, r *http.Request) {
	username, ok := pathUser(w, r)
	if !ok {
		return
	}
	var req lottoRequest
	if !h.decode(w, r, &req) {
		return
	}
	ticket, _, err := h.svc.BuyLottoTicket(username, req.Cost, time.Duration(req.DelaySeconds)*time.Second)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}
	respondWithJSON(w, http.StatusAccepted, map[string]interface{}{
		"status": "processing",
		"ticket": ticket,
	})
}
