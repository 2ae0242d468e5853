package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/JoeShih716/go-atm-ledger/internal/app/core/domain"
	"github.com/JoeShih716/go-atm-ledger/internal/app/core/usecase"
)

// rawAmount 接受 JSON 字串或數字，原樣交給 LedgerService 解析
type rawAmount string

func (a *rawAmount) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*a = rawAmount(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*a = rawAmount(n.String())
	return nil
}

type registerRequest struct {
	Username       string    `json:"username"`
	PIN            string    `json:"pin"`
	InitialBalance rawAmount `json:"initial_balance"`
}

type loginRequest struct {
	Username string `json:"username"`
	PIN      string `json:"pin"`
}

type loginResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

type amountRequest struct {
	Amount rawAmount `json:"amount"`
	RefID  string    `json:"ref_id,omitempty"`
}

type balanceResponse struct {
	Username string          `json:"username"`
	Balance  decimal.Decimal `json:"balance"`
}

type recordResponse struct {
	ID        uuid.UUID       `json:"id"`
	Kind      string          `json:"kind"`
	Amount    decimal.Decimal `json:"amount"`
	Timestamp time.Time       `json:"timestamp"`
	Line      string          `json:"line"`
}

type historyResponse struct {
	Username string           `json:"username"`
	Records  []recordResponse `json:"records"`
}

var errInvalidCredentials = errors.New("invalid username or PIN")

type usernameKey struct{}

// Handler 只負責解析請求、呼叫 LedgerService、回傳 JSON
type Handler struct {
	core   *usecase.LedgerService
	tokens *TokenIssuer
	logger *slog.Logger
}

func NewHandler(core *usecase.LedgerService, tokens *TokenIssuer, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{core: core, tokens: tokens, logger: logger}
}

// maxBodyBytes 請求內容上限
const maxBodyBytes = 4 << 10

// decode 解析 JSON 請求；失敗時已寫出錯誤回應並回傳 false
func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeErr(w, errors.New("request body too large"), http.StatusRequestEntityTooLarge)
			return false
		}
		writeErr(w, errors.New("invalid request body: "+err.Error()), http.StatusBadRequest)
		return false
	}
	return true
}

func usernameFrom(ctx context.Context) string {
	username, _ := ctx.Value(usernameKey{}).(string)
	return username
}

// authenticated 驗證 Bearer token 並把帳號綁進 context
func (h *Handler) authenticated(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := strings.TrimSpace(r.Header.Get("Authorization"))
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || strings.TrimSpace(token) == "" {
			writeErr(w, domain.ErrNotAuthenticated, http.StatusUnauthorized)
			return
		}
		username, err := h.tokens.Verify(strings.TrimSpace(token))
		if err != nil {
			writeErr(w, err, http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), usernameKey{}, username)))
	})
}

// Register POST /v1/accounts
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if !decode(w, r, &req) {
		return
	}
	if err := h.core.Register(r.Context(), req.Username, req.PIN, string(req.InitialBalance)); err != nil {
		writeDomainErr(w, err)
		return
	}
	balance, err := h.core.Balance(r.Context(), req.Username)
	if err != nil {
		writeDomainErr(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, balanceResponse{Username: req.Username, Balance: balance})
}

// Login POST /v1/sessions，成功後回傳 token；登出即由呼叫端丟棄 token
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !decode(w, r, &req) {
		return
	}
	if !h.core.Authenticate(r.Context(), req.Username, req.PIN) {
		writeErr(w, errInvalidCredentials, http.StatusUnauthorized)
		return
	}
	token, expiresAt, err := h.tokens.Issue(req.Username)
	if err != nil {
		h.logger.Error("issue token failed", "username", req.Username, "error", err)
		writeErr(w, errors.New("could not create session"), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, loginResponse{Token: token, ExpiresAt: expiresAt})
}

// Balance GET /v1/account/balance
func (h *Handler) Balance(w http.ResponseWriter, r *http.Request) {
	username := usernameFrom(r.Context())
	balance, err := h.core.Balance(r.Context(), username)
	if err != nil {
		writeDomainErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, balanceResponse{Username: username, Balance: balance})
}

// Deposit POST /v1/account/deposit
func (h *Handler) Deposit(w http.ResponseWriter, r *http.Request) {
	h.post(w, r, domain.TransactionTypeDeposit)
}

// Withdraw POST /v1/account/withdraw
func (h *Handler) Withdraw(w http.ResponseWriter, r *http.Request) {
	h.post(w, r, domain.TransactionTypeWithdraw)
}

func (h *Handler) post(w http.ResponseWriter, r *http.Request, kind domain.TransactionType) {
	var req amountRequest
	if !decode(w, r, &req) {
		return
	}
	refID := uuid.New()
	if req.RefID != "" {
		u, err := uuid.Parse(req.RefID)
		if err != nil {
			writeErr(w, errors.New("invalid ref_id: "+err.Error()), http.StatusBadRequest)
			return
		}
		refID = u
	}

	username := usernameFrom(r.Context())
	balance, err := h.core.Post(r.Context(), username, kind, string(req.Amount), refID)
	if err != nil {
		writeDomainErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, balanceResponse{Username: username, Balance: balance})
}

// History GET /v1/account/history
func (h *Handler) History(w http.ResponseWriter, r *http.Request) {
	username := usernameFrom(r.Context())
	records := h.core.History(r.Context(), username)

	out := make([]recordResponse, 0, len(records))
	for _, rec := range records {
		out = append(out, recordResponse{
			ID:        rec.ID,
			Kind:      rec.Kind.String(),
			Amount:    rec.Amount,
			Timestamp: rec.Timestamp,
			Line:      rec.String(),
		})
	}
	writeJSON(w, http.StatusOK, historyResponse{Username: username, Records: out})
}
