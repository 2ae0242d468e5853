package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/JoeShih716/go-atm-ledger/internal/app/core/domain"
)

// writeJSON 統一輸出成功回應
func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

type errorResponse struct {
	Error string `json:"error"`
}

// writeErr 統一輸出錯誤回應 {"error": "..."}
func writeErr(w http.ResponseWriter, err error, code int) {
	writeJSON(w, code, errorResponse{Error: err.Error()})
}

// statusOf 領域錯誤對應的 HTTP 狀態碼
func statusOf(err error) int {
	switch {
	case errors.Is(err, domain.ErrDuplicateUser):
		return http.StatusConflict
	case errors.Is(err, domain.ErrInvalidAmount), errors.Is(err, domain.ErrInvalidUsername),
		errors.Is(err, domain.ErrUnsupportedTransaction):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrUserNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrInsufficientFunds):
		return http.StatusUnprocessableEntity
	case errors.Is(err, domain.ErrNotAuthenticated), errors.Is(err, ErrInvalidToken):
		return http.StatusUnauthorized
	case errors.Is(err, domain.ErrStoreClosed):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func writeDomainErr(w http.ResponseWriter, err error) {
	writeErr(w, err, statusOf(err))
}
