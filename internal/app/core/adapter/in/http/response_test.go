package http

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/JoeShih716/go-atm-ledger/internal/app/core/domain"
)

func TestStatusOf(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{domain.ErrDuplicateUser, http.StatusConflict},
		{domain.ErrInvalidUsername, http.StatusBadRequest},
		{fmt.Errorf("%w: %q is not a number", domain.ErrInvalidAmount, "x"), http.StatusBadRequest},
		{fmt.Errorf("%w: TransactionType(7)", domain.ErrUnsupportedTransaction), http.StatusBadRequest},
		{domain.ErrUserNotFound, http.StatusNotFound},
		{domain.ErrInsufficientFunds, http.StatusUnprocessableEntity},
		{domain.ErrNotAuthenticated, http.StatusUnauthorized},
		{ErrInvalidToken, http.StatusUnauthorized},
		{domain.ErrStoreClosed, http.StatusServiceUnavailable},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			assert.Equal(t, tt.want, statusOf(tt.err))
		})
	}
}
