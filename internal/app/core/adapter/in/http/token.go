package http

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const tokenIssuer = "go-atm-ledger"

// ErrInvalidToken token 無效或已過期
var ErrInvalidToken = errors.New("invalid or expired token")

// TokenIssuer 簽發與驗證登入 token (HS256)，token 即為 HTTP 端的 Session
type TokenIssuer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewTokenIssuer(secret string, ttl time.Duration) *TokenIssuer {
	return &TokenIssuer{
		secret: []byte(secret),
		ttl:    ttl,
		now:    time.Now,
	}
}

// WithClock 替換時間來源 (測試用)
func (i *TokenIssuer) WithClock(now func() time.Time) *TokenIssuer {
	i.now = now
	return i
}

// Issue 為已驗證帳號簽發 token
//
// 回傳:
//
//	string: 簽章後的 token
//	time.Time: 到期時間
//	error: 簽章錯誤
func (i *TokenIssuer) Issue(username string) (string, time.Time, error) {
	now := i.now()
	expiresAt := now.Add(i.ttl)
	claims := jwt.RegisteredClaims{
		Issuer:    tokenIssuer,
		Subject:   username,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(expiresAt),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expiresAt, nil
}

// Verify 驗證 token 並回傳綁定的帳號
func (i *TokenIssuer) Verify(token string) (string, error) {
	claims := &jwt.RegisteredClaims{}
	_, err := jwt.ParseWithClaims(token, claims,
		func(*jwt.Token) (interface{}, error) {
			return i.secret, nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(tokenIssuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(i.now),
	)
	if err != nil || claims.Subject == "" {
		return "", ErrInvalidToken
	}
	return claims.Subject, nil
}
