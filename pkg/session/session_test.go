package session_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JoeShih716/go-atm-ledger/internal/app/core/adapter/out/memory"
	"github.com/JoeShih716/go-atm-ledger/internal/app/core/domain"
	"github.com/JoeShih716/go-atm-ledger/internal/app/core/usecase"
	"github.com/JoeShih716/go-atm-ledger/pkg/session"
)

type forgettingLedger struct {
	session.LocalLedger
	forgotten []string
}

func (f *forgettingLedger) Forget(username string) {
	f.forgotten = append(f.forgotten, username)
}

func newLedger(t *testing.T) session.LocalLedger {
	t.Helper()
	svc := usecase.NewLedgerService(memory.NewMutexStore(), nil)
	require.NoError(t, svc.Register(context.Background(), "alice", "1234", "100"))
	require.NoError(t, svc.Register(context.Background(), "bob", "4321", "5"))
	return session.LocalLedger{LedgerService: svc}
}

func TestSession_AnonymousRejectsOperations(t *testing.T) {
	ctx := context.Background()
	s := session.New(newLedger(t))

	assert.Equal(t, session.Anonymous, s.State())

	_, err := s.Deposit(ctx, "10")
	assert.ErrorIs(t, err, domain.ErrNotAuthenticated)
	_, err = s.Withdraw(ctx, "10")
	assert.ErrorIs(t, err, domain.ErrNotAuthenticated)
	_, err = s.Balance(ctx)
	assert.ErrorIs(t, err, domain.ErrNotAuthenticated)
	_, err = s.History(ctx)
	assert.ErrorIs(t, err, domain.ErrNotAuthenticated)
}

func TestSession_LoginLogout(t *testing.T) {
	ctx := context.Background()
	s := session.New(newLedger(t))

	assert.False(t, s.Login(ctx, "alice", "wrong"))
	assert.Equal(t, session.Anonymous, s.State())

	require.True(t, s.Login(ctx, "alice", "1234"))
	assert.Equal(t, session.Authenticated, s.State())
	user, ok := s.User()
	assert.True(t, ok)
	assert.Equal(t, "alice", user)

	bal, err := s.Deposit(ctx, "50")
	require.NoError(t, err)
	assert.Equal(t, "150", bal.String())

	history, err := s.History(ctx)
	require.NoError(t, err)
	assert.Len(t, history, 1)

	// 登入失敗不會改變目前的綁定
	assert.False(t, s.Login(ctx, "bob", "nope"))
	user, _ = s.User()
	assert.Equal(t, "alice", user)

	s.Logout()
	assert.Equal(t, session.Anonymous, s.State())
	_, err = s.Balance(ctx)
	assert.ErrorIs(t, err, domain.ErrNotAuthenticated)
}

func TestSession_IndependentSessionsShareLedger(t *testing.T) {
	ctx := context.Background()
	ledger := newLedger(t)
	alice := session.New(ledger)
	bob := session.New(ledger)

	require.True(t, alice.Login(ctx, "alice", "1234"))
	require.True(t, bob.Login(ctx, "bob", "4321"))

	_, err := bob.Withdraw(ctx, "10")
	assert.ErrorIs(t, err, domain.ErrInsufficientFunds)

	_, err = alice.Withdraw(ctx, "10")
	require.NoError(t, err)

	aliceBal, _ := alice.Balance(ctx)
	bobBal, _ := bob.Balance(ctx)
	assert.Equal(t, "90", aliceBal.String())
	assert.Equal(t, "5", bobBal.String())
}

func TestSession_LogoutForgetsCachedCredentials(t *testing.T) {
	ctx := context.Background()
	ledger := &forgettingLedger{LocalLedger: newLedger(t)}
	s := session.New(ledger)

	s.Logout()
	assert.Empty(t, ledger.forgotten)

	require.True(t, s.Login(ctx, "alice", "1234"))
	s.Logout()
	assert.Equal(t, []string{"alice"}, ledger.forgotten)
}

func TestSession_SwitchingUserForgetsPrevious(t *testing.T) {
	ctx := context.Background()
	ledger := &forgettingLedger{LocalLedger: newLedger(t)}
	s := session.New(ledger)

	require.True(t, s.Login(ctx, "alice", "1234"))
	require.True(t, s.Login(ctx, "bob", "4321"))
	assert.Equal(t, []string{"alice"}, ledger.forgotten)
	user, _ := s.User()
	assert.Equal(t, "bob", user)

	// 失敗的登入不影響目前帳號
	assert.False(t, s.Login(ctx, "alice", "wrong"))
	user, _ = s.User()
	assert.Equal(t, "bob", user)

	// 同一帳號重新登入不清除
	require.True(t, s.Login(ctx, "bob", "4321"))
	assert.Equal(t, []string{"alice"}, ledger.forgotten)

	s.Logout()
	assert.Equal(t, []string{"alice", "bob"}, ledger.forgotten)
}

func TestState_String(t *testing.T) {
	assert.Equal(t, "Anonymous", session.Anonymous.String())
	assert.Equal(t, "Authenticated", session.Authenticated.String())
}
