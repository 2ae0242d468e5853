package grpc_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
	"google.golang.org/protobuf/types/known/structpb"

	grpc_adapter "github.com/JoeShih716/go-atm-ledger/internal/app/core/adapter/in/grpc"
	"github.com/JoeShih716/go-atm-ledger/internal/app/core/adapter/out/memory"
	"github.com/JoeShih716/go-atm-ledger/internal/app/core/domain"
	"github.com/JoeShih716/go-atm-ledger/internal/app/core/usecase"
	grpcpool "github.com/JoeShih716/go-atm-ledger/pkg/grpc"
	"github.com/JoeShih716/go-atm-ledger/pkg/ledgerclient"
	"github.com/JoeShih716/go-atm-ledger/pkg/session"
)

var _ session.Ledger = (*ledgerclient.Client)(nil)

// startServer 以 bufconn 啟動完整的 gRPC 服務並回傳連線
func startServer(t *testing.T) *grpc.ClientConn {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	core := usecase.NewLedgerService(memory.NewMutexStore(), logger)

	lis := bufconn.Listen(1 << 20)
	srv := grpc_adapter.NewServer(core, logger)
	go func() { _ = srv.Serve(lis) }()
	t.Cleanup(srv.Stop)

	pool := grpcpool.NewPool(grpcpool.WithDialOptions(
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
	))
	t.Cleanup(func() { _ = pool.Close() })

	conn, err := pool.GetConnection("passthrough:///bufnet")
	require.NoError(t, err)
	return conn
}

func TestGrpc_Scenario(t *testing.T) {
	ctx := context.Background()
	client := ledgerclient.New(startServer(t))

	require.NoError(t, client.Register(ctx, "alice", "1234", "100"))

	s := session.New(client)
	require.True(t, s.Login(ctx, "alice", "1234"))

	bal, err := s.Deposit(ctx, "50")
	require.NoError(t, err)
	assert.Equal(t, "150", bal.String())

	_, err = s.Withdraw(ctx, "200")
	assert.ErrorIs(t, err, domain.ErrInsufficientFunds)

	bal, err = s.Balance(ctx)
	require.NoError(t, err)
	assert.Equal(t, "150", bal.String())

	bal, err = s.Withdraw(ctx, "150")
	require.NoError(t, err)
	assert.True(t, bal.IsZero())

	history, err := s.History(ctx)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, domain.TransactionTypeWithdraw, history[0].Kind)
	assert.Equal(t, "150", history[0].Amount.String())
	assert.Equal(t, domain.TransactionTypeDeposit, history[1].Kind)
	assert.Equal(t, "50", history[1].Amount.String())
	assert.False(t, history[0].Timestamp.Before(history[1].Timestamp))

	s.Logout()
	_, err = client.Balance(ctx, "alice")
	assert.ErrorIs(t, err, domain.ErrNotAuthenticated)
}

func TestGrpc_ErrorsRoundTrip(t *testing.T) {
	ctx := context.Background()
	client := ledgerclient.New(startServer(t))

	require.NoError(t, client.Register(ctx, "alice", "1234", "10"))
	assert.ErrorIs(t, client.Register(ctx, "alice", "1234", "10"), domain.ErrDuplicateUser)
	assert.ErrorIs(t, client.Register(ctx, "bob", "1", "-3"), domain.ErrInvalidAmount)
	assert.ErrorIs(t, client.Register(ctx, "", "1", "3"), domain.ErrInvalidUsername)

	assert.False(t, client.Authenticate(ctx, "alice", "9999"))
	assert.False(t, client.Authenticate(ctx, "nobody", "1234"))

	// 未驗證即呼叫
	_, err := client.Deposit(ctx, "alice", "5")
	assert.ErrorIs(t, err, domain.ErrNotAuthenticated)
	_, err = client.History(ctx, "alice")
	assert.ErrorIs(t, err, domain.ErrNotAuthenticated)

	require.True(t, client.Authenticate(ctx, "alice", "1234"))
	_, err = client.Deposit(ctx, "alice", "abc")
	assert.ErrorIs(t, err, domain.ErrInvalidAmount)
	assert.Contains(t, err.Error(), `"abc" is not a number`)
	_, err = client.Withdraw(ctx, "alice", "0")
	assert.ErrorIs(t, err, domain.ErrInvalidAmount)

	bal, err := client.Balance(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, "10", bal.String())
}

func TestGrpc_NonASCIICredentials(t *testing.T) {
	ctx := context.Background()
	conn := startServer(t)
	client := ledgerclient.New(conn)

	for _, tc := range []struct{ username, pin string }{
		{"josé", "1234"},
		{"王小明", "密碼"},
		{"bob\n", "pin\twith\ttabs"},
	} {
		require.NoError(t, client.Register(ctx, tc.username, tc.pin, "10"), tc.username)

		s := session.New(client)
		require.True(t, s.Login(ctx, tc.username, tc.pin), tc.username)

		bal, err := s.Deposit(ctx, "5")
		require.NoError(t, err, tc.username)
		assert.Equal(t, "15", bal.String())

		bal, err = s.Withdraw(ctx, "3")
		require.NoError(t, err, tc.username)
		assert.Equal(t, "12", bal.String())

		bal, err = s.Balance(ctx)
		require.NoError(t, err, tc.username)
		assert.Equal(t, "12", bal.String())

		history, err := s.History(ctx)
		require.NoError(t, err, tc.username)
		assert.Len(t, history, 2)
	}

	// 錯誤的 PIN 仍被拒絕
	authCtx := metadataContext(ctx, "josé", "0000")
	err := conn.Invoke(authCtx, grpc_adapter.MethodBalance, &structpb.Struct{}, new(structpb.Struct))
	assert.Equal(t, codes.Unauthenticated, status.Code(err))
}

func TestGrpc_SwitchingSessionUserDropsOldCredentials(t *testing.T) {
	ctx := context.Background()
	client := ledgerclient.New(startServer(t))
	require.NoError(t, client.Register(ctx, "alice", "1234", "10"))
	require.NoError(t, client.Register(ctx, "bob", "4321", "20"))

	s := session.New(client)
	require.True(t, s.Login(ctx, "alice", "1234"))
	require.True(t, s.Login(ctx, "bob", "4321"))

	_, err := client.Balance(ctx, "alice")
	assert.ErrorIs(t, err, domain.ErrNotAuthenticated)

	bal, err := s.Balance(ctx)
	require.NoError(t, err)
	assert.Equal(t, "20", bal.String())
}

func TestGrpc_RetriedReferenceAppliesOnce(t *testing.T) {
	ctx := context.Background()
	client := ledgerclient.New(startServer(t))
	require.NoError(t, client.Register(ctx, "alice", "1234", "0"))
	require.True(t, client.Authenticate(ctx, "alice", "1234"))

	ref := uuid.New()
	for i := 0; i < 3; i++ {
		bal, err := client.Post(ctx, "alice", domain.TransactionTypeDeposit, "7.5", ref)
		require.NoError(t, err)
		assert.Equal(t, "7.5", bal.String())
	}
	history, err := client.History(ctx, "alice")
	require.NoError(t, err)
	assert.Len(t, history, 1)
	assert.Equal(t, ref, history[0].ID)
}

func TestGrpc_InvalidRefID(t *testing.T) {
	ctx := context.Background()
	conn := startServer(t)
	client := ledgerclient.New(conn)
	require.NoError(t, client.Register(ctx, "alice", "1234", "0"))

	req, err := structpb.NewStruct(map[string]interface{}{
		grpc_adapter.FieldAmount: "1",
		grpc_adapter.FieldRefID:  "not-a-uuid",
	})
	require.NoError(t, err)

	authCtx := metadataContext(ctx, "alice", "1234")
	err = conn.Invoke(authCtx, grpc_adapter.MethodDeposit, req, new(structpb.Struct))
	assert.Equal(t, codes.InvalidArgument, status.Code(err))
}

func TestErrorFromStatus(t *testing.T) {
	assert.Nil(t, grpc_adapter.ErrorFromStatus(nil))

	err := grpc_adapter.ErrorFromStatus(status.Error(codes.NotFound, "user not found"))
	assert.Equal(t, domain.ErrUserNotFound, err)

	err = grpc_adapter.ErrorFromStatus(status.Error(codes.InvalidArgument, `invalid amount: "x" is not a number`))
	assert.ErrorIs(t, err, domain.ErrInvalidAmount)
	assert.Equal(t, `invalid amount: "x" is not a number`, err.Error())

	err = grpc_adapter.ErrorFromStatus(status.Error(codes.InvalidArgument, "unsupported transaction type: TransactionType(7)"))
	assert.ErrorIs(t, err, domain.ErrUnsupportedTransaction)

	raw := status.Error(codes.Internal, "boom")
	assert.True(t, errors.Is(grpc_adapter.ErrorFromStatus(raw), raw))
}
