package grpc

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/keepalive"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/JoeShih716/go-atm-ledger/internal/app/core/domain"
	"github.com/JoeShih716/go-atm-ledger/internal/app/core/usecase"
)

type GrpcServer struct {
	core *usecase.LedgerService
}

func NewGrpcServer(core *usecase.LedgerService) *GrpcServer {
	return &GrpcServer{
		core: core,
	}
}

// NewServer 建立已註冊 atm.v1.Ledger 的 grpc.Server
//
// 攔截器順序: 記錄 -> 驗證
// keepalive 政策需容許 pkg/grpc Pool 的 10 秒 ping
func NewServer(core *usecase.LedgerService, logger *slog.Logger, opts ...grpc.ServerOption) *grpc.Server {
	if logger == nil {
		logger = slog.Default()
	}
	serverOpts := []grpc.ServerOption{
		grpc.ChainUnaryInterceptor(
			LoggingInterceptor(logger),
			AuthInterceptor(core),
		),
		grpc.KeepaliveEnforcementPolicy(keepalive.EnforcementPolicy{
			MinTime:             5 * time.Second,
			PermitWithoutStream: true,
		}),
	}
	s := grpc.NewServer(append(serverOpts, opts...)...)
	RegisterLedgerServer(s, NewGrpcServer(core))
	return s
}

func (s *GrpcServer) Register(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	err := s.core.Register(ctx,
		StringField(req, FieldUsername),
		StringField(req, FieldCredential),
		StringField(req, FieldInitialBalance),
	)
	if err != nil {
		return nil, toStatus(err)
	}
	return &structpb.Struct{}, nil
}

// Authenticate 驗證失敗不是錯誤，回傳 authenticated=false
func (s *GrpcServer) Authenticate(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	ok := s.core.Authenticate(ctx, StringField(req, FieldUsername), StringField(req, FieldCredential))
	return structpb.NewStruct(map[string]interface{}{
		FieldAuthenticated: ok,
	})
}

func (s *GrpcServer) Deposit(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	return s.post(ctx, domain.TransactionTypeDeposit, req)
}

func (s *GrpcServer) Withdraw(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	return s.post(ctx, domain.TransactionTypeWithdraw, req)
}

func (s *GrpcServer) post(ctx context.Context, kind domain.TransactionType, req *structpb.Struct) (*structpb.Struct, error) {
	// 1. ref_id 可省略，提供時重送不會重複入帳
	refID := uuid.New()
	if raw := StringField(req, FieldRefID); raw != "" {
		u, err := uuid.Parse(raw)
		if err != nil {
			return nil, status.Error(codes.InvalidArgument, "invalid ref_id: "+err.Error())
		}
		refID = u
	}

	// 2. 執行交易，帳號來自驗證後的 context
	balance, err := s.core.Post(ctx, UsernameFromContext(ctx), kind, StringField(req, FieldAmount), refID)
	if err != nil {
		return nil, toStatus(err)
	}
	return balanceStruct(balance)
}

func (s *GrpcServer) Balance(ctx context.Context, _ *structpb.Struct) (*structpb.Struct, error) {
	balance, err := s.core.Balance(ctx, UsernameFromContext(ctx))
	if err != nil {
		return nil, toStatus(err)
	}
	return balanceStruct(balance)
}

func (s *GrpcServer) History(ctx context.Context, _ *structpb.Struct) (*structpb.Struct, error) {
	username := UsernameFromContext(ctx)
	if username == "" {
		return nil, toStatus(domain.ErrNotAuthenticated)
	}
	return recordsStruct(s.core.History(ctx, username))
}

var _ LedgerServer = (*GrpcServer)(nil)
