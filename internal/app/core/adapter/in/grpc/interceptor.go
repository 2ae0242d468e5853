package grpc

import (
	"context"
	"log/slog"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"github.com/JoeShih716/go-atm-ledger/internal/app/core/domain"
	"github.com/JoeShih716/go-atm-ledger/internal/app/core/usecase"
)

// 帶在 metadata 的登入資訊
// 使用 -bin 結尾，grpc 會以 base64 傳送，帳號與 PIN 可以是任意 UTF-8
const (
	MetadataUsername   = "x-atm-username-bin"
	MetadataCredential = "x-atm-credential-bin"
)

type usernameKey struct{}

// publicMethods 不需登入即可呼叫
var publicMethods = map[string]bool{
	MethodRegister:     true,
	MethodAuthenticate: true,
}

// UsernameFromContext 取出 AuthInterceptor 綁定的帳號
func UsernameFromContext(ctx context.Context) string {
	username, _ := ctx.Value(usernameKey{}).(string)
	return username
}

func firstValue(md metadata.MD, key string) string {
	if v := md.Get(key); len(v) > 0 {
		return v[0]
	}
	return ""
}

// AuthInterceptor 每次請求以 metadata 驗證帳號，成功後把帳號綁進 context
func AuthInterceptor(core *usecase.LedgerService) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
		if publicMethods[info.FullMethod] {
			return handler(ctx, req)
		}
		md, _ := metadata.FromIncomingContext(ctx)
		username := firstValue(md, MetadataUsername)
		if username == "" || !core.Authenticate(ctx, username, firstValue(md, MetadataCredential)) {
			return nil, toStatus(domain.ErrNotAuthenticated)
		}
		return handler(context.WithValue(ctx, usernameKey{}, username), req)
	}
}

// LoggingInterceptor 記錄每次呼叫的方法、狀態碼與耗時
func LoggingInterceptor(logger *slog.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
		start := time.Now()
		resp, err := handler(ctx, req)
		logger.Info("grpc call",
			"method", info.FullMethod,
			"code", status.Code(err).String(),
			"duration", time.Since(start),
		)
		return resp, err
	}
}
