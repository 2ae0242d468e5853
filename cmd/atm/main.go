// atm 是 ATM 帳本服務的命令列客戶端。
//
// 連線設定依序取自: 命令列旗標 > ATM_* 環境變數 > 目前目錄的 .env
//
//	ATM_SERVER  服務位址 (預設 localhost:50051)
//	ATM_USER    帳號
//	ATM_PIN     PIN
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"google.golang.org/grpc"

	"github.com/JoeShih716/go-atm-ledger/internal/app/core/domain"
	grpcpool "github.com/JoeShih716/go-atm-ledger/pkg/grpc"
	"github.com/JoeShih716/go-atm-ledger/pkg/ledgerclient"
	"github.com/JoeShih716/go-atm-ledger/pkg/session"
)

const (
	keyServer  = "server"
	keyUser    = "user"
	keyPIN     = "pin"
	keyTimeout = "timeout"
	keyVerbose = "verbose"
)

func main() {
	// .env 僅供本機開發，找不到不是錯誤
	_ = godotenv.Load()

	if err := newRootCmd(viper.New(), os.Stdout).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// app 一次指令執行所需的連線與設定
type app struct {
	v      *viper.Viper
	out    io.Writer
	logger *slog.Logger
	pool   *grpcpool.Pool
	dial   []grpc.DialOption
}

func newRootCmd(v *viper.Viper, out io.Writer, dial ...grpc.DialOption) *cobra.Command {
	a := &app{v: v, out: out, dial: dial}

	root := &cobra.Command{
		Use:           "atm",
		Short:         "ATM 帳本客戶端",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, _ []string) {
			level := slog.LevelWarn
			if v.GetBool(keyVerbose) {
				level = slog.LevelDebug
			}
			a.logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
		},
		PersistentPostRun: func(*cobra.Command, []string) {
			if a.pool != nil {
				_ = a.pool.Close()
			}
		},
	}
	root.SetOut(out)

	flags := root.PersistentFlags()
	flags.String(keyServer, "localhost:50051", "帳本服務 gRPC 位址")
	flags.String(keyUser, "", "帳號")
	flags.String(keyPIN, "", "PIN")
	flags.Duration(keyTimeout, 10*time.Second, "單次請求逾時")
	flags.BoolP(keyVerbose, "v", false, "輸出 RPC 記錄")
	for _, key := range []string{keyServer, keyUser, keyPIN, keyTimeout, keyVerbose} {
		_ = v.BindPFlag(key, flags.Lookup(key))
	}
	v.SetEnvPrefix("ATM")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	root.AddCommand(
		a.registerCmd(),
		a.balanceCmd(),
		a.depositCmd(),
		a.withdrawCmd(),
		a.historyCmd(),
		a.benchCmd(),
	)
	return root
}

// client 從連線池取得連線並包成 ledgerclient
func (a *app) client() (*ledgerclient.Client, error) {
	if a.pool == nil {
		a.pool = grpcpool.NewPool(
			grpcpool.WithInterceptor(loggingInterceptor(a.logger)),
			grpcpool.WithDialOptions(a.dial...),
		)
	}
	conn, err := a.pool.GetConnection(a.v.GetString(keyServer))
	if err != nil {
		return nil, err
	}
	return ledgerclient.New(conn), nil
}

func (a *app) context(parent context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(parent, a.v.GetDuration(keyTimeout))
}

// login 以設定的帳號 PIN 建立已驗證的 Session
func (a *app) login(ctx context.Context) (*session.Session, error) {
	c, err := a.client()
	if err != nil {
		return nil, err
	}
	s := session.New(c)
	if !s.Login(ctx, a.v.GetString(keyUser), a.v.GetString(keyPIN)) {
		return nil, errors.New("Invalid username or PIN")
	}
	return s, nil
}

// message 將領域錯誤轉成使用者看得懂的訊息
func message(err error) error {
	switch {
	case errors.Is(err, domain.ErrDuplicateUser):
		return errors.New("Username already exists")
	case errors.Is(err, domain.ErrInvalidUsername):
		return errors.New("Username must not be empty")
	case errors.Is(err, domain.ErrInvalidAmount):
		return errors.New("Please Enter valid amount")
	case errors.Is(err, domain.ErrInsufficientFunds):
		return errors.New("Insufficient Balance")
	case errors.Is(err, domain.ErrNotAuthenticated):
		return errors.New("No user logged in")
	default:
		return err
	}
}

func loggingInterceptor(logger *slog.Logger) grpc.UnaryClientInterceptor {
	return func(ctx context.Context, method string, req, reply interface{}, cc *grpc.ClientConn, invoker grpc.UnaryInvoker, opts ...grpc.CallOption) error {
		start := time.Now()
		err := invoker(ctx, method, req, reply, cc, opts...)
		logger.Debug("rpc", "method", method, "duration", time.Since(start), "error", err)
		return err
	}
}
