package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	grpc_adapter "github.com/JoeShih716/go-atm-ledger/internal/app/core/adapter/in/grpc"
	http_adapter "github.com/JoeShih716/go-atm-ledger/internal/app/core/adapter/in/http"
	memory_adapter "github.com/JoeShih716/go-atm-ledger/internal/app/core/adapter/out/memory"
	"github.com/JoeShih716/go-atm-ledger/internal/app/core/usecase"
	"github.com/JoeShih716/go-atm-ledger/internal/config"
)

const shutdownTimeout = 10 * time.Second

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var configPath string
	cmd := &cobra.Command{
		Use:           "core",
		Short:         "ATM 帳本服務 (gRPC + HTTP)",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				fmt.Fprintln(os.Stderr, err)
				return err
			}
			logger := cfg.Log.NewLogger(os.Stdout)
			slog.SetDefault(logger)

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			if err := run(ctx, cfg, logger); err != nil {
				logger.Error("server exited with error", "error", err)
				return err
			}
			logger.Info("server exited")
			return nil
		},
	}
	cmd.Flags().StringVarP(&configPath, "config", "c", "config/config.yaml", "設定檔路徑")
	return cmd
}

// newStore 依 store.type 選擇帳本實作；LMAX 隨 ctx 結束而停止
func newStore(ctx context.Context, cfg config.StoreConfig) usecase.AccountStore {
	switch cfg.Type {
	case config.StoreLMAX:
		return memory_adapter.NewLMAXStore(ctx)
	default:
		return memory_adapter.NewMutexStore()
	}
}

func run(ctx context.Context, cfg config.Config, logger *slog.Logger) error {
	// 1. 帳本與 UseCase
	storeCtx, stopStore := context.WithCancel(context.Background())
	defer stopStore()
	core := usecase.NewLedgerService(newStore(storeCtx, cfg.Store), logger)
	logger.Info("ledger ready", "store", cfg.Store.Type)

	// 2. gRPC Adapter
	grpcServer := grpc_adapter.NewServer(core, logger)
	lis, err := net.Listen("tcp", cfg.GRPC.Addr)
	if err != nil {
		return fmt.Errorf("listen grpc %s: %w", cfg.GRPC.Addr, err)
	}

	// 3. HTTP Adapter
	tokens := http_adapter.NewTokenIssuer(cfg.HTTP.TokenSecret, cfg.HTTP.TokenTTL)
	httpServer := &http.Server{
		Addr:              cfg.HTTP.Addr,
		Handler:           http_adapter.NewRouter(http_adapter.NewHandler(core, tokens, logger), cfg.HTTP.AllowedOrigins),
		ReadHeaderTimeout: 5 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("starting gRPC server", "addr", cfg.GRPC.Addr)
		return grpcServer.Serve(lis)
	})
	g.Go(func() error {
		logger.Info("starting HTTP server", "addr", cfg.HTTP.Addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	// Graceful Shutdown
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		err := httpServer.Shutdown(shutdownCtx)
		grpcServer.GracefulStop()
		// 所有請求結束後才停止帳本
		stopStore()
		return err
	})

	return g.Wait()
}
