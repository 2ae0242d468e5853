package main

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/JoeShih716/go-atm-ledger/internal/app/core/domain"
)

// benchCmd 對單一帳戶併發送出存款，量測 TPS
func (a *app) benchCmd() *cobra.Command {
	var (
		total       int
		concurrency int
		amount      string
		duration    time.Duration
	)
	cmd := &cobra.Command{
		Use:   "bench",
		Short: "併發存款壓力測試",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if total <= 0 || concurrency <= 0 {
				return errors.New("count and concurrency must be positive")
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), duration)
			defer cancel()

			c, err := a.client()
			if err != nil {
				return err
			}
			username, pin := a.v.GetString(keyUser), a.v.GetString(keyPIN)
			// 帳戶不存在時先開戶
			if err := c.Register(ctx, username, pin, "0"); err != nil && !errors.Is(err, domain.ErrDuplicateUser) {
				return message(err)
			}
			if !c.Authenticate(ctx, username, pin) {
				return errors.New("Invalid username or PIN")
			}
			defer c.Forget(username)

			var (
				wg     sync.WaitGroup
				failed atomic.Int64
			)
			wg.Add(total)
			sem := make(chan struct{}, concurrency)
			startTime := time.Now()

			for i := 0; i < total; i++ {
				sem <- struct{}{}

				go func(idx int) {
					defer wg.Done()
					defer func() { <-sem }()

					_, err := c.Post(ctx, username, domain.TransactionTypeDeposit, amount, uuid.New())
					if err != nil {
						failed.Add(1)
						if idx%10000 == 0 {
							a.logger.Warn("deposit failed", "index", idx, "error", err)
						}
					}
				}(i)
			}
			wg.Wait()

			elapsed := time.Since(startTime)
			fmt.Fprintf(a.out, "Completed %d requests in %v (%d failed)\n", total, elapsed, failed.Load())
			fmt.Fprintf(a.out, "TPS: %.2f\n", float64(total)/elapsed.Seconds())

			balance, err := c.Balance(ctx, username)
			if err != nil {
				return message(err)
			}
			fmt.Fprintf(a.out, "Your current balance is: %s\n", balance.StringFixed(2))
			return nil
		},
	}
	cmd.Flags().IntVar(&total, "count", 100000, "總請求數")
	cmd.Flags().IntVar(&concurrency, "concurrency", 1000, "同時進行的請求數")
	cmd.Flags().StringVar(&amount, "amount", "1", "每筆存款金額")
	cmd.Flags().DurationVar(&duration, "duration", 120*time.Second, "整體逾時")
	return cmd
}
