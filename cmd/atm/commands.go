package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func (a *app) registerCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "register <username> <pin> <initial-balance>",
		Short: "開立新帳戶",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := a.context(cmd.Context())
			defer cancel()

			c, err := a.client()
			if err != nil {
				return err
			}
			if err := c.Register(ctx, args[0], args[1], args[2]); err != nil {
				return message(err)
			}
			fmt.Fprintln(a.out, "Account created Successfully")
			return nil
		},
	}
}

func (a *app) balanceCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "balance",
		Short: "查詢餘額",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cancel := a.context(cmd.Context())
			defer cancel()

			s, err := a.login(ctx)
			if err != nil {
				return err
			}
			defer s.Logout()

			balance, err := s.Balance(ctx)
			if err != nil {
				return message(err)
			}
			fmt.Fprintf(a.out, "Your current balance is: %s\n", balance.StringFixed(2))
			return nil
		},
	}
}

func (a *app) depositCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "deposit <amount>",
		Short: "存款",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := a.context(cmd.Context())
			defer cancel()

			s, err := a.login(ctx)
			if err != nil {
				return err
			}
			defer s.Logout()

			if _, err := s.Deposit(ctx, args[0]); err != nil {
				return message(err)
			}
			fmt.Fprintf(a.out, "Deposited %s successfully\n", strings.TrimSpace(args[0]))
			return nil
		},
	}
}

func (a *app) withdrawCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "withdraw <amount>",
		Short: "提款",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := a.context(cmd.Context())
			defer cancel()

			s, err := a.login(ctx)
			if err != nil {
				return err
			}
			defer s.Logout()

			if _, err := s.Withdraw(ctx, args[0]); err != nil {
				return message(err)
			}
			fmt.Fprintf(a.out, "Withdrawn %s Successfully\n", strings.TrimSpace(args[0]))
			return nil
		},
	}
}

func (a *app) historyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "history",
		Short: "交易紀錄 (新到舊)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cancel := a.context(cmd.Context())
			defer cancel()

			s, err := a.login(ctx)
			if err != nil {
				return err
			}
			defer s.Logout()

			records, err := s.History(ctx)
			if err != nil {
				return message(err)
			}
			if len(records) == 0 {
				fmt.Fprintln(a.out, "No transactions yet")
				return nil
			}
			for _, rec := range records {
				fmt.Fprintln(a.out, rec.String())
			}
			return nil
		},
	}
}
