package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/iho/bankledger/internal/adapter/http/dto"
	"github.com/iho/bankledger/internal/infrastructure/config"
	"github.com/iho/bankledger/internal/infrastructure/logger"
	"github.com/iho/bankledger/internal/infrastructure/postgres"
)

var (
	baseURL string
	timeout time.Duration
)

func main() {
	if err := newRootCmd(os.Stdout).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd(out io.Writer) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "bankledger-cli",
		Short:         "BankLedger CLI tool",
		Long:          `A command line interface for interacting with the BankLedger API.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.SetOut(out)

	rootCmd.PersistentFlags().StringVar(&baseURL, "url", "http://localhost:8080", "Base URL of the BankLedger API")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 10*time.Second, "Request timeout")

	rootCmd.AddCommand(
		accountCmd(),
		transactionCmd("deposit", "DEPOSIT", "Deposit into an account"),
		transactionCmd("withdraw", "WITHDRAWAL", "Withdraw from an account"),
		loanCmd(),
		reportCmd(),
		reconcileCmd(),
		migrateCmd(),
	)

	return rootCmd
}

// apiClient calls the BankLedger HTTP API.
type apiClient struct {
	baseURL string
	http    *http.Client
}

func newAPIClient() *apiClient {
	return &apiClient{
		baseURL: strings.TrimRight(baseURL, "/") + "/api/v1",
		http:    &http.Client{Timeout: timeout},
	}
}

func (c *apiClient) do(method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequest(method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("error making request: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	if resp.StatusCode >= http.StatusBadRequest {
		var apiErr dto.ErrorResponse
		if json.Unmarshal(data, &apiErr) == nil && apiErr.Error != "" {
			if apiErr.Reason != "" {
				return fmt.Errorf("%s (%s): %s", apiErr.Error, apiErr.Reason, apiErr.Message)
			}
			return fmt.Errorf("%s: %s", apiErr.Error, apiErr.Message)
		}
		return fmt.Errorf("request failed (status %d): %s", resp.StatusCode, truncate(string(data), 200))
	}

	return json.Unmarshal(data, out)
}

func accountCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "account",
		Short: "Account operations",
	}

	var initialBalance string
	openCmd := &cobra.Command{
		Use:   "open <owner>",
		Short: "Open the account of an owner",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var account dto.AccountResponse
			req := dto.OpenAccountRequest{OwnerID: args[0], InitialBalance: initialBalance}
			if err := newAPIClient().do(http.MethodPost, "/accounts/", req, &account); err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), account)
		},
	}
	openCmd.Flags().StringVar(&initialBalance, "initial-balance", "", "Opening balance")

	showCmd := &cobra.Command{
		Use:   "show <account>",
		Short: "Show an account and its balance",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var account dto.AccountResponse
			if err := newAPIClient().do(http.MethodGet, "/accounts/"+url.PathEscape(args[0]), nil, &account); err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), account)
		},
	}

	cmd.AddCommand(openCmd, showCmd)
	return cmd
}

func transactionCmd(use, txType, short string) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <account> <amount>",
		Short: short,
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return applyTransaction(cmd.OutOrStdout(), args[0], txType, args[1])
		},
	}
}

func applyTransaction(out io.Writer, accountID, txType, amount string) error {
	var entry dto.EntryResponse
	req := dto.ApplyTransactionRequest{Type: txType, Amount: amount}
	if err := newAPIClient().do(http.MethodPost, "/accounts/"+url.PathEscape(accountID)+"/transactions", req, &entry); err != nil {
		return err
	}
	return printJSON(out, entry)
}

func loanCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "loan",
		Short: "Loan operations",
	}

	requestCmd := &cobra.Command{
		Use:   "request <account> <amount>",
		Short: "Request a loan",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return applyTransaction(cmd.OutOrStdout(), args[0], "LOAN", args[1])
		},
	}

	transition := func(use, action, short string) *cobra.Command {
		return &cobra.Command{
			Use:   use + " <loan>",
			Short: short,
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				var entry dto.EntryResponse
				if err := newAPIClient().do(http.MethodPost, "/loans/"+url.PathEscape(args[0])+"/"+action, nil, &entry); err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), entry)
			},
		}
	}

	listCmd := &cobra.Command{
		Use:   "list <account>",
		Short: "List the loans of an account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var loans []dto.EntryResponse
			if err := newAPIClient().do(http.MethodGet, "/accounts/"+url.PathEscape(args[0])+"/loans", nil, &loans); err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "%-28s %-10s %12s %s\n", "ID", "STATE", "AMOUNT", "CREATED")
			for _, l := range loans {
				fmt.Fprintf(w, "%-28s %-10s %12s %s\n", truncate(l.ID, 28), l.LoanState, l.Amount.StringFixed(2), l.CreatedAt.Format(time.RFC3339))
			}
			return nil
		},
	}

	cmd.AddCommand(
		requestCmd,
		transition("approve", "approve", "Approve a requested loan"),
		transition("pay", "pay", "Repay an approved loan"),
		listCmd,
	)
	return cmd
}

func reportCmd() *cobra.Command {
	var start, end string
	var types []string

	cmd := &cobra.Command{
		Use:   "report <account>",
		Short: "Report the transactions of an account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			q := url.Values{}
			if start != "" {
				q.Set("start", start)
			}
			if end != "" {
				q.Set("end", end)
			}
			for _, t := range types {
				q.Add("type", t)
			}

			path := "/accounts/" + url.PathEscape(args[0]) + "/transactions"
			if len(q) > 0 {
				path += "?" + q.Encode()
			}

			var report dto.ReportResponse
			if err := newAPIClient().do(http.MethodGet, path, nil, &report); err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), report)
		},
	}

	cmd.Flags().StringVar(&start, "start", "", "First day of the report (YYYY-MM-DD)")
	cmd.Flags().StringVar(&end, "end", "", "Last day of the report (YYYY-MM-DD)")
	cmd.Flags().StringSliceVar(&types, "type", nil, "Transaction types to include")
	return cmd
}

func reconcileCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reconcile [account]",
		Short: "Reconcile one account, or all accounts",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := newAPIClient()
			w := cmd.OutOrStdout()

			if len(args) == 1 {
				var result dto.ReconciliationResponse
				if err := client.do(http.MethodGet, "/accounts/"+url.PathEscape(args[0])+"/reconciliation", nil, &result); err != nil {
					return err
				}
				if !result.IsReconciled {
					fmt.Fprintf(w, "Reconciliation FAILED for %s (difference %s)\n", result.AccountID, result.Difference)
				} else {
					fmt.Fprintf(w, "Reconciliation PASSED for %s\n", result.AccountID)
				}
				return printJSON(w, result)
			}

			var report dto.ReconciliationReportResponse
			if err := client.do(http.MethodGet, "/reconciliation", nil, &report); err != nil {
				return err
			}
			fmt.Fprintf(w, "Reconciled %d of %d accounts\n", report.ReconciledAccounts, report.TotalAccounts)
			for _, d := range report.Discrepancies {
				fmt.Fprintf(w, "  %s: recorded %s, calculated %s\n", d.AccountID, d.RecordedBalance, d.CalculatedBalance)
			}
			return nil
		},
	}
}

func migrateCmd() *cobra.Command {
	var databaseURL, path string

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the database schema",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if databaseURL == "" {
				databaseURL = cfg.DatabaseURL
			}
			if path == "" {
				path = cfg.MigrationsPath
			}
			return nil
		},
	}
	cmd.PersistentFlags().StringVar(&databaseURL, "database-url", "", "Database URL (defaults to DATABASE_URL)")
	cmd.PersistentFlags().StringVar(&path, "path", "", "Migrations directory (defaults to MIGRATIONS_PATH)")

	migrator := func(cmd *cobra.Command) *postgres.Migrator {
		log := logger.New(logger.Config{Format: "console", Output: cmd.ErrOrStderr()})
		return postgres.NewMigrator(databaseURL, path, logger.Component(log, "migrate"))
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "up",
			Short: "Apply all pending migrations",
			RunE: func(cmd *cobra.Command, args []string) error {
				return migrator(cmd).Up()
			},
		},
		&cobra.Command{
			Use:   "down",
			Short: "Roll back the last migration",
			RunE: func(cmd *cobra.Command, args []string) error {
				return migrator(cmd).Down()
			},
		},
		&cobra.Command{
			Use:   "version",
			Short: "Print the current schema version",
			RunE: func(cmd *cobra.Command, args []string) error {
				version, dirty, err := migrator(cmd).Version()
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "version %d (dirty: %v)\n", version, dirty)
				return nil
			},
		},
	)
	return cmd
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-3] + "..."
}
