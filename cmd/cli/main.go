package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"time"

	"github.com/spf13/cobra"
)

var (
	baseURL string
	timeout time.Duration
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "budgetledger-cli",
		Short: "Budget ledger CLI tool",
		Long:  `A command line interface for interacting with the budget ledger API.`,
	}

	rootCmd.PersistentFlags().StringVar(&baseURL, "url", "http://localhost:8080", "Base URL of the budget ledger API")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 10*time.Second, "Request timeout")

	rootCmd.AddCommand(lineCmd(), exerciseCmd(), transferCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func lineCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "line",
		Short: "Budget line operations",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "availability <line-id>",
		Short: "Show the availability calculation for a budget line",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return getJSON("/api/v1/budget-lines/" + args[0] + "/availability")
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "reconcile <line-id>",
		Short: "Replay movements for a line and compare against cached totals",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return getJSON("/api/v1/budget-lines/" + args[0] + "/reconciliation")
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "history <line-id>",
		Short: "Show the audit history of a budget line",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return getJSON("/api/v1/budget-lines/" + args[0] + "/history")
		},
	})

	return cmd
}

func exerciseCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "exercise",
		Short: "Exercise-wide operations",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "summary <exercise>",
		Short: "Aggregate availability across all lines of an exercise",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return getJSON("/api/v1/exercises/" + args[0] + "/summary")
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "reconcile <exercise>",
		Short: "Reconcile every line of an exercise",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return getJSON("/api/v1/exercises/" + args[0] + "/reconciliation")
		},
	})

	return cmd
}

func transferCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "transfer",
		Short: "Credit transfer operations",
	}

	var exercise, status string
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List credit transfers",
		RunE: func(cmd *cobra.Command, args []string) error {
			q := url.Values{}
			if exercise != "" {
				q.Set("exercise", exercise)
			}
			if status != "" {
				q.Set("status", status)
			}
			path := "/api/v1/transfers"
			if len(q) > 0 {
				path += "?" + q.Encode()
			}
			return getJSON(path)
		},
	}
	listCmd.Flags().StringVar(&exercise, "exercise", "", "Filter by exercise year")
	listCmd.Flags().StringVar(&status, "status", "", "Filter by transfer status")
	cmd.AddCommand(listCmd)

	cmd.AddCommand(&cobra.Command{
		Use:   "show <transfer-id>",
		Short: "Show a single transfer",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return getJSON("/api/v1/transfers/" + args[0])
		},
	})

	for _, action := range []string{"submit", "validate", "execute"} {
		action := action
		cmd.AddCommand(&cobra.Command{
			Use:   action + " <transfer-id>",
			Short: capitalize(action) + " a transfer",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return postJSON("/api/v1/transfers/"+args[0]+"/"+action, nil)
			},
		})
	}

	for _, action := range []string{"reject", "cancel"} {
		action := action
		var reason string
		reasonedCmd := &cobra.Command{
			Use:   action + " <transfer-id>",
			Short: capitalize(action) + " a transfer with a reason",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return postJSON("/api/v1/transfers/"+args[0]+"/"+action, map[string]string{"reason": reason})
			},
		}
		reasonedCmd.Flags().StringVar(&reason, "reason", "", "Reason for the decision")
		cmd.AddCommand(reasonedCmd)
	}

	return cmd
}

func getJSON(path string) error {
	client := &http.Client{Timeout: timeout}
	resp, err := client.Get(baseURL + path)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	return render(resp)
}

func postJSON(path string, body any) error {
	var payload io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		payload = bytes.NewReader(data)
	}

	client := &http.Client{Timeout: timeout}
	resp, err := client.Post(baseURL+path, "application/json", payload)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	return render(resp)
}

func render(resp *http.Response) error {
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode >= 400 {
		return fmt.Errorf("request failed (status %d): %s", resp.StatusCode, truncate(string(data), 200))
	}

	if len(data) == 0 {
		fmt.Println("OK")
		return nil
	}

	var parsed any
	if err := json.Unmarshal(data, &parsed); err != nil {
		return fmt.Errorf("parse response: %w", err)
	}

	printJSON(parsed)
	return nil
}

func printJSON(v any) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		fmt.Printf("%v\n", v)
		return
	}
	fmt.Println(string(data))
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return string(s[0]-'a'+'A') + s[1:]
}
