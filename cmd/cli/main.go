package main

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/iho/splitledger/internal/infrastructure/auth"
)

var (
	baseURL string
	token   string
	timeout time.Duration
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "splitledger-cli",
		Short: "SplitLedger CLI tool",
		Long:  `A command line interface for interacting with the SplitLedger API.`,
	}

	rootCmd.PersistentFlags().StringVar(&baseURL, "url", "http://localhost:8080", "Base URL of the SplitLedger API")
	rootCmd.PersistentFlags().StringVar(&token, "token", os.Getenv("SPLITLEDGER_TOKEN"), "Bearer token for authenticated requests")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 10*time.Second, "Request timeout")

	rootCmd.AddCommand(balancesCmd(), settlementsCmd(), expensesCmd(), tokenCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func balancesCmd() *cobra.Command {
	var groupID string

	cmd := &cobra.Command{
		Use:   "balances",
		Short: "Balance operations",
	}
	cmd.PersistentFlags().StringVar(&groupID, "group", "", "Group ID")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "Show a group's simplified balances",
		Run: func(cmd *cobra.Command, args []string) {
			get("/api/v1/groups/" + groupID + "/balances/")
		},
	}

	recalculateCmd := &cobra.Command{
		Use:   "recalculate",
		Short: "Force a balance recalculation",
		Run: func(cmd *cobra.Command, args []string) {
			post("/api/v1/groups/"+groupID+"/balances/recalculate", nil)
		},
	}

	cmd.AddCommand(listCmd, recalculateCmd)
	return cmd
}

func settlementsCmd() *cobra.Command {
	var groupID string

	cmd := &cobra.Command{
		Use:   "settlements",
		Short: "Settlement operations",
	}
	cmd.PersistentFlags().StringVar(&groupID, "group", "", "Group ID")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "Show a group's settlement history",
		Run: func(cmd *cobra.Command, args []string) {
			get("/api/v1/groups/" + groupID + "/settlements/")
		},
	}

	cmd.AddCommand(listCmd)
	return cmd
}

func expensesCmd() *cobra.Command {
	var (
		groupID  string
		category string
	)

	cmd := &cobra.Command{
		Use:   "expenses",
		Short: "Expense operations",
	}
	cmd.PersistentFlags().StringVar(&groupID, "group", "", "Group ID")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List a group's expenses",
		Run: func(cmd *cobra.Command, args []string) {
			path := "/api/v1/groups/" + groupID + "/expenses/"
			if category != "" {
				path += "?category=" + category
			}
			get(path)
		},
	}
	listCmd.Flags().StringVar(&category, "category", "", "Filter by category")

	cmd.AddCommand(listCmd)
	return cmd
}

func tokenCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Token operations",
	}

	cmd.AddCommand(generateTokenCmd())
	return cmd
}

func generateTokenCmd() *cobra.Command {
	var (
		userID string
		email  string
		secret string
		ttl    time.Duration
	)

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate a bearer token for local development",
		RunE: func(cmd *cobra.Command, args []string) error {
			if secret == "" {
				secret = os.Getenv("JWT_SECRET")
			}
			if secret == "" {
				return fmt.Errorf("a signing secret is required (--secret or JWT_SECRET)")
			}
			if userID == "" {
				return fmt.Errorf("--user is required")
			}

			signed, err := auth.NewJWTManager(secret, ttl).Generate(userID, email)
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), signed)
			return nil
		},
	}

	cmd.Flags().StringVar(&userID, "user", "", "User ID to embed in the token")
	cmd.Flags().StringVar(&email, "email", "", "Email to embed in the token")
	cmd.Flags().StringVar(&secret, "secret", "", "Signing secret (defaults to JWT_SECRET)")
	cmd.Flags().DurationVar(&ttl, "ttl", 24*time.Hour, "Token lifetime")

	return cmd
}

func get(path string) {
	request(http.MethodGet, path, nil)
}

func post(path string, body io.Reader) {
	request(http.MethodPost, path, body)
}

func request(method, path string, body io.Reader) {
	client := &http.Client{Timeout: timeout}

	req, err := http.NewRequest(method, baseURL+path, body)
	if err != nil {
		fmt.Printf("Error building request: %v\n", err)
		os.Exit(1)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := client.Do(req)
	if err != nil {
		fmt.Printf("Error making request: %v\n", err)
		os.Exit(1)
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(resp.Body)

	if resp.StatusCode >= http.StatusBadRequest {
		fmt.Printf("Request failed (Status: %d)\nResponse: %s\n", resp.StatusCode, string(raw))
		os.Exit(1)
	}

	var parsed any
	if err := json.Unmarshal(raw, &parsed); err != nil {
		fmt.Println(string(raw))
		return
	}

	printJSON(parsed)
}

func printJSON(v any) {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		fmt.Printf("Failed to render response: %v\n", err)
		os.Exit(1)
	}

	fmt.Println(string(out))
}
