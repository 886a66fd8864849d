package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/villaridge/duespay/internal/domain"
)

var (
	baseURL string
	timeout time.Duration
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "duespay-cli",
		Short: "DuesPay CLI tool",
		Long:  `A command line interface for interacting with the DuesPay API.`,
	}

	rootCmd.PersistentFlags().StringVar(&baseURL, "url", "http://localhost:8080", "Base URL of the DuesPay API")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 10*time.Second, "Request timeout")

	rootCmd.AddCommand(paymentCmd(), ledgerCmd(), importCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func paymentCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "payment",
		Short: "Payment operations",
	}

	previewCmd := &cobra.Command{
		Use:   "preview <unit-id> <amount>",
		Short: "Preview how a payment would be allocated across a unit's bills",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return previewPayment(args[0], args[1])
		},
	}

	cmd.AddCommand(previewCmd)
	return cmd
}

func ledgerCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ledger",
		Short: "Ledger operations",
	}

	consistencyCmd := &cobra.Command{
		Use:   "consistency [unit-id]",
		Short: "Check bill and credit ledger consistency",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			unitID := ""
			if len(args) == 1 {
				unitID = args[0]
			}
			return checkConsistency(unitID)
		},
	}

	cmd.AddCommand(consistencyCmd)
	return cmd
}

func importCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import <batch-file.json>",
		Short: "Submit a historical payment batch for replay",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runImport(args[0])
		},
	}
}

func previewPayment(unitID, amount string) error {
	dec, err := decimal.NewFromString(amount)
	if err != nil {
		return fmt.Errorf("invalid amount %q: %w", amount, err)
	}
	minor, err := domain.MoneyFromDecimal(dec)
	if err != nil {
		return err
	}

	body, err := json.Marshal(map[string]any{"amount": int64(minor)})
	if err != nil {
		return err
	}

	url := fmt.Sprintf("%s/api/v1/units/%s/payments/preview", baseURL, unitID)
	return postJSON(url, body)
}

type consistencyReport struct {
	UnitID     string   `json:"unit_id"`
	Consistent bool     `json:"consistent"`
	Problems   []string `json:"problems,omitempty"`
}

func checkConsistency(unitID string) error {
	url := baseURL + "/api/v1/ledger/consistency"
	if unitID != "" {
		url += "/" + unitID
	}

	client := &http.Client{Timeout: timeout}
	resp, err := client.Get(url)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("consistency check failed (status %d): %s", resp.StatusCode, respBody)
	}

	// The single-unit route returns one report, the all-units route a list.
	var reports []consistencyReport
	if unitID != "" {
		var report consistencyReport
		if err := json.Unmarshal(respBody, &report); err != nil {
			return fmt.Errorf("failed to parse response: %w", err)
		}
		reports = append(reports, report)
	} else if err := json.Unmarshal(respBody, &reports); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}

	var inconsistent []string
	for _, report := range reports {
		if !report.Consistent {
			inconsistent = append(inconsistent, report.UnitID)
		}
	}

	printJSON(reports)

	if len(inconsistent) > 0 {
		return fmt.Errorf("consistency check FAILED for %d unit(s): %v", len(inconsistent), inconsistent)
	}

	fmt.Println("Consistency check PASSED")
	return nil
}

func runImport(path string) error {
	batch, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	return postJSON(baseURL+"/api/v1/imports", batch)
}

func postJSON(url string, body []byte) error {
	client := &http.Client{Timeout: timeout}
	resp, err := client.Post(url, "application/json", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)
	if resp.StatusCode >= 300 {
		return fmt.Errorf("request rejected (status %d): %s", resp.StatusCode, respBody)
	}

	var result any
	if err := json.Unmarshal(respBody, &result); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}

	printJSON(result)
	return nil
}

func printJSON(v any) {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		fmt.Printf("failed to render response: %v\n", err)
		return
	}
	fmt.Println(string(out))
}
