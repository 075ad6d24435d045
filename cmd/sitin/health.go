package main

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"
	"time"

	"github.com/spf13/cobra"

	sitinhttp "github.com/fyrsmithlabs/sitin/internal/http"
)

func init() {
	rootCmd.AddCommand(healthCmd)
}

// healthCmd checks server health
var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Check sitind server health",
	Long: `Check the health status of a running sitind.

Examples:
  sitin health
  sitin health --server http://localhost:8080`,
	Args: cobra.NoArgs,
	RunE: runHealth,
}

func runHealth(cmd *cobra.Command, _ []string) error {
	url := fmt.Sprintf("%s/health", serverURL)
	client := &http.Client{Timeout: 5 * time.Second}

	req, err := http.NewRequestWithContext(cmd.Context(), http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to connect to %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, readErr := io.ReadAll(resp.Body)
		if readErr != nil {
			return fmt.Errorf("server returned status %d (failed to read response body: %w)", resp.StatusCode, readErr)
		}
		return fmt.Errorf("server returned status %d: %s", resp.StatusCode, string(body))
	}

	var health sitinhttp.HealthResponse
	if err := json.NewDecoder(resp.Body).Decode(&health); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return printHealth(cmd.OutOrStdout(), health)
}

func printHealth(w io.Writer, h sitinhttp.HealthResponse) error {
	fmt.Fprintf(w, "Server Status: %s\n", h.Status)
	fmt.Fprintf(w, "Server URL: %s\n", serverURL)

	names := make([]string, 0, len(h.Services))
	for name := range h.Services {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(w, "  %-10s %s\n", name, h.Services[name])
	}
	if h.Records > 0 {
		fmt.Fprintf(w, "Lectures: %d\n", h.Records)
	}
	return nil
}
