package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Verify configuration and provider connectivity",
	Long: `Run installation diagnostics: configuration, credentials, the documents
directory, the index store, and connectivity to the embedding and LLM
providers. Exits with an error if any check fails.`,
	Annotations: annotate("diagnostics", false),
	RunE:        runCheck,
}

func init() {
	checkCmd.Flags().Bool("json", false, "output as JSON")
	rootCmd.AddCommand(checkCmd)
}

func runCheck(cmd *cobra.Command, _ []string) error {
	if diagnostics == nil {
		return errNotConfigured("diagnostics")
	}
	jsonOutput, err := cmd.Flags().GetBool("json")
	if err != nil {
		return fmt.Errorf("getting json flag: %w", err)
	}

	results := diagnostics.Check(cmd.Context())

	failed := 0
	for _, r := range results {
		if !r.OK {
			failed++
		}
	}

	if jsonOutput {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		if err := enc.Encode(results); err != nil {
			return fmt.Errorf("encoding results: %w", err)
		}
	} else {
		for _, r := range results {
			mark := "ok  "
			if !r.OK {
				mark = "FAIL"
			}
			if r.Detail != "" {
				cmd.Printf("[%s] %s: %s\n", mark, r.Name, r.Detail)
			} else {
				cmd.Printf("[%s] %s\n", mark, r.Name)
			}
		}
		cmd.Println()
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d checks failed", failed, len(results))
	}
	if !jsonOutput {
		cmd.Println("All checks passed.")
	}
	return nil
}
