package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/docchat/internal/core/domain"
)

var reloadCmd = &cobra.Command{
	Use:   "reload",
	Short: "Rebuild the vector index",
	Long: `Load the documents directory, split and embed every document, and
replace the stored index.

Without --force a valid stored index built with the configured embedding
model is loaded instead of rebuilding.`,
	Annotations: annotate("runtime", false),
	RunE:        runReload,
}

var statusCmd = &cobra.Command{
	Use:         "status",
	Short:       "Show the vector index status",
	Annotations: annotate("runtime", false),
	RunE:        runStatus,
}

func init() {
	reloadCmd.Flags().BoolP("force", "f", false, "ignore the stored index and rebuild")
	statusCmd.Flags().Bool("json", false, "output as JSON")
	rootCmd.AddCommand(reloadCmd)
	rootCmd.AddCommand(statusCmd)
}

func runReload(cmd *cobra.Command, _ []string) error {
	if indexService == nil {
		return errNotConfigured("index")
	}
	force, err := cmd.Flags().GetBool("force")
	if err != nil {
		return fmt.Errorf("getting force flag: %w", err)
	}

	started := time.Now()
	report, err := indexService.Reload(cmd.Context(), force)
	printLoadErrors(cmd, report)
	if err != nil {
		if errors.Is(err, domain.ErrNoDocuments) {
			return fmt.Errorf("no documents to index in %s", documentsDir())
		}
		return err
	}

	if report.Loaded {
		cmd.Printf("Loaded stored index (%d chunks)\n", report.Chunks)
		return nil
	}
	cmd.Printf("Indexed %d documents into %d chunks in %s\n",
		report.Documents, report.Chunks, time.Since(started).Round(time.Millisecond))
	return nil
}

func runStatus(cmd *cobra.Command, _ []string) error {
	if indexService == nil {
		return errNotConfigured("index")
	}
	jsonOutput, err := cmd.Flags().GetBool("json")
	if err != nil {
		return fmt.Errorf("getting json flag: %w", err)
	}

	report, initErr := indexService.Initialise(cmd.Context())
	status := indexService.Status()

	if jsonOutput {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(status)
	}

	printLoadErrors(cmd, report)
	cmd.Printf("State: %s\n", status.State)
	if status.Ready() {
		cmd.Printf("Entries: %d\n", status.Entries)
		cmd.Printf("Dimensions: %d\n", status.Dimensions)
		cmd.Printf("Model: %s\n", status.Model)
		if !status.BuiltAt.IsZero() {
			cmd.Printf("Built: %s\n", status.BuiltAt.Local().Format(time.DateTime))
		}
	}
	if status.LastError != "" {
		cmd.Printf("Last error: %s\n", status.LastError)
	} else if initErr != nil {
		cmd.Printf("Last error: %v\n", initErr)
	}
	return nil
}

// printLoadErrors reports files skipped during a build.
func printLoadErrors(cmd *cobra.Command, report domain.BuildReport) {
	for _, le := range report.LoadErrors {
		cmd.PrintErrf("Skipped %s: %v\n", le.Path, le.Err)
	}
}

// documentsDir returns the documents directory for messages.
func documentsDir() string {
	if documentService == nil {
		return "the documents directory"
	}
	return documentService.Dir()
}

// initialiseIndex loads or builds the index before a query command.
// Failures leave the index unset; answers are then given without context.
func initialiseIndex(cmd *cobra.Command) {
	if indexService == nil {
		return
	}
	report, err := indexService.Initialise(cmd.Context())
	printLoadErrors(cmd, report)
	if err != nil {
		cmd.PrintErrf("Warning: index unavailable, answering without documents: %v\n", err)
	}
}
