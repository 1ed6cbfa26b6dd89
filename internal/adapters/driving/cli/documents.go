package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

var documentsCmd = &cobra.Command{
	Use:         "documents",
	Aliases:     []string{"docs"},
	Short:       "Manage the documents directory",
	Annotations: annotate("documents", false),
}

var documentsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List supported documents",
	RunE:  runDocumentsList,
}

var documentsAddCmd = &cobra.Command{
	Use:   "add <file>...",
	Short: "Copy files into the documents directory",
	Long: `Copy PDF, text and Markdown files into the documents directory.

The index is not rebuilt; run 'docchat reload' afterwards.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runDocumentsAdd,
}

func init() {
	documentsListCmd.Flags().Bool("json", false, "output as JSON")
	documentsCmd.AddCommand(documentsListCmd)
	documentsCmd.AddCommand(documentsAddCmd)
	rootCmd.AddCommand(documentsCmd)
}

func runDocumentsList(cmd *cobra.Command, _ []string) error {
	if documentService == nil {
		return errNotConfigured("document")
	}
	jsonOutput, err := cmd.Flags().GetBool("json")
	if err != nil {
		return fmt.Errorf("getting json flag: %w", err)
	}

	docs, err := documentService.List(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to list documents: %w", err)
	}

	if jsonOutput {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(docs)
	}

	if len(docs) == 0 {
		cmd.Printf("No documents in %s\n", documentService.Dir())
		return nil
	}

	cmd.Printf("Documents in %s:\n\n", documentService.Dir())
	cmd.Printf("%-50s %-6s %s\n", "NAME", "TYPE", "SIZE")
	cmd.Printf("%-50s %-6s %s\n", "----", "----", "----")
	for _, d := range docs {
		cmd.Printf("%-50s %-6s %s\n", truncate(d.Name, 50), d.Type, humanize.IBytes(uint64(d.Size)))
	}
	cmd.Printf("\nTotal: %d document(s)\n", len(docs))
	return nil
}

func runDocumentsAdd(cmd *cobra.Command, args []string) error {
	if documentService == nil {
		return errNotConfigured("document")
	}

	var failed int
	for _, path := range args {
		content, err := os.ReadFile(path)
		if err != nil {
			cmd.PrintErrf("%s: %v\n", path, err)
			failed++
			continue
		}
		name := filepath.Base(path)
		if err := documentService.Upload(cmd.Context(), name, content); err != nil {
			cmd.PrintErrf("%s: %v\n", path, err)
			failed++
			continue
		}
		cmd.Printf("Added %s\n", name)
	}

	added := len(args) - failed
	if added > 0 {
		cmd.Println("Run 'docchat reload' to update the index.")
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d file(s) not added", failed, len(args))
	}
	return nil
}
