package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/docchat/internal/core/domain"
)

// askResult is the JSON output of the ask command.
type askResult struct {
	Question    string          `json:"question"`
	Answer      string          `json:"answer"`
	ContextUsed bool            `json:"context_used"`
	Failed      bool            `json:"failed"`
	Sources     []string        `json:"sources,omitempty"`
	Passages    []passageResult `json:"passages,omitempty"`
}

type passageResult struct {
	Source string  `json:"source"`
	Page   int     `json:"page,omitempty"`
	Score  float64 `json:"score"`
	Text   string  `json:"text"`
}

var askCmd = &cobra.Command{
	Use:   "ask <question>",
	Short: "Ask a single question",
	Long: `Answer one question using the documents directory as context.

The most similar chunks are retrieved from the vector index and passed to
the LLM. Use --no-context to query the LLM directly and --sources to also
print the retrieved passages with their similarity scores.`,
	Args:        cobra.MinimumNArgs(1),
	Annotations: annotate("runtime", false),
	RunE:        runAsk,
}

func init() {
	askCmd.Flags().Bool("no-context", false, "answer without retrieved context")
	askCmd.Flags().Bool("sources", false, "show retrieved passages")
	askCmd.Flags().Bool("json", false, "output as JSON")
	askCmd.Flags().StringP("session", "s", domain.DefaultSessionID, "chat session ID")
	rootCmd.AddCommand(askCmd)
}

func runAsk(cmd *cobra.Command, args []string) error {
	if chatService == nil {
		return errNotConfigured("chat")
	}

	noContext, err := cmd.Flags().GetBool("no-context")
	if err != nil {
		return fmt.Errorf("getting no-context flag: %w", err)
	}
	showSources, err := cmd.Flags().GetBool("sources")
	if err != nil {
		return fmt.Errorf("getting sources flag: %w", err)
	}
	jsonOutput, err := cmd.Flags().GetBool("json")
	if err != nil {
		return fmt.Errorf("getting json flag: %w", err)
	}
	session, err := cmd.Flags().GetString("session")
	if err != nil {
		return fmt.Errorf("getting session flag: %w", err)
	}

	question := strings.TrimSpace(strings.Join(args, " "))
	if question == "" {
		return errors.New("question must not be empty")
	}

	if !noContext {
		initialiseIndex(cmd)
	}

	turn := chatService.Answer(cmd.Context(), session, question, !noContext)
	result := askResult{
		Question:    question,
		Answer:      turn.Response,
		ContextUsed: turn.ContextUsed,
		Failed:      turn.Failed,
		Sources:     turn.Sources,
	}

	if showSources && !noContext {
		result.Passages = retrievePassages(cmd, question)
	}

	if jsonOutput {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		if err := enc.Encode(result); err != nil {
			return fmt.Errorf("encoding answer: %w", err)
		}
	} else {
		printAnswer(cmd, result)
	}

	if turn.Failed {
		return errors.New("failed to answer")
	}
	return nil
}

func retrievePassages(cmd *cobra.Command, question string) []passageResult {
	if retrievalService == nil {
		return nil
	}
	scored, err := retrievalService.RetrieveScored(cmd.Context(), question, 0)
	if err != nil {
		if !errors.Is(err, domain.ErrIndexUnset) && !errors.Is(err, domain.ErrEmbeddingUnavailable) {
			cmd.PrintErrf("Warning: retrieving passages: %v\n", err)
		}
		return nil
	}
	out := make([]passageResult, len(scored))
	for i, sc := range scored {
		out[i] = passageResult{
			Source: sc.Chunk.SourcePath,
			Page:   sc.Chunk.Page,
			Score:  sc.Score,
			Text:   sc.Chunk.Text,
		}
	}
	return out
}

func printAnswer(cmd *cobra.Command, result askResult) {
	cmd.Println(result.Answer)

	if len(result.Sources) > 0 {
		cmd.Println()
		cmd.Println("Sources:")
		for _, s := range result.Sources {
			cmd.Printf("  - %s\n", s)
		}
	}

	if len(result.Passages) > 0 {
		cmd.Println()
		cmd.Println("Passages:")
		for i, p := range result.Passages {
			location := p.Source
			if p.Page > 0 {
				location = fmt.Sprintf("%s (page %d)", p.Source, p.Page)
			}
			cmd.Printf("%d. %s [score: %.3f]\n", i+1, location, p.Score)
			cmd.Printf("   %s\n", truncate(oneLine(p.Text), 200))
		}
	}
}

func oneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func truncate(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	return string(r[:maxLen-3]) + "..."
}
