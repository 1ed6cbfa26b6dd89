package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"runtime/debug"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/custodia-labs/docchat/internal/adapters/driving/tui"
	"github.com/custodia-labs/docchat/internal/core/domain"
	"github.com/custodia-labs/docchat/internal/core/ports/driving"
)

// replHistoryLimit is how many turns the history command shows.
const replHistoryLimit = 5

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Start an interactive chat",
	Long: `Chat with your documents.

In a terminal the full-screen interface is used; otherwise questions are
read line by line from standard input.

Commands:
  help            show commands
  history         show the last 5 questions
  clear           clear the chat history
  reload          rebuild the index in the background
  status          show the index status
  docs            list documents
  context on|off  toggle retrieval
  quit, exit, bye leave the chat`,
	Annotations: annotate("runtime", true),
	RunE:        runChat,
}

func init() {
	chatCmd.Flags().Bool("no-context", false, "start with retrieval disabled")
	chatCmd.Flags().Bool("watch", false, "reload the index when documents change")
	chatCmd.Flags().Bool("plain", false, "use the line interface even in a terminal")
	chatCmd.Flags().StringP("session", "s", domain.DefaultSessionID, "chat session ID")
	rootCmd.AddCommand(chatCmd)
}

func runChat(cmd *cobra.Command, _ []string) error {
	if chatService == nil {
		return errNotConfigured("chat")
	}

	noContext, err := cmd.Flags().GetBool("no-context")
	if err != nil {
		return fmt.Errorf("getting no-context flag: %w", err)
	}
	watch, err := cmd.Flags().GetBool("watch")
	if err != nil {
		return fmt.Errorf("getting watch flag: %w", err)
	}
	plain, err := cmd.Flags().GetBool("plain")
	if err != nil {
		return fmt.Errorf("getting plain flag: %w", err)
	}
	session, err := cmd.Flags().GetString("session")
	if err != nil {
		return fmt.Errorf("getting session flag: %w", err)
	}

	initialiseIndex(cmd)

	stop, err := startWatch(cmd.Context(), watch)
	if err != nil {
		return err
	}
	defer stop()

	if !plain && isTerminal(cmd.InOrStdin()) && isTerminal(cmd.OutOrStdout()) {
		return runChatTUI(cmd.Context(), session, !noContext)
	}

	r := &repl{
		in:         cmd.InOrStdin(),
		out:        cmd.OutOrStdout(),
		chat:       chatService,
		index:      indexService,
		documents:  documentService,
		session:    session,
		useContext: !noContext,
	}
	return r.run(cmd.Context())
}

func isTerminal(v any) bool {
	f, ok := v.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

func runChatTUI(ctx context.Context, session string, useContext bool) (err error) {
	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintf(os.Stderr, "Panic in TUI: %v\n", r)
			fmt.Fprintf(os.Stderr, "Stack trace:\n%s\n", debug.Stack())
			err = fmt.Errorf("TUI panic: %v", r)
		}
	}()

	app, err := tui.NewApp(&tui.Ports{
		Chat:      chatService,
		Index:     indexService,
		Documents: documentService,
	})
	if err != nil {
		return fmt.Errorf("failed to create TUI: %w", err)
	}
	app.WithContext(ctx).WithSession(session).WithRetrieval(useContext)

	p := tea.NewProgram(app, tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return fmt.Errorf("TUI error: %w", err)
	}
	return nil
}

// repl is the line-oriented chat used when stdin is not a terminal.
type repl struct {
	in         io.Reader
	out        io.Writer
	chat       driving.ChatService
	index      driving.IndexService
	documents  driving.DocumentService
	session    string
	useContext bool
}

func (r *repl) printf(format string, args ...any) {
	fmt.Fprintf(r.out, format, args...)
}

// run reads questions until end of input, a quit command, or ctx is done.
func (r *repl) run(ctx context.Context) error {
	r.printf("docchat - ask questions about your documents\n")
	r.printf("Type 'help' for commands, 'quit' to exit.\n\n")

	scanner := bufio.NewScanner(r.in)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for {
		if ctx.Err() != nil {
			return nil
		}
		r.printf("You: ")
		if !scanner.Scan() {
			r.printf("\nGoodbye!\n")
			return scanner.Err()
		}

		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if quit := r.handle(ctx, line); quit {
			r.printf("Goodbye!\n")
			return nil
		}
	}
}

// handle runs a command or answers a question. It returns true to quit.
func (r *repl) handle(ctx context.Context, line string) bool {
	fields := strings.Fields(strings.ToLower(line))
	switch fields[0] {
	case "quit", "exit", "bye":
		if len(fields) == 1 {
			return true
		}
	case "help":
		if len(fields) == 1 {
			r.help()
			return false
		}
	case "history":
		if len(fields) == 1 {
			r.history()
			return false
		}
	case "clear":
		if len(fields) == 1 {
			r.chat.ClearHistory(r.session)
			r.printf("Chat history cleared.\n\n")
			return false
		}
	case "reload":
		if len(fields) == 1 {
			r.reload()
			return false
		}
	case "status":
		if len(fields) == 1 {
			r.status()
			return false
		}
	case "docs":
		if len(fields) == 1 {
			r.docs(ctx)
			return false
		}
	case "context":
		if len(fields) == 2 && (fields[1] == "on" || fields[1] == "off") {
			r.useContext = fields[1] == "on"
			r.printf("Context %s.\n\n", fields[1])
			return false
		}
	}

	r.ask(ctx, line)
	return false
}

func (r *repl) help() {
	r.printf("\nCommands:\n")
	r.printf("  help            show this help\n")
	r.printf("  history         show the last %d questions\n", replHistoryLimit)
	r.printf("  clear           clear the chat history\n")
	r.printf("  reload          rebuild the index in the background\n")
	r.printf("  status          show the index status\n")
	r.printf("  docs            list documents\n")
	r.printf("  context on|off  toggle retrieval (now %s)\n", onOff(r.useContext))
	r.printf("  quit, exit, bye leave the chat\n")
	r.printf("Anything else is sent as a question.\n\n")
}

func (r *repl) history() {
	turns, total := r.chat.History(r.session, replHistoryLimit)
	if total == 0 {
		r.printf("No chat history.\n\n")
		return
	}
	r.printf("\nRecent questions (%d of %d):\n", len(turns), total)
	for i, t := range turns {
		r.printf("%d. [%s] %s\n", i+1, t.Timestamp.Local().Format(time.TimeOnly), truncate(oneLine(t.Query), 60))
	}
	r.printf("\n")
}

func (r *repl) reload() {
	if r.index == nil {
		r.printf("Index not available.\n\n")
		return
	}
	err := r.index.ReloadAsync(true)
	switch {
	case err == nil:
		r.printf("Reloading documents in the background.\n\n")
	case errors.Is(err, domain.ErrRebuildInProgress):
		r.printf("A reload is already in progress.\n\n")
	default:
		r.printf("Error reloading documents: %v\n\n", err)
	}
}

func (r *repl) status() {
	if r.index == nil {
		r.printf("Index not available.\n\n")
		return
	}
	s := r.index.Status()
	r.printf("\nIndex: %s", s.State)
	if s.Ready() {
		r.printf(" (%d chunks, %s)", s.Entries, s.Model)
	}
	if s.Rebuilding {
		r.printf(", rebuilding")
	}
	r.printf("\nContext: %s\n", onOff(r.useContext))
	if s.LastError != "" {
		r.printf("Last error: %s\n", s.LastError)
	}
	r.printf("\n")
}

func (r *repl) docs(ctx context.Context) {
	if r.documents == nil {
		r.printf("Documents not available.\n\n")
		return
	}
	docs, err := r.documents.List(ctx)
	if err != nil {
		r.printf("Error listing documents: %v\n\n", err)
		return
	}
	r.printf("\nDocuments (%d):\n", len(docs))
	for _, d := range docs {
		r.printf("  - %s (%d bytes)\n", d.Name, d.Size)
	}
	r.printf("\n")
}

func (r *repl) ask(ctx context.Context, question string) {
	turn := r.chat.Answer(ctx, r.session, question, r.useContext)

	r.printf("\nBot:\n")
	r.printf("%s\n", strings.Repeat("-", 20))
	r.printf("%s\n", turn.Response)
	if len(turn.Sources) > 0 {
		r.printf("\nSources: %s\n", strings.Join(turn.Sources, ", "))
	}
	r.printf("%s\n\n", strings.Repeat("-", 20))
}

func onOff(b bool) string {
	if b {
		return "on"
	}
	return "off"
}
