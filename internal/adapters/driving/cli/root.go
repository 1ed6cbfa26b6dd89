// Package cli implements the docchat command line interface with cobra.
//
// Commands read their services from package-level variables. The variables
// are populated by the bootstrap function installed with SetBootstrap, which
// runs before each command with the level of wiring the command declares.
package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/docchat/internal/connectors/filesystem"
	"github.com/custodia-labs/docchat/internal/core/ports/driving"
	"github.com/custodia-labs/docchat/internal/logger"
)

// version is set at build time with -ldflags "-X .../cli.version=...".
var version = "dev"

// Need is the level of wiring a command requires.
type Need int

// Wiring levels, each including the previous ones.
const (
	NeedNone Need = iota
	NeedSettings
	NeedDocuments
	NeedDiagnostics
	NeedRuntime
)

// needAnnotation is the cobra annotation key holding a command's Need.
const needAnnotation = "docchat.need"

// longRunningAnnotation marks commands that log at info level by default.
const longRunningAnnotation = "docchat.long_running"

// Options carries the global flags to the bootstrap function.
type Options struct {
	ConfigPath string
	Verbose    bool
	LogFormat  string
	Need       Need
}

// DocumentWatcher reports batches of changes in the documents directory.
type DocumentWatcher interface {
	Watch(ctx context.Context) (<-chan []filesystem.Change, error)
	Close() error
}

// Services holds everything a command may use. Fields not required by the
// requested Need may be nil.
type Services struct {
	Settings    driving.SettingsService
	Chat        driving.ChatService
	Retrieval   driving.RetrievalService
	Index       driving.IndexService
	Documents   driving.DocumentService
	Diagnostics driving.Diagnostics
	Watcher     DocumentWatcher

	// Warnings are shown to the user once the command starts.
	Warnings []string

	// Close releases resources held by the services.
	Close func() error
}

// BootstrapFunc builds the services for a command.
type BootstrapFunc func(ctx context.Context, opts Options) (*Services, error)

var (
	settingsService  driving.SettingsService
	chatService      driving.ChatService
	retrievalService driving.RetrievalService
	indexService     driving.IndexService
	documentService  driving.DocumentService
	diagnostics      driving.Diagnostics
	documentWatcher  DocumentWatcher

	bootstrap    BootstrapFunc
	closeService func() error
)

var (
	configPath string
	verbose    bool
	logFormat  string
)

var rootCmd = &cobra.Command{
	Use:   "docchat",
	Short: "Chat with your documents",
	Long: `docchat answers questions about a folder of PDF, text and Markdown files.

Documents are split into overlapping chunks, embedded, and stored in a
vector index. Each question retrieves the most similar chunks and passes
them to an LLM as context.

Get started:
  docchat config init      # write docchat.toml
  docchat check            # verify providers and documents
  docchat chat             # interactive chat`,
	SilenceUsage:      true,
	PersistentPreRunE: preRun,
	PersistentPostRunE: func(_ *cobra.Command, _ []string) error {
		return closeServices()
	},
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&configPath, "config", "docchat.toml", "config file path (\"none\" for defaults and environment only)")
	flags.BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	flags.StringVar(&logFormat, "log-format", logger.FormatConsole, "log format (console|json)")
}

// SetBootstrap installs the function that builds services before a command runs.
func SetBootstrap(fn BootstrapFunc) {
	bootstrap = fn
}

// SetVersion sets the version reported by the version command.
func SetVersion(v string) {
	if v != "" {
		version = v
	}
}

// Execute runs the root command.
func Execute(ctx context.Context) error {
	defer closeServices() //nolint:errcheck // best-effort cleanup on error paths
	return rootCmd.ExecuteContext(ctx)
}

// needs returns the wiring level declared by cmd or its parents.
func needs(cmd *cobra.Command) Need {
	for c := cmd; c != nil; c = c.Parent() {
		switch c.Annotations[needAnnotation] {
		case "none":
			return NeedNone
		case "settings":
			return NeedSettings
		case "documents":
			return NeedDocuments
		case "diagnostics":
			return NeedDiagnostics
		case "runtime":
			return NeedRuntime
		}
	}
	return NeedNone
}

func annotate(need string, longRunning bool) map[string]string {
	a := map[string]string{needAnnotation: need}
	if longRunning {
		a[longRunningAnnotation] = "true"
	}
	return a
}

func isLongRunning(cmd *cobra.Command) bool {
	return cmd.Annotations[longRunningAnnotation] == "true"
}

func preRun(cmd *cobra.Command, _ []string) error {
	logger.SetFormat(logFormat)
	if isLongRunning(cmd) {
		logger.SetLevel("info")
	} else {
		logger.SetLevel("warn")
	}
	logger.SetVerbose(verbose)

	need := needs(cmd)
	if need == NeedNone || bootstrap == nil {
		return nil
	}

	svc, err := bootstrap(cmd.Context(), Options{
		ConfigPath: configPath,
		Verbose:    verbose,
		LogFormat:  logFormat,
		Need:       need,
	})
	if err != nil {
		return err
	}
	applyServices(svc)

	for _, w := range svc.Warnings {
		cmd.PrintErrf("Warning: %s\n", w)
	}
	return nil
}

// applyServices installs svc into the package-level service variables.
func applyServices(svc *Services) {
	settingsService = svc.Settings
	chatService = svc.Chat
	retrievalService = svc.Retrieval
	indexService = svc.Index
	documentService = svc.Documents
	diagnostics = svc.Diagnostics
	documentWatcher = svc.Watcher
	closeService = svc.Close
}

func closeServices() error {
	if closeService == nil {
		return nil
	}
	fn := closeService
	closeService = nil
	if err := fn(); err != nil {
		return fmt.Errorf("closing services: %w", err)
	}
	return nil
}

// errNotConfigured reports a service the bootstrap did not provide.
func errNotConfigured(name string) error {
	return errors.New(name + " service not configured")
}
