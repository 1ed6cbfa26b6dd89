package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/docchat/internal/adapters/driving/httpapi"
	"github.com/custodia-labs/docchat/internal/core/domain"
	"github.com/custodia-labs/docchat/internal/logger"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API",
	Long: `Start the JSON HTTP API.

Endpoints:
  GET    /api/status      index and document status
  POST   /api/chat        {"message": "...", "include_context": true}
  GET    /api/history     ?limit=50&session_id=...
  DELETE /api/history     clear a session, or all sessions
  POST   /api/reload      rebuild the index in the background
  GET    /api/documents   list documents
  POST   /api/upload      multipart "files" upload
  GET    /api/health      liveness probe

Use --watch to rebuild the index when files in the documents directory change.`,
	Annotations: annotate("runtime", true),
	RunE:        runServe,
}

func init() {
	serveCmd.Flags().String("addr", "", "listen address (default from server.addr)")
	serveCmd.Flags().Bool("watch", false, "reload the index when documents change")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	if chatService == nil {
		return errNotConfigured("chat")
	}

	addr, err := cmd.Flags().GetString("addr")
	if err != nil {
		return fmt.Errorf("getting addr flag: %w", err)
	}
	watch, err := cmd.Flags().GetBool("watch")
	if err != nil {
		return fmt.Errorf("getting watch flag: %w", err)
	}

	var opts []httpapi.Option
	if settingsService != nil {
		settings, err := settingsService.Get()
		if err != nil {
			return fmt.Errorf("failed to get settings: %w", err)
		}
		if addr == "" {
			addr = settings.Server.Addr
		}
		opts = append(opts, httpapi.WithMaxUploadBytes(settings.Server.MaxUploadBytes))
	}

	if addr == "" {
		addr = domain.DefaultServerAddr
	}

	if indexService != nil {
		if _, err := indexService.Initialise(cmd.Context()); err != nil {
			logger.Warn("Index not ready, serving without documents: %v", err)
		}
	}

	stop, err := startWatch(cmd.Context(), watch)
	if err != nil {
		return err
	}
	defer stop()

	server, err := httpapi.NewServer(&httpapi.Ports{
		Chat:      chatService,
		Index:     indexService,
		Documents: documentService,
	}, opts...)
	if err != nil {
		return err
	}
	return server.Serve(cmd.Context(), addr)
}
