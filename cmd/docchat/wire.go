package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/custodia-labs/docchat/internal/adapters/driven/ai"
	"github.com/custodia-labs/docchat/internal/adapters/driven/config/file"
	"github.com/custodia-labs/docchat/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/docchat/internal/adapters/driven/storage/postgres"
	"github.com/custodia-labs/docchat/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/docchat/internal/adapters/driven/tokens"
	"github.com/custodia-labs/docchat/internal/adapters/driven/vectorindex/flat"
	"github.com/custodia-labs/docchat/internal/adapters/driving/cli"
	"github.com/custodia-labs/docchat/internal/connectors/filesystem"
	"github.com/custodia-labs/docchat/internal/core/domain"
	"github.com/custodia-labs/docchat/internal/core/ports/driven"
	"github.com/custodia-labs/docchat/internal/core/services"
	"github.com/custodia-labs/docchat/internal/normalisers/markdown"
	"github.com/custodia-labs/docchat/internal/normalisers/pdf"
	"github.com/custodia-labs/docchat/internal/normalisers/plaintext"
	"github.com/custodia-labs/docchat/internal/postprocessors/chunker"
)

// closers releases resources in reverse order of acquisition.
type closers []func() error

func (c *closers) add(fn func() error) {
	*c = append(*c, fn)
}

func (c closers) close() error {
	var errs []error
	for i := len(c) - 1; i >= 0; i-- {
		if err := c[i](); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// noConfig as the --config value runs on defaults and the environment only.
const noConfig = "none"

// openConfigStore opens the TOML file at path, or an in-memory store for noConfig.
func openConfigStore(path string) (driven.ConfigStore, error) {
	if path == noConfig {
		return memory.NewConfigStore(nil), nil
	}
	store, err := file.NewConfigStore(path)
	if err != nil {
		return nil, fmt.Errorf("open config %s: %w", path, err)
	}
	return store, nil
}

// bootstrap wires the services a command needs.
func bootstrap(ctx context.Context, opts cli.Options) (svc *cli.Services, err error) {
	if err := file.LoadDotEnv(); err != nil {
		return nil, err
	}

	configStore, err := openConfigStore(opts.ConfigPath)
	if err != nil {
		return nil, err
	}
	settingsService := services.NewSettingsService(configStore)

	svc = &cli.Services{Settings: settingsService}
	if opts.Need < cli.NeedDocuments {
		return svc, nil
	}

	settings, err := settingsService.Get()
	if err != nil {
		return nil, err
	}

	var cleanup closers
	defer func() {
		if err != nil {
			cleanup.close() //nolint:errcheck // already failing
		}
	}()

	lister := filesystem.NewLister()
	svc.Documents = services.NewDocumentService(settings.DocumentsDir, lister, settings.Server.MaxUploadBytes)
	if opts.Need < cli.NeedDiagnostics {
		return svc, nil
	}

	store, storeErr := openIndexStore(ctx, &settings.Index)
	if store != nil {
		cleanup.add(store.Close)
	}

	if opts.Need < cli.NeedRuntime {
		svc.Diagnostics = services.NewDiagnosticsService(settingsService, lister, store, storeErr, ai.NewProbe(ai.DefaultProbeTimeout))
		svc.Close = cleanup.close
		return svc, nil
	}

	if storeErr != nil {
		svc.Warnings = append(svc.Warnings, fmt.Sprintf("index will not be persisted: %v", storeErr))
	}

	aiServices, err := ai.Build(ctx, settings)
	if err != nil {
		return nil, err
	}
	cleanup.add(func() error {
		aiServices.Close()
		return nil
	})
	svc.Warnings = append(svc.Warnings, aiServices.Warnings...)

	loader := services.NewLoader(lister, plaintext.New(), markdown.New(), pdf.New())
	splitter := chunker.New(
		chunker.WithChunkSize(settings.Chunking.Size),
		chunker.WithOverlap(settings.Chunking.Overlap),
	)

	managerOpts := []services.IndexManagerOption{services.WithBaseContext(ctx)}
	if store != nil {
		managerOpts = append(managerOpts, services.WithIndexStore(store))
	}
	manager := services.NewIndexManager(
		loader, splitter, aiServices.Embedder, flat.NewBuilder(), settings.DocumentsDir, managerOpts...,
	)
	// Background reloads must finish before the store and providers close.
	cleanup.add(func() error {
		manager.Wait()
		return nil
	})

	retriever := services.NewRetriever(aiServices.Embedder, manager, settings.Retrieval.K)

	chatOpts := []services.ChatOption{
		services.WithRetrievalK(settings.Retrieval.K),
		services.WithGenerateOptions(driven.GenerateOptions{
			MaxTokens:   settings.LLM.MaxTokens,
			Temperature: settings.LLM.Temperature,
		}),
		services.WithLLMTimeout(settings.LLM.Timeout),
	}
	if settings.Retrieval.ContextTokenLimit > 0 {
		chatOpts = append(chatOpts,
			services.WithContextTokenLimit(tokens.NewOrEstimate(tokens.DefaultEncoding), settings.Retrieval.ContextTokenLimit))
	}
	chat := services.NewChatService(retriever, aiServices.LLM, services.NewHistoryStore(), chatOpts...)
	chat.SetPromptStore(file.NewPromptStore(settings.PromptsDir))

	svc.Chat = chat
	svc.Retrieval = retriever
	svc.Index = manager
	svc.Diagnostics = services.NewDiagnosticsService(settingsService, lister, store, storeErr, ai.NewProbe(ai.DefaultProbeTimeout))
	svc.Watcher = filesystem.NewWatcher(settings.DocumentsDir)
	svc.Close = cleanup.close
	return svc, nil
}

// openIndexStore opens the configured index store.
func openIndexStore(ctx context.Context, settings *domain.IndexSettings) (driven.IndexStore, error) {
	switch settings.Backend {
	case domain.IndexBackendPostgres:
		store, err := postgres.NewStore(ctx, settings.DatabaseURL)
		if err != nil {
			return nil, err
		}
		return store, nil
	default:
		store, err := sqlite.NewStore(settings.Path)
		if err != nil {
			return nil, err
		}
		return store, nil
	}
}
