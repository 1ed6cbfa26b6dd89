package services

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/custodia-labs/docchat/internal/core/domain"
	"github.com/custodia-labs/docchat/internal/core/ports/driven"
	"github.com/custodia-labs/docchat/internal/core/ports/driving"
)

// Ensure DiagnosticsService implements the interface.
var _ driving.Diagnostics = (*DiagnosticsService)(nil)

// Diagnostic check names.
const (
	CheckConfiguration = "configuration"
	CheckCredential    = "llm credential"
	CheckDocuments     = "documents directory"
	CheckIndexStore    = "index store"
	CheckEmbedding     = "embedding provider"
	CheckLLM           = "llm provider"
)

// DiagnosticsService checks the installation: settings, documents, storage and providers.
type DiagnosticsService struct {
	settings driving.SettingsService
	lister   driven.FileLister
	store    driven.IndexStore
	storeErr error
	probe    driven.ProviderProbe
}

// NewDiagnosticsService creates a diagnostics service.
// storeErr is the error from opening the index store, if that failed.
func NewDiagnosticsService(
	settings driving.SettingsService,
	lister driven.FileLister,
	store driven.IndexStore,
	storeErr error,
	probe driven.ProviderProbe,
) *DiagnosticsService {
	return &DiagnosticsService{
		settings: settings,
		lister:   lister,
		store:    store,
		storeErr: storeErr,
		probe:    probe,
	}
}

// Check runs every check. Failures are reported in the results.
func (d *DiagnosticsService) Check(ctx context.Context) []domain.CheckResult {
	settings, err := d.settings.Get()
	if err != nil {
		results := []domain.CheckResult{fail(CheckConfiguration, err)}
		for _, name := range []string{CheckCredential, CheckDocuments, CheckIndexStore, CheckEmbedding, CheckLLM} {
			results = append(results, domain.CheckResult{Name: name, Detail: "skipped: configuration invalid"})
		}
		return results
	}

	results := []domain.CheckResult{d.checkConfiguration(settings)}
	results = append(results,
		checkCredential(settings),
		d.checkDocuments(ctx, settings.DocumentsDir),
		d.checkStore(ctx),
		d.checkEmbedding(ctx, settings),
		d.checkLLM(ctx, settings),
	)
	return results
}

func (d *DiagnosticsService) checkConfiguration(settings *domain.AppSettings) domain.CheckResult {
	if err := settings.Validate(); err != nil {
		return fail(CheckConfiguration, err)
	}
	return pass(CheckConfiguration, "loaded from "+d.settings.Path())
}

func checkCredential(settings *domain.AppSettings) domain.CheckResult {
	p := settings.LLM.Provider
	if !p.RequiresAPIKey() {
		return pass(CheckCredential, p.Description()+" needs no API key")
	}
	if settings.LLM.APIKey == "" {
		return fail(CheckCredential, fmt.Errorf("%w for %s", domain.ErrMissingCredential, p.Description()))
	}
	return pass(CheckCredential, "API key set for "+p.Description())
}

func (d *DiagnosticsService) checkDocuments(ctx context.Context, dir string) domain.CheckResult {
	info, err := os.Stat(dir)
	if err != nil {
		return fail(CheckDocuments, err)
	}
	if !info.IsDir() {
		return fail(CheckDocuments, fmt.Errorf("%s is not a directory", dir))
	}
	paths, err := d.lister.List(ctx, dir)
	if err != nil {
		return fail(CheckDocuments, err)
	}
	return pass(CheckDocuments, fmt.Sprintf("%s (%d supported files)", dir, len(paths)))
}

func (d *DiagnosticsService) checkStore(ctx context.Context) domain.CheckResult {
	if d.storeErr != nil {
		return fail(CheckIndexStore, d.storeErr)
	}
	if d.store == nil {
		return fail(CheckIndexStore, errors.New("no index store configured"))
	}
	if err := d.store.Ping(ctx); err != nil {
		return fail(CheckIndexStore, err)
	}
	return pass(CheckIndexStore, d.store.Location())
}

func (d *DiagnosticsService) checkEmbedding(ctx context.Context, settings *domain.AppSettings) domain.CheckResult {
	if !settings.Embedding.IsConfigured() {
		return fail(CheckEmbedding, fmt.Errorf("%w: %s not configured", domain.ErrEmbeddingUnavailable, settings.Embedding.Provider))
	}
	if d.probe != nil {
		if err := d.probe.ProbeEmbedding(ctx, &settings.Embedding); err != nil {
			return fail(CheckEmbedding, err)
		}
	}
	return pass(CheckEmbedding, fmt.Sprintf("%s (%s)", settings.Embedding.Provider.Description(), settings.Embedding.Model))
}

func (d *DiagnosticsService) checkLLM(ctx context.Context, settings *domain.AppSettings) domain.CheckResult {
	if !settings.LLM.IsConfigured() {
		return fail(CheckLLM, fmt.Errorf("%w: %s not configured", domain.ErrLLMUnavailable, settings.LLM.Provider))
	}
	if d.probe != nil {
		if err := d.probe.ProbeLLM(ctx, &settings.LLM); err != nil {
			return fail(CheckLLM, err)
		}
	}
	return pass(CheckLLM, fmt.Sprintf("%s (%s)", settings.LLM.Provider.Description(), settings.LLM.Model))
}

func pass(name, detail string) domain.CheckResult {
	return domain.CheckResult{Name: name, OK: true, Detail: detail}
}

func fail(name string, err error) domain.CheckResult {
	return domain.CheckResult{Name: name, Detail: err.Error()}
}
