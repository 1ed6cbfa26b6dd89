package services

import (
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/custodia-labs/docchat/internal/core/domain"
	"github.com/custodia-labs/docchat/internal/core/ports/driven"
	"github.com/custodia-labs/docchat/internal/core/ports/driving"
)

// Ensure SettingsService implements the interface.
var _ driving.SettingsService = (*SettingsService)(nil)

// Config keys for settings storage.
//
//nolint:gosec // G101: These are config key names, not actual credentials.
const (
	keyDocumentsDir      = "documents_dir"
	keyPromptsDir        = "prompts_dir"
	keyChunkSize         = "chunking.size"
	keyChunkOverlap      = "chunking.overlap"
	keyRetrievalK        = "retrieval.k"
	keyContextTokenLimit = "retrieval.context_token_limit"
	keyIndexBackend      = "index.backend"
	keyIndexPath         = "index.path"
	keyIndexDatabaseURL  = "index.database_url"
	keyEmbedProvider     = "embedding.provider"
	keyEmbedModel        = "embedding.model"
	keyEmbedBaseURL      = "embedding.base_url"
	keyEmbedAPIKey       = "embedding.api_key"
	keyEmbedTimeout      = "embedding.timeout"
	keyEmbedBatchSize    = "embedding.batch_size"
	keyEmbedRPS          = "embedding.requests_per_second"
	keyLLMProvider       = "llm.provider"
	keyLLMModel          = "llm.model"
	keyLLMBaseURL        = "llm.base_url"
	keyLLMAPIKey         = "llm.api_key"
	keyLLMMaxTokens      = "llm.max_tokens"
	keyLLMTemperature    = "llm.temperature"
	keyLLMTimeout        = "llm.timeout"
	keyServerAddr        = "server.addr"
	keyServerMaxUpload   = "server.max_upload_bytes"
)

// Provider credential environment variables.
//
//nolint:gosec // G101: These are variable names, not actual credentials.
var providerKeyEnv = map[domain.AIProvider]string{
	domain.AIProviderGemini:    "GOOGLE_API_KEY",
	domain.AIProviderOpenAI:    "OPENAI_API_KEY",
	domain.AIProviderAnthropic: "ANTHROPIC_API_KEY",
}

// settingField binds a config key and its environment overrides to a settings field.
type settingField struct {
	key   string
	env   []string
	field func(s *domain.AppSettings) any
}

// settingFields lists every recognised key in file order.
// Provider-scoped variables (API keys, GEMINI_MODEL, OLLAMA_BASE_URL) are applied separately.
var settingFields = []settingField{
	{keyDocumentsDir, []string{"DOCCHAT_DOCUMENTS_DIR"}, func(s *domain.AppSettings) any { return &s.DocumentsDir }},
	{keyPromptsDir, []string{"DOCCHAT_PROMPTS_DIR"}, func(s *domain.AppSettings) any { return &s.PromptsDir }},
	{keyChunkSize, []string{"CHUNK_SIZE"}, func(s *domain.AppSettings) any { return &s.Chunking.Size }},
	{keyChunkOverlap, []string{"CHUNK_OVERLAP"}, func(s *domain.AppSettings) any { return &s.Chunking.Overlap }},
	{keyRetrievalK, []string{"DOCCHAT_RETRIEVAL_K"}, func(s *domain.AppSettings) any { return &s.Retrieval.K }},
	{keyContextTokenLimit, []string{"DOCCHAT_CONTEXT_TOKEN_LIMIT"}, func(s *domain.AppSettings) any { return &s.Retrieval.ContextTokenLimit }},
	{keyIndexBackend, []string{"DOCCHAT_INDEX_BACKEND"}, func(s *domain.AppSettings) any { return &s.Index.Backend }},
	{keyIndexPath, []string{"VECTOR_STORE_PATH"}, func(s *domain.AppSettings) any { return &s.Index.Path }},
	{keyIndexDatabaseURL, []string{"DATABASE_URL"}, func(s *domain.AppSettings) any { return &s.Index.DatabaseURL }},
	{keyEmbedProvider, []string{"DOCCHAT_EMBEDDING_PROVIDER"}, func(s *domain.AppSettings) any { return &s.Embedding.Provider }},
	{keyEmbedModel, []string{"EMBEDDING_MODEL"}, func(s *domain.AppSettings) any { return &s.Embedding.Model }},
	{keyEmbedBaseURL, []string{"DOCCHAT_EMBEDDING_BASE_URL"}, func(s *domain.AppSettings) any { return &s.Embedding.BaseURL }},
	{keyEmbedAPIKey, []string{"DOCCHAT_EMBEDDING_API_KEY"}, func(s *domain.AppSettings) any { return &s.Embedding.APIKey }},
	{keyEmbedTimeout, []string{"DOCCHAT_EMBEDDING_TIMEOUT"}, func(s *domain.AppSettings) any { return &s.Embedding.Timeout }},
	{keyEmbedBatchSize, []string{"DOCCHAT_EMBEDDING_BATCH_SIZE"}, func(s *domain.AppSettings) any { return &s.Embedding.BatchSize }},
	{keyEmbedRPS, []string{"DOCCHAT_EMBEDDING_RPS"}, func(s *domain.AppSettings) any { return &s.Embedding.RequestsPerSecond }},
	{keyLLMProvider, []string{"DOCCHAT_LLM_PROVIDER"}, func(s *domain.AppSettings) any { return &s.LLM.Provider }},
	{keyLLMModel, []string{"DOCCHAT_LLM_MODEL"}, func(s *domain.AppSettings) any { return &s.LLM.Model }},
	{keyLLMBaseURL, []string{"DOCCHAT_LLM_BASE_URL"}, func(s *domain.AppSettings) any { return &s.LLM.BaseURL }},
	{keyLLMAPIKey, []string{"DOCCHAT_LLM_API_KEY"}, func(s *domain.AppSettings) any { return &s.LLM.APIKey }},
	{keyLLMMaxTokens, []string{"MAX_TOKENS"}, func(s *domain.AppSettings) any { return &s.LLM.MaxTokens }},
	{keyLLMTemperature, []string{"TEMPERATURE"}, func(s *domain.AppSettings) any { return &s.LLM.Temperature }},
	{keyLLMTimeout, []string{"DOCCHAT_LLM_TIMEOUT"}, func(s *domain.AppSettings) any { return &s.LLM.Timeout }},
	{keyServerAddr, []string{"DOCCHAT_SERVER_ADDR"}, func(s *domain.AppSettings) any { return &s.Server.Addr }},
	{keyServerMaxUpload, []string{"DOCCHAT_MAX_UPLOAD_BYTES"}, func(s *domain.AppSettings) any { return &s.Server.MaxUploadBytes }},
}

// SettingsService resolves application settings.
// Precedence, lowest first: built-in defaults, the TOML config file, environment variables.
type SettingsService struct {
	configStore driven.ConfigStore
	lookupEnv   func(string) (string, bool)
}

// SettingsOption configures a SettingsService.
type SettingsOption func(*SettingsService)

// WithEnvLookup replaces os.LookupEnv, mainly for tests.
func WithEnvLookup(fn func(string) (string, bool)) SettingsOption {
	return func(s *SettingsService) {
		s.lookupEnv = fn
	}
}

// NewSettingsService creates a new settings service.
func NewSettingsService(configStore driven.ConfigStore, opts ...SettingsOption) *SettingsService {
	s := &SettingsService{
		configStore: configStore,
		lookupEnv:   os.LookupEnv,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Get returns the effective settings.
// A model left unset falls back to the provider's default model.
func (s *SettingsService) Get() (*domain.AppSettings, error) {
	settings := domain.DefaultAppSettings()
	settings.LLM.Model = ""
	settings.Embedding.Model = ""

	for _, f := range settingFields {
		if raw, ok := s.configStore.Get(f.key); ok {
			if err := assign(f.field(&settings), raw); err != nil {
				return nil, fmt.Errorf("%w: %s in %s: %w", domain.ErrInvalidInput, f.key, s.configStore.Path(), err)
			}
		}
		for _, name := range f.env {
			if raw, ok := s.env(name); ok {
				if err := assign(f.field(&settings), raw); err != nil {
					return nil, fmt.Errorf("%w: %s: %w", domain.ErrInvalidInput, name, err)
				}
			}
		}
	}

	s.applyProviderEnv(&settings)

	if settings.LLM.Model == "" {
		settings.LLM.Model = domain.DefaultLLMModels()[settings.LLM.Provider]
	}
	if settings.Embedding.Model == "" {
		settings.Embedding.Model = domain.DefaultEmbeddingModels()[settings.Embedding.Provider]
	}

	return &settings, nil
}

// applyProviderEnv applies variables whose target depends on the chosen provider.
func (s *SettingsService) applyProviderEnv(settings *domain.AppSettings) {
	if name, ok := providerKeyEnv[settings.LLM.Provider]; ok {
		if key, ok := s.env(name); ok {
			settings.LLM.APIKey = key
		}
	}
	if name, ok := providerKeyEnv[settings.Embedding.Provider]; ok {
		if key, ok := s.env(name); ok {
			settings.Embedding.APIKey = key
		}
	}
	// The embedding provider may share the LLM's cloud account.
	if settings.Embedding.APIKey == "" && settings.Embedding.Provider == settings.LLM.Provider {
		settings.Embedding.APIKey = settings.LLM.APIKey
	}

	if settings.LLM.Provider == domain.AIProviderGemini {
		if model, ok := s.env("GEMINI_MODEL"); ok {
			settings.LLM.Model = model
		}
	}

	if url, ok := s.env("OLLAMA_BASE_URL"); ok {
		if settings.LLM.Provider == domain.AIProviderOllama {
			settings.LLM.BaseURL = url
		}
		if settings.Embedding.Provider == domain.AIProviderOllama {
			settings.Embedding.BaseURL = url
		}
	}
}

// env returns a non-empty environment value.
func (s *SettingsService) env(name string) (string, bool) {
	val, ok := s.lookupEnv(name)
	if !ok || strings.TrimSpace(val) == "" {
		return "", false
	}
	return strings.TrimSpace(val), true
}

// Set stores value under key after checking it parses for the key's type.
func (s *SettingsService) Set(key, value string) error {
	f, ok := findField(key)
	if !ok {
		return fmt.Errorf("%w: unknown config key %q", domain.ErrInvalidInput, key)
	}

	probe := domain.DefaultAppSettings()
	target := f.field(&probe)
	if err := assign(target, value); err != nil {
		return fmt.Errorf("%w: %s: %w", domain.ErrInvalidInput, key, err)
	}

	// Store the typed value so the file keeps TOML numbers
	var stored any
	switch v := target.(type) {
	case *int:
		stored = int64(*v)
	case *int64:
		stored = *v
	case *float64:
		stored = *v
	default:
		stored = value
	}

	if err := s.configStore.Set(key, stored); err != nil {
		return fmt.Errorf("save %s: %w", key, err)
	}
	return nil
}

// Keys returns every recognised config key, sorted.
func (s *SettingsService) Keys() []string {
	keys := make([]string, 0, len(settingFields))
	for _, f := range settingFields {
		keys = append(keys, f.key)
	}
	sort.Strings(keys)
	return keys
}

// Validate resolves settings and checks them.
func (s *SettingsService) Validate() error {
	settings, err := s.Get()
	if err != nil {
		return err
	}
	return settings.Validate()
}

// Path returns the config file location.
func (s *SettingsService) Path() string {
	return s.configStore.Path()
}

func findField(key string) (settingField, bool) {
	for _, f := range settingFields {
		if f.key == key {
			return f, true
		}
	}
	return settingField{}, false
}

// assign converts raw (a TOML value or an environment string) into target's type.
func assign(target, raw any) error {
	switch t := target.(type) {
	case *string:
		str, ok := raw.(string)
		if !ok {
			return fmt.Errorf("expected a string, got %T", raw)
		}
		*t = str
	case *domain.AIProvider:
		str, ok := raw.(string)
		if !ok {
			return fmt.Errorf("expected a provider name, got %T", raw)
		}
		p := domain.AIProvider(strings.ToLower(str))
		if !p.IsValid() {
			return fmt.Errorf("unknown provider %q", str)
		}
		*t = p
	case *domain.IndexBackend:
		str, ok := raw.(string)
		if !ok {
			return fmt.Errorf("expected a backend name, got %T", raw)
		}
		b := domain.IndexBackend(strings.ToLower(str))
		if !b.IsValid() {
			return fmt.Errorf("unknown index backend %q", str)
		}
		*t = b
	case *int:
		n, err := toInt64(raw)
		if err != nil {
			return err
		}
		*t = int(n)
	case *int64:
		n, err := toInt64(raw)
		if err != nil {
			return err
		}
		*t = n
	case *float64:
		f, err := toFloat64(raw)
		if err != nil {
			return err
		}
		*t = f
	case *time.Duration:
		d, err := toDuration(raw)
		if err != nil {
			return err
		}
		*t = d
	default:
		return fmt.Errorf("unsupported setting type %T", target)
	}
	return nil
}

func toInt64(raw any) (int64, error) {
	switch v := raw.(type) {
	case int64:
		return v, nil
	case int:
		return int64(v), nil
	case string:
		n, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
		if err != nil {
			return 0, fmt.Errorf("expected an integer, got %q", v)
		}
		return n, nil
	default:
		return 0, fmt.Errorf("expected an integer, got %T", raw)
	}
}

func toFloat64(raw any) (float64, error) {
	switch v := raw.(type) {
	case float64:
		return v, nil
	case int64:
		return float64(v), nil
	case int:
		return float64(v), nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return 0, fmt.Errorf("expected a number, got %q", v)
		}
		return f, nil
	default:
		return 0, fmt.Errorf("expected a number, got %T", raw)
	}
}

// toDuration accepts Go duration strings ("45s", "2m") or whole seconds.
func toDuration(raw any) (time.Duration, error) {
	switch v := raw.(type) {
	case string:
		d, err := time.ParseDuration(strings.TrimSpace(v))
		if err == nil {
			return d, nil
		}
		secs, convErr := strconv.Atoi(strings.TrimSpace(v))
		if convErr != nil {
			return 0, fmt.Errorf("expected a duration, got %q", v)
		}
		return time.Duration(secs) * time.Second, nil
	case int64:
		return time.Duration(v) * time.Second, nil
	case int:
		return time.Duration(v) * time.Second, nil
	default:
		return 0, fmt.Errorf("expected a duration, got %T", raw)
	}
}
