package file

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/custodia-labs/docchat/internal/core/domain"
)

// defaultConfig is the commented starter file written by WriteDefault.
// Values match domain.DefaultAppSettings.
var defaultConfig = fmt.Sprintf(`# docchat configuration.
# Environment variables (and a .env file) override every value below.

# Directory scanned recursively for .pdf, .txt and .md files.
documents_dir = %q

# Directory of editable prompt templates. Empty uses the built-in prompt.
prompts_dir = ""

[chunking]
size = %d
overlap = %d

[retrieval]
k = %d
# Trim retrieved context to this many tokens (cl100k_base). 0 disables.
context_token_limit = 0

[index]
# "sqlite" or "postgres"
backend = %q
path = %q
# Postgres connection string, also read from DATABASE_URL.
database_url = ""

[embedding]
# "gemini", "openai" or "ollama"
provider = %q
model = %q
base_url = ""
# api_key = ""
timeout = %q
batch_size = %d
# Provider requests per second during index builds. 0 disables limiting.
requests_per_second = 0

[llm]
# "gemini", "openai", "anthropic" or "ollama"
provider = %q
model = %q
base_url = ""
# api_key = ""
max_tokens = %d
temperature = %.1f
timeout = %q

[server]
addr = %q
max_upload_bytes = %d
`,
	domain.DefaultDocumentsDir,
	domain.DefaultChunkSize, domain.DefaultChunkOverlap,
	domain.DefaultRetrievalK,
	domain.IndexBackendSQLite, domain.DefaultIndexPath,
	domain.AIProviderGemini, domain.DefaultEmbeddingModels()[domain.AIProviderGemini],
	domain.DefaultEmbeddingTimeout.String(), domain.DefaultEmbeddingBatch,
	domain.AIProviderGemini, domain.DefaultLLMModels()[domain.AIProviderGemini],
	domain.DefaultMaxTokens, domain.DefaultTemperature, domain.DefaultLLMTimeout.String(),
	domain.DefaultServerAddr, domain.DefaultMaxUploadBytes,
)

// DefaultConfig returns the starter configuration text.
func DefaultConfig() string {
	return defaultConfig
}

// WriteDefault writes the starter configuration to path with 0600 permissions.
// An existing file is kept unless force is set.
func WriteDefault(path string, force bool) error {
	if path == "" {
		path = DefaultConfigFile
	}
	if !force {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("%s already exists (use --force to overwrite)", path)
		}
	}
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(defaultConfig), 0600); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}
