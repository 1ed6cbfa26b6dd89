package domain

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAIProvider_IsValid(t *testing.T) {
	for _, p := range AllLLMProviders() {
		assert.True(t, p.IsValid(), "provider %s", p)
	}
	assert.False(t, AIProvider("").IsValid())
	assert.False(t, AIProvider("cohere").IsValid())
}

func TestAIProvider_SupportsEmbeddings(t *testing.T) {
	for _, p := range AllEmbeddingProviders() {
		assert.True(t, p.SupportsEmbeddings(), "provider %s", p)
	}
	assert.False(t, AIProviderAnthropic.SupportsEmbeddings())
}

func TestAIProvider_RequiresAPIKey(t *testing.T) {
	assert.True(t, AIProviderGemini.RequiresAPIKey())
	assert.True(t, AIProviderOpenAI.RequiresAPIKey())
	assert.True(t, AIProviderAnthropic.RequiresAPIKey())
	assert.False(t, AIProviderOllama.RequiresAPIKey())
}

func TestAIProvider_Description(t *testing.T) {
	assert.Equal(t, "Google Gemini", AIProviderGemini.Description())
	assert.Equal(t, unknownDescription, AIProvider("x").Description())
}

func TestEmbeddingSettings_IsConfigured(t *testing.T) {
	tests := []struct {
		name     string
		settings EmbeddingSettings
		want     bool
	}{
		{"empty", EmbeddingSettings{}, false},
		{"ollama without key", EmbeddingSettings{Provider: AIProviderOllama}, true},
		{"gemini without key", EmbeddingSettings{Provider: AIProviderGemini}, false},
		{"gemini with key", EmbeddingSettings{Provider: AIProviderGemini, APIKey: "k"}, true},
		{"anthropic never", EmbeddingSettings{Provider: AIProviderAnthropic, APIKey: "k"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.settings.IsConfigured())
		})
	}
}

func TestDefaultAppSettings(t *testing.T) {
	s := DefaultAppSettings()

	assert.Equal(t, 1000, s.Chunking.Size)
	assert.Equal(t, 200, s.Chunking.Overlap)
	assert.Equal(t, 4, s.Retrieval.K)
	assert.Equal(t, 2048, s.LLM.MaxTokens)
	assert.InDelta(t, 0.7, s.LLM.Temperature, 1e-9)
	assert.Equal(t, AIProviderGemini, s.LLM.Provider)
	assert.Equal(t, IndexBackendSQLite, s.Index.Backend)
	assert.Equal(t, int64(10*1024*1024), s.Server.MaxUploadBytes)
}

func TestAppSettings_Validate(t *testing.T) {
	valid := func() AppSettings {
		s := DefaultAppSettings()
		s.LLM.APIKey = "key"
		s.Embedding.APIKey = "key"
		return s
	}

	t.Run("valid", func(t *testing.T) {
		assert.NoError(t, valid().Validate())
	})

	t.Run("missing credential is distinguishable", func(t *testing.T) {
		s := valid()
		s.LLM.APIKey = ""
		err := s.Validate()
		assert.True(t, errors.Is(err, ErrMissingCredential))
	})

	t.Run("ollama needs no credential", func(t *testing.T) {
		s := valid()
		s.LLM = LLMSettings{Provider: AIProviderOllama}
		assert.NoError(t, s.Validate())
	})

	tests := []struct {
		name   string
		mutate func(*AppSettings)
	}{
		{"zero chunk size", func(s *AppSettings) { s.Chunking.Size = 0 }},
		{"negative overlap", func(s *AppSettings) { s.Chunking.Overlap = -1 }},
		{"zero k", func(s *AppSettings) { s.Retrieval.K = 0 }},
		{"unknown backend", func(s *AppSettings) { s.Index.Backend = "redis" }},
		{"postgres without url", func(s *AppSettings) { s.Index.Backend = IndexBackendPostgres }},
		{"unknown llm provider", func(s *AppSettings) { s.LLM.Provider = "cohere" }},
		{"anthropic embeddings", func(s *AppSettings) { s.Embedding.Provider = AIProviderAnthropic }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := valid()
			tt.mutate(&s)
			err := s.Validate()
			assert.True(t, errors.Is(err, ErrInvalidInput), "got %v", err)
		})
	}
}
