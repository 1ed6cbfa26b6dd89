// Package driven holds the interfaces core services call out through:
// extraction, chunking, embedding, generation, vector search and storage.
// Adapters under internal/adapters/driven implement them.
//
// An LLMService, an Extractor per file type, and an IndexBuilder are always
// wired. The rest may be nil and core degrades:
//
//   - EmbeddingService: no index is built and answers run in direct mode.
//   - IndexStore: the index lives in memory only.
//   - TokenCounter: retrieved context is never trimmed.
//   - ProviderProbe: diagnostics skip the provider pings.
//
// This package imports domain and nothing else from the module.
package driven
