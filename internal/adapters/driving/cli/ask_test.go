package cli

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docchat/internal/core/domain"
)

func TestAskCmd_Use(t *testing.T) {
	assert.Equal(t, "ask <question>", askCmd.Use)
}

func TestAskCmd_RequiresQuestion(t *testing.T) {
	_, err := execute(t, "ask")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "requires at least 1 arg(s)")
}

func TestAskCmd_HasFlags(t *testing.T) {
	for _, name := range []string{"no-context", "sources", "json", "session"} {
		assert.NotNil(t, askCmd.Flags().Lookup(name), name)
	}
}

func TestAskCmd_PrintsAnswerAndSources(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()
	ts.chat.sources = []string{"guide.pdf (page 2)", "notes.txt"}

	out, err := execute(t, "ask", "what", "is", "docchat?")

	require.NoError(t, err)
	assert.Contains(t, out, "The answer.")
	assert.Contains(t, out, "Sources:")
	assert.Contains(t, out, "  - guide.pdf (page 2)")
	assert.Equal(t, 1, ts.index.inits)
	assert.Equal(t, []bool{true}, ts.chat.contexts)

	turns, _ := ts.chat.History(domain.DefaultSessionID, 0)
	require.Len(t, turns, 1)
	assert.Equal(t, "what is docchat?", turns[0].Query)
}

func TestAskCmd_NoContext(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()
	ts.chat.sources = []string{"guide.pdf"}

	out, err := execute(t, "ask", "--no-context", "hello")

	require.NoError(t, err)
	assert.Equal(t, []bool{false}, ts.chat.contexts)
	assert.Equal(t, 0, ts.index.inits)
	assert.NotContains(t, out, "Sources:")
}

func TestAskCmd_JSONWithPassages(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()
	ts.chat.sources = []string{"guide.pdf (page 1)"}
	ts.retrieval.results = []domain.ScoredChunk{
		{Chunk: domain.Chunk{SourcePath: "guide.pdf", Page: 1, Text: "Docchat answers questions."}, Score: 0.91},
	}

	out, err := execute(t, "ask", "--json", "--sources", "what?")
	require.NoError(t, err)

	var result askResult
	require.NoError(t, json.Unmarshal([]byte(out), &result))
	assert.Equal(t, "what?", result.Question)
	assert.Equal(t, "The answer.", result.Answer)
	assert.True(t, result.ContextUsed)
	require.Len(t, result.Passages, 1)
	assert.Equal(t, "guide.pdf", result.Passages[0].Source)
	assert.Equal(t, 1, result.Passages[0].Page)
	assert.InDelta(t, 0.91, result.Passages[0].Score, 1e-9)
}

func TestAskCmd_SourcesWithoutIndex(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()
	ts.retrieval.err = &domain.RetrievalError{Err: domain.ErrIndexUnset}

	out, err := execute(t, "ask", "--sources", "what?")

	require.NoError(t, err)
	assert.NotContains(t, out, "Passages:")
	assert.NotContains(t, out, "Warning")
}

func TestAskCmd_SessionFlag(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()

	_, err := execute(t, "ask", "-s", "work", "hello")

	require.NoError(t, err)
	_, total := ts.chat.History("work", 0)
	assert.Equal(t, 1, total)
}

func TestAskCmd_FailedAnswer(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()
	ts.chat.failed = true
	ts.chat.response = "I apologize, but I encountered an error while processing your request: boom"

	out, err := execute(t, "ask", "hello")

	require.Error(t, err)
	assert.Contains(t, out, "I apologize")
}

func TestAskCmd_NoService(t *testing.T) {
	restore := clearServices()
	defer restore()

	_, err := execute(t, "ask", "hello")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "chat service not configured")
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "abcdefg...", truncate("abcdefghijklmnop", 10))
	assert.Equal(t, "a b c", oneLine("a\n b\t\tc "))
}
