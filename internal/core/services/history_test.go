package services

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docchat/internal/core/domain"
)

func TestHistoryStore_AppendAndList(t *testing.T) {
	h := NewHistoryStore()
	for i := range 5 {
		h.Append(domain.ChatTurn{SessionID: "s1", Query: fmt.Sprintf("q%d", i)})
	}

	turns, total := h.List("s1", 2)
	assert.Equal(t, 5, total)
	require.Len(t, turns, 2)
	assert.Equal(t, "q3", turns[0].Query)
	assert.Equal(t, "q4", turns[1].Query)

	all, _ := h.List("s1", 0)
	assert.Len(t, all, 5)
}

func TestHistoryStore_ListReturnsCopy(t *testing.T) {
	h := NewHistoryStore()
	h.Append(domain.ChatTurn{SessionID: "s1", Query: "original"})

	turns, _ := h.List("s1", 10)
	turns[0].Query = "mutated"

	again, _ := h.List("s1", 10)
	assert.Equal(t, "original", again[0].Query)
}

func TestHistoryStore_UnknownSession(t *testing.T) {
	h := NewHistoryStore()

	turns, total := h.List("missing", 10)
	assert.NotNil(t, turns)
	assert.Empty(t, turns)
	assert.Zero(t, total)
	assert.Zero(t, h.Sessions())
}

func TestHistoryStore_DefaultSession(t *testing.T) {
	h := NewHistoryStore()
	h.Append(domain.ChatTurn{Query: "q"})

	turns, total := h.List(domain.DefaultSessionID, 10)
	assert.Equal(t, 1, total)
	assert.Equal(t, "q", turns[0].Query)

	h.Clear("")
	_, total = h.List("", 10)
	assert.Zero(t, total)
}

func TestHistoryStore_SessionsAreIsolated(t *testing.T) {
	h := NewHistoryStore()
	h.Append(domain.ChatTurn{SessionID: "a", Query: "qa"})
	h.Append(domain.ChatTurn{SessionID: "b", Query: "qb"})
	assert.Equal(t, 2, h.Sessions())

	h.Clear("a")
	_, totalA := h.List("a", 10)
	_, totalB := h.List("b", 10)
	assert.Zero(t, totalA)
	assert.Equal(t, 1, totalB)

	h.ClearAll()
	assert.Zero(t, h.Sessions())
}

func TestHistoryStore_ConcurrentAppend(t *testing.T) {
	h := NewHistoryStore()
	var wg sync.WaitGroup
	for i := range 50 {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			h.Append(domain.ChatTurn{SessionID: fmt.Sprintf("s%d", i%5), Query: "q"})
			h.List("s0", 3)
		}(i)
	}
	wg.Wait()

	total := 0
	for i := range 5 {
		_, n := h.List(fmt.Sprintf("s%d", i), 0)
		total += n
	}
	assert.Equal(t, 50, total)
}
