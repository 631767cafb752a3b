package service

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionStore_GetOrCreate(t *testing.T) {
	sessions := NewSessionStore(10, 10)

	session := sessions.GetOrCreate("s1")
	assert.Equal(t, "s1", session.ID)
	assert.Empty(t, session.History)
	assert.Equal(t, 1, sessions.Len())
}

func TestSessionStore_AppendAndSnapshot(t *testing.T) {
	sessions := NewSessionStore(10, 10)

	sessions.AppendExchange("s1", "what is aspirin?", "Aspirin is an NSAID.")
	sessions.AppendExchange("s1", "and the dose?", "Typical adult dose is 325-650 mg.")

	session := sessions.GetOrCreate("s1")
	require.Len(t, session.History, 2)
	assert.Equal(t, "what is aspirin?", session.History[0].User)
	assert.Equal(t, "Typical adult dose is 325-650 mg.", session.History[1].Assistant)

	// The snapshot is a copy; mutating it must not touch the store.
	session.History[0].User = "tampered"
	again := sessions.GetOrCreate("s1")
	assert.Equal(t, "what is aspirin?", again.History[0].User)
}

func TestSessionStore_HistoryCap(t *testing.T) {
	sessions := NewSessionStore(10, 3)

	for i := 0; i < 7; i++ {
		sessions.AppendExchange("s1", fmt.Sprintf("q%d", i), fmt.Sprintf("a%d", i))
	}

	session := sessions.GetOrCreate("s1")
	require.Len(t, session.History, 3)
	assert.Equal(t, "q4", session.History[0].User)
	assert.Equal(t, "q6", session.History[2].User)
}

func TestSessionStore_Clear(t *testing.T) {
	sessions := NewSessionStore(10, 10)

	sessions.AppendExchange("s1", "q", "a")
	sessions.Clear("s1")

	assert.Empty(t, sessions.GetOrCreate("s1").History)
}

func TestSessionStore_SessionsAreIsolated(t *testing.T) {
	sessions := NewSessionStore(10, 10)

	sessions.AppendExchange("alice", "q1", "a1")
	sessions.AppendExchange("bob", "q2", "a2")

	assert.Len(t, sessions.GetOrCreate("alice").History, 1)
	assert.Equal(t, "q2", sessions.GetOrCreate("bob").History[0].User)
}

func TestSessionStore_EvictsLeastRecentlyUsed(t *testing.T) {
	sessions := NewSessionStore(2, 10)

	sessions.AppendExchange("s1", "q1", "a1")
	sessions.AppendExchange("s2", "q2", "a2")

	// Touch s1 so s2 becomes the eviction candidate.
	sessions.GetOrCreate("s1")
	sessions.AppendExchange("s3", "q3", "a3")

	assert.Equal(t, 2, sessions.Len())
	assert.Len(t, sessions.GetOrCreate("s1").History, 1)
	// s2 was evicted; recreating it starts with empty history.
	assert.Empty(t, sessions.GetOrCreate("s2").History)
}

func TestSessionStore_ConcurrentAppendsLoseNothing(t *testing.T) {
	sessions := NewSessionStore(10, 200)

	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			sessions.AppendExchange("s1", fmt.Sprintf("q%d", i), "a")
		}(i)
	}
	wg.Wait()

	// Every append lands exactly once: no lost updates, no duplicates.
	assert.Len(t, sessions.GetOrCreate("s1").History, 100)
}

func TestSessionStore_ConcurrentAppendsRespectCap(t *testing.T) {
	sessions := NewSessionStore(10, 10)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			sessions.AppendExchange("s1", fmt.Sprintf("q%d", i), "a")
		}(i)
	}
	wg.Wait()

	assert.Len(t, sessions.GetOrCreate("s1").History, 10)
}

func TestSessionStore_ConcurrentSessionsStayBounded(t *testing.T) {
	sessions := NewSessionStore(4, 10)

	var wg sync.WaitGroup
	for i := 0; i < 40; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			id := fmt.Sprintf("s%d", i%8)
			sessions.AppendExchange(id, "q", "a")
			sessions.GetOrCreate(id)
		}(i)
	}
	wg.Wait()

	assert.LessOrEqual(t, sessions.Len(), 4)
}

func TestSessionStore_DefaultCaps(t *testing.T) {
	sessions := NewSessionStore(0, 0)

	for i := 0; i < 15; i++ {
		sessions.AppendExchange(DefaultSessionID, fmt.Sprintf("q%d", i), "a")
	}

	assert.Len(t, sessions.GetOrCreate(DefaultSessionID).History, 10)
}
