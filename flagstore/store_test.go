package flagstore

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edgeflag/flagcore/model"
)

func mustDecode(t *testing.T, payload string) map[string]model.FlagRecord {
	t.Helper()
	decoded, err := model.DecodePayload([]byte(payload))
	require.NoError(t, err)
	return decoded
}

// Scenario 1: full-snapshot warm start.
func TestStore_FullSnapshotWarmStart(t *testing.T) {
	s := New()

	var gotKey string
	var gotDelete bool
	var calls int
	s.RegisterListener("alpha", func(key string, rec *model.FlagRecord, isDelete bool) {
		calls++
		gotKey = key
		gotDelete = isDelete
	})

	s.PutSnapshot(mustDecode(t, `{"alpha":{"value":true,"version":1}}`))

	rec, ok := s.Get("alpha")
	require.True(t, ok)
	b, isBool := rec.Value.AsBool()
	require.True(t, isBool)
	assert.True(t, b)
	assert.Equal(t, 1, rec.Version)
	assert.Equal(t, 1, calls)
	assert.Equal(t, "alpha", gotKey)
	assert.False(t, gotDelete)
}

// Scenario 2: stale patch is dropped silently.
func TestStore_StalePatchDropped(t *testing.T) {
	s := New()
	s.PutSnapshot(mustDecode(t, `{"alpha":{"value":true,"version":1}}`))

	fired := false
	s.RegisterListener("alpha", func(string, *model.FlagRecord, bool) { fired = true })

	s.ApplyPatch(mustDecode(t, `{"alpha":{"value":false,"version":0}}`))

	rec, ok := s.Get("alpha")
	require.True(t, ok)
	b, _ := rec.Value.AsBool()
	assert.True(t, b, "value must be unchanged by a stale patch")
	assert.False(t, fired, "no listener should fire for a stale patch")
}

// Scenario 3: delete then patch.
func TestStore_DeleteThenPatch(t *testing.T) {
	s := New()
	s.PutSnapshot(mustDecode(t, `{"alpha":{"value":true,"version":1}}`))

	var deleteFired, patchFired bool
	s.RegisterListener("alpha", func(_ string, _ *model.FlagRecord, isDelete bool) {
		if isDelete {
			deleteFired = true
		} else {
			patchFired = true
		}
	})

	s.ApplyDelete(mustDecode(t, `{"alpha":{"value":null,"version":2}}`))
	_, ok := s.Get("alpha")
	assert.False(t, ok)
	assert.True(t, deleteFired)

	s.ApplyPatch(mustDecode(t, `{"alpha":{"value":true,"version":3}}`))
	rec, ok := s.Get("alpha")
	require.True(t, ok)
	b, _ := rec.Value.AsBool()
	assert.True(t, b)
	assert.Equal(t, 3, rec.Version)
	assert.True(t, patchFired)
}

func TestStore_RestoreRoundTrip(t *testing.T) {
	s := New()
	s.PutSnapshot(mustDecode(t, `{"alpha":{"value":true,"version":1},"beta":{"value":"s","version":4}}`))

	blob, err := s.Serialize()
	require.NoError(t, err)

	restored := New()
	require.NoError(t, restored.Restore(blob))

	for _, key := range []string{"alpha", "beta"} {
		orig, ok1 := s.Get(key)
		rest, ok2 := restored.Get(key)
		require.True(t, ok1)
		require.True(t, ok2)
		assert.Equal(t, orig.Version, rest.Version)
		assert.Equal(t, string(orig.Value.Raw), string(rest.Value.Raw))
	}
}

func TestStore_ApplyingSamePatchTwiceIsIdempotent(t *testing.T) {
	s := New()
	patch := mustDecode(t, `{"alpha":{"value":true,"version":5}}`)

	s.ApplyPatch(patch)
	first, _ := s.Get("alpha")

	s.ApplyPatch(patch)
	second, _ := s.Get("alpha")

	assert.Equal(t, first.Version, second.Version)
	assert.Equal(t, string(first.Value.Raw), string(second.Value.Raw))
}

func TestStore_PutIsAtomicToReaders(t *testing.T) {
	s := New()
	s.PutSnapshot(mustDecode(t, `{"a":{"value":1,"version":1},"b":{"value":2,"version":1}}`))

	var wg sync.WaitGroup
	stop := make(chan struct{})
	violations := 0
	var mu sync.Mutex

	wg.Add(1)
	go func() {
		defer wg.Done()
		for {
			select {
			case <-stop:
				return
			default:
			}
			all := s.GetAll()
			if len(all) != 0 && len(all) != 2 {
				mu.Lock()
				violations++
				mu.Unlock()
			}
		}
	}()

	for i := 0; i < 200; i++ {
		s.PutSnapshot(mustDecode(t, `{"a":{"value":1,"version":1},"b":{"value":2,"version":1}}`))
	}
	close(stop)
	wg.Wait()

	assert.Equal(t, 0, violations, "GetAll must never observe a partial snapshot")
}

func TestStore_ListenerCanReenterStoreWithoutDeadlock(t *testing.T) {
	s := New()
	done := make(chan struct{})

	s.RegisterListener("alpha", func(key string, rec *model.FlagRecord, isDelete bool) {
		// Reentrant calls must not deadlock: no store lock may be held
		// while a listener runs.
		_, _ = s.Get("alpha")
		s.RegisterListener("beta", func(string, *model.FlagRecord, bool) {})
		close(done)
	})

	s.PutSnapshot(mustDecode(t, `{"alpha":{"value":true,"version":1}}`))

	select {
	case <-done:
	default:
		t.Fatal("listener did not complete, possible deadlock")
	}
}

func TestStore_UnregisterListener(t *testing.T) {
	s := New()
	calls := 0
	token := s.RegisterListener("alpha", func(string, *model.FlagRecord, bool) { calls++ })
	s.UnregisterListener("alpha", token)

	s.PutSnapshot(mustDecode(t, `{"alpha":{"value":true,"version":1}}`))
	assert.Equal(t, 0, calls)
}
