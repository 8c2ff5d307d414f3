package store

import (
	"bytes"
	"context"
	"sort"
	"testing"
	"time"
)

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()

	t.Run("new store is empty", func(t *testing.T) {
		s := NewMemoryStore()

		keys, err := s.Keys(ctx, "*")
		if err != nil {
			t.Fatalf("Keys failed: %v", err)
		}
		if len(keys) != 0 {
			t.Errorf("expected empty store, got %d keys", len(keys))
		}

		_, err = s.Get(ctx, "nonexistent")
		if err != ErrKeyNotFound {
			t.Errorf("expected ErrKeyNotFound, got %v", err)
		}
	})

	t.Run("set and get values", func(t *testing.T) {
		s := NewMemoryStore()

		if err := s.Set(ctx, "key1", []byte("value1"), 0); err != nil {
			t.Fatalf("failed to set value: %v", err)
		}

		value, err := s.Get(ctx, "key1")
		if err != nil {
			t.Fatalf("failed to get value: %v", err)
		}
		if !bytes.Equal(value, []byte("value1")) {
			t.Errorf("expected 'value1', got %s", string(value))
		}
	})

	t.Run("overwrite existing key", func(t *testing.T) {
		s := NewMemoryStore()

		if err := s.Set(ctx, "key1", []byte("value1"), 0); err != nil {
			t.Fatalf("failed to set initial value: %v", err)
		}
		if err := s.Set(ctx, "key1", []byte("value2"), 0); err != nil {
			t.Fatalf("failed to overwrite value: %v", err)
		}

		value, err := s.Get(ctx, "key1")
		if err != nil {
			t.Fatalf("failed to get value: %v", err)
		}
		if !bytes.Equal(value, []byte("value2")) {
			t.Errorf("expected 'value2', got %s", string(value))
		}
	})

	t.Run("delete values", func(t *testing.T) {
		s := NewMemoryStore()

		if err := s.Set(ctx, "key1", []byte("value1"), 0); err != nil {
			t.Fatalf("failed to set value: %v", err)
		}
		if err := s.Delete(ctx, "key1"); err != nil {
			t.Fatalf("failed to delete value: %v", err)
		}

		if _, err := s.Get(ctx, "key1"); err != ErrKeyNotFound {
			t.Errorf("expected ErrKeyNotFound after delete, got %v", err)
		}

		// Deleting again is a no-op.
		if err := s.Delete(ctx, "key1"); err != nil {
			t.Errorf("second delete failed: %v", err)
		}
	})

	t.Run("ttl expires entries", func(t *testing.T) {
		s := NewMemoryStore()

		if err := s.Set(ctx, "temp", []byte("v"), 20*time.Millisecond); err != nil {
			t.Fatalf("failed to set value: %v", err)
		}

		if _, err := s.Get(ctx, "temp"); err != nil {
			t.Fatalf("entry expired too early: %v", err)
		}

		time.Sleep(30 * time.Millisecond)

		if _, err := s.Get(ctx, "temp"); err != ErrKeyNotFound {
			t.Errorf("expected ErrKeyNotFound after expiry, got %v", err)
		}
	})

	t.Run("expired keys excluded from enumeration", func(t *testing.T) {
		s := NewMemoryStore()

		s.Set(ctx, "live", []byte("v"), 0)
		s.Set(ctx, "dead", []byte("v"), 10*time.Millisecond)
		time.Sleep(20 * time.Millisecond)

		keys, err := s.Keys(ctx, "*")
		if err != nil {
			t.Fatalf("Keys failed: %v", err)
		}
		if len(keys) != 1 || keys[0] != "live" {
			t.Errorf("expected [live], got %v", keys)
		}
	})
}

func TestMemoryStoreKeysPattern(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	// Keys shaped like the state engine's namespace layout, where keys
	// legitimately contain slashes after the prefix.
	for _, k := range []string{
		"STATE:comp__a/x",
		"STATE:comp__a/nested/y",
		"STATE:comp__b/x",
		"VERSION:comp__a",
	} {
		if err := s.Set(ctx, k, []byte("v"), 0); err != nil {
			t.Fatalf("failed to set %q: %v", k, err)
		}
	}

	keys, err := s.Keys(ctx, "STATE:comp__a/*")
	if err != nil {
		t.Fatalf("Keys failed: %v", err)
	}
	sort.Strings(keys)

	want := []string{"STATE:comp__a/nested/y", "STATE:comp__a/x"}
	if len(keys) != len(want) {
		t.Fatalf("expected %v, got %v", want, keys)
	}
	for i := range want {
		if keys[i] != want[i] {
			t.Errorf("key %d: expected %q, got %q", i, want[i], keys[i])
		}
	}
}

func TestMemoryStoreBatch(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	err := s.Batch(ctx, []Write{
		{Key: "a", Value: []byte("1")},
		{Key: "b", Value: []byte("2"), TTL: time.Hour},
		{Key: "v", Value: []byte("7")},
	})
	if err != nil {
		t.Fatalf("Batch failed: %v", err)
	}

	for key, want := range map[string]string{"a": "1", "b": "2", "v": "7"} {
		got, err := s.Get(ctx, key)
		if err != nil {
			t.Fatalf("failed to get %q: %v", key, err)
		}
		if string(got) != want {
			t.Errorf("key %q: expected %q, got %q", key, want, got)
		}
	}
}

func TestMemoryStoreSetNX(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	ok, err := s.SetNX(ctx, "lock", []byte("tok1"), 0)
	if err != nil || !ok {
		t.Fatalf("first SetNX: ok=%v err=%v", ok, err)
	}

	ok, err = s.SetNX(ctx, "lock", []byte("tok2"), 0)
	if err != nil {
		t.Fatalf("second SetNX failed: %v", err)
	}
	if ok {
		t.Error("second SetNX succeeded on a held key")
	}

	// The original value is untouched.
	got, _ := s.Get(ctx, "lock")
	if string(got) != "tok1" {
		t.Errorf("expected tok1, got %s", got)
	}
}

func TestMemoryStoreSetNXAfterExpiry(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	if ok, _ := s.SetNX(ctx, "lock", []byte("tok1"), 10*time.Millisecond); !ok {
		t.Fatal("first SetNX failed")
	}
	time.Sleep(20 * time.Millisecond)

	ok, err := s.SetNX(ctx, "lock", []byte("tok2"), 0)
	if err != nil {
		t.Fatalf("SetNX failed: %v", err)
	}
	if !ok {
		t.Error("SetNX did not reclaim an expired key")
	}
}

func TestMemoryStoreCompareAndDelete(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	s.Set(ctx, "lock", []byte("tok"), 0)

	deleted, err := s.CompareAndDelete(ctx, "lock", []byte("wrong"))
	if err != nil {
		t.Fatalf("CompareAndDelete failed: %v", err)
	}
	if deleted {
		t.Error("deleted with mismatched value")
	}

	deleted, err = s.CompareAndDelete(ctx, "lock", []byte("tok"))
	if err != nil {
		t.Fatalf("CompareAndDelete failed: %v", err)
	}
	if !deleted {
		t.Error("expected delete with matching value")
	}

	// Absent key: no delete, no error.
	deleted, err = s.CompareAndDelete(ctx, "lock", []byte("tok"))
	if err != nil || deleted {
		t.Errorf("on absent key: deleted=%v err=%v", deleted, err)
	}
}

// TestMemoryStoreCopies verifies the store never aliases caller buffers.
func TestMemoryStoreCopies(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	buf := []byte("original")
	s.Set(ctx, "k", buf, 0)
	buf[0] = 'X'

	got, err := s.Get(ctx, "k")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if string(got) != "original" {
		t.Errorf("store aliased caller buffer: %s", got)
	}

	got[0] = 'Y'
	again, _ := s.Get(ctx, "k")
	if string(again) != "original" {
		t.Errorf("store returned aliased buffer: %s", again)
	}
}
