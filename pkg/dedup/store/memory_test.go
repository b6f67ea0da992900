package store

import (
	"bytes"
	"context"
	"testing"
	"time"
)

func TestMemory_PutGet(t *testing.T) {
	m := NewMemory(time.Minute)
	ctx := context.Background()

	value := []byte(`{"allowed":true}`)

	if err := m.Put(ctx, "key1", value, time.Minute); err != nil {
		t.Fatalf("Put() error = %v", err)
	}

	got, found, err := m.Get(ctx, "key1")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}

	if !found {
		t.Fatal("Get() found = false for existing key")
	}

	if !bytes.Equal(got, value) {
		t.Errorf("Get() = %q, want %q", got, value)
	}
}

func TestMemory_GetMissing(t *testing.T) {
	m := NewMemory(time.Minute)

	_, found, err := m.Get(context.Background(), "absent")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}

	if found {
		t.Error("Get() found = true for absent key")
	}
}

func TestMemory_HasAndForget(t *testing.T) {
	m := NewMemory(time.Minute)
	ctx := context.Background()

	if err := m.Put(ctx, "key1", []byte("v"), time.Minute); err != nil {
		t.Fatalf("Put() error = %v", err)
	}

	has, err := m.Has(ctx, "key1")
	if err != nil {
		t.Fatalf("Has() error = %v", err)
	}

	if !has {
		t.Error("Has() = false after Put()")
	}

	if err := m.Forget(ctx, "key1"); err != nil {
		t.Fatalf("Forget() error = %v", err)
	}

	has, err = m.Has(ctx, "key1")
	if err != nil {
		t.Fatalf("Has() error = %v", err)
	}

	if has {
		t.Error("Has() = true after Forget()")
	}

	// Forgetting an absent key is not an error.
	if err := m.Forget(ctx, "never-existed"); err != nil {
		t.Errorf("Forget() on absent key error = %v", err)
	}
}

func TestMemory_Expiration(t *testing.T) {
	m := NewMemory(time.Minute)
	ctx := context.Background()

	if err := m.Put(ctx, "key1", []byte("v"), 100*time.Millisecond); err != nil {
		t.Fatalf("Put() error = %v", err)
	}

	if _, found, _ := m.Get(ctx, "key1"); !found {
		t.Error("Get() found = false immediately after Put()")
	}

	time.Sleep(200 * time.Millisecond)

	if _, found, _ := m.Get(ctx, "key1"); found {
		t.Error("Get() found = true for expired key")
	}

	if has, _ := m.Has(ctx, "key1"); has {
		t.Error("Has() = true for expired key")
	}
}

func TestMemory_PutIfAbsent(t *testing.T) {
	m := NewMemory(time.Minute)
	ctx := context.Background()

	won, err := m.PutIfAbsent(ctx, "marker", []byte("token-a"), time.Minute)
	if err != nil {
		t.Fatalf("PutIfAbsent() error = %v", err)
	}

	if !won {
		t.Fatal("first PutIfAbsent() = false")
	}

	won, err = m.PutIfAbsent(ctx, "marker", []byte("token-b"), time.Minute)
	if err != nil {
		t.Fatalf("PutIfAbsent() error = %v", err)
	}

	if won {
		t.Error("second PutIfAbsent() = true for held key")
	}

	got, _, _ := m.Get(ctx, "marker")
	if !bytes.Equal(got, []byte("token-a")) {
		t.Errorf("losing PutIfAbsent() overwrote value: got %q", got)
	}

	if err := m.Forget(ctx, "marker"); err != nil {
		t.Fatalf("Forget() error = %v", err)
	}

	won, err = m.PutIfAbsent(ctx, "marker", []byte("token-c"), time.Minute)
	if err != nil {
		t.Fatalf("PutIfAbsent() error = %v", err)
	}

	if !won {
		t.Error("PutIfAbsent() = false after Forget()")
	}
}

func TestMemory_NoTouchOnHit(t *testing.T) {
	m := NewMemory(time.Minute)
	ctx := context.Background()

	if err := m.Put(ctx, "key1", []byte("v"), 150*time.Millisecond); err != nil {
		t.Fatalf("Put() error = %v", err)
	}

	// Repeated reads must not extend the entry's lifetime.
	for i := 0; i < 10; i++ {
		m.Get(ctx, "key1")
		time.Sleep(30 * time.Millisecond)
	}

	if _, found, _ := m.Get(ctx, "key1"); found {
		t.Error("reads extended the TTL of an entry")
	}
}
