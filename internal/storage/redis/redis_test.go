package redis

import (
	"context"
	"errors"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/goodtune/bacrevise/internal/config"
	"github.com/goodtune/bacrevise/internal/storage"
)

func setupTestStore(t *testing.T) (*Store, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)

	// miniredis.Addr() returns "host:port", so Port stays 0
	cfg := config.RedisConfig{
		Host:         mr.Addr(),
		Port:         0,
		DB:           0,
		PoolSize:     10,
		MinIdleConns: 1,
		DialTimeout:  "5s",
		ReadTimeout:  "3s",
		WriteTimeout: "3s",
	}

	store, err := Open(cfg)
	if err != nil {
		t.Fatalf("Failed to open Redis store: %v", err)
	}

	return store, mr
}

func TestStore_SetGet(t *testing.T) {
	store, mr := setupTestStore(t)
	defer func() { _ = store.Close() }()

	ctx := context.Background()
	value := []byte(`{"active":true,"goal":"chapitre 3"}`)

	if err := store.Set(ctx, storage.KeyRevisionSession, value); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	got, err := store.Get(ctx, storage.KeyRevisionSession)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if string(got) != string(value) {
		t.Errorf("Expected %s, got %s", value, got)
	}

	// Keys are namespaced and never expire
	raw, err := mr.Get("bacrevise:kv:" + storage.KeyRevisionSession)
	if err != nil {
		t.Fatalf("miniredis Get failed: %v", err)
	}
	if raw != string(value) {
		t.Errorf("Expected raw value %s, got %s", value, raw)
	}
	if ttl := mr.TTL("bacrevise:kv:" + storage.KeyRevisionSession); ttl != 0 {
		t.Errorf("Expected no TTL, got %v", ttl)
	}
}

func TestStore_GetMissing(t *testing.T) {
	store, _ := setupTestStore(t)
	defer func() { _ = store.Close() }()

	_, err := store.Get(context.Background(), storage.KeyUserProgress)
	if !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("Expected ErrNotFound, got %v", err)
	}
}

func TestStore_Delete(t *testing.T) {
	store, mr := setupTestStore(t)
	defer func() { _ = store.Close() }()

	ctx := context.Background()
	if err := store.Set(ctx, storage.KeyUserProgress, []byte("{}")); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if err := store.Delete(ctx, storage.KeyUserProgress); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if mr.Exists("bacrevise:kv:" + storage.KeyUserProgress) {
		t.Error("Expected key to be deleted")
	}
}

func TestStore_ServerError(t *testing.T) {
	store, mr := setupTestStore(t)
	defer func() { _ = store.Close() }()

	mr.SetError("LOADING Redis is loading the dataset in memory")

	_, err := store.Get(context.Background(), storage.KeyUserProgress)
	if err == nil {
		t.Fatal("Expected error when server fails")
	}
	if errors.Is(err, storage.ErrNotFound) {
		t.Error("Server failure must not be reported as ErrNotFound")
	}
}

func TestOpen_InvalidTimeout(t *testing.T) {
	_, err := Open(config.RedisConfig{
		Host:         "127.0.0.1:1",
		DialTimeout:  "soon",
		ReadTimeout:  "3s",
		WriteTimeout: "3s",
	})
	if err == nil {
		t.Fatal("Expected error for invalid dial_timeout")
	}
}
