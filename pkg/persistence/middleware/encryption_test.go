package middleware_test

import (
	"bytes"
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"io"
	"testing"

	"github.com/aretw0/lattice/pkg/adapters/memory"
	"github.com/aretw0/lattice/pkg/persistence/middleware"
	"github.com/aretw0/lattice/pkg/ports"
)

func generateKey(t *testing.T) []byte {
	k := make([]byte, 32)
	if _, err := io.ReadFull(rand.Reader, k); err != nil {
		t.Fatal(err)
	}
	return k
}

func secure(t *testing.T, next ports.KVStore, cfg middleware.EncryptionConfig) ports.KVStore {
	mw, err := middleware.NewEncryptionMiddleware(cfg)
	if err != nil {
		t.Fatalf("NewEncryptionMiddleware failed: %v", err)
	}
	return mw(next)
}

func TestEncryptionMiddleware_Roundtrip(t *testing.T) {
	underlyingStore := memory.NewStore()
	secureStore := secure(t, underlyingStore, middleware.EncryptionConfig{ActiveKey: generateKey(t)})

	ctx := context.Background()
	secret := []byte(`{"templateName":"my-secret-sauce"}`)

	if err := secureStore.Set(ctx, "templateDrafts", secret); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	// The underlying store only sees the envelope.
	stored, err := underlyingStore.Get(ctx, "templateDrafts")
	if err != nil {
		t.Fatalf("Underlying get failed: %v", err)
	}
	if bytes.Contains(stored, []byte("my-secret-sauce")) {
		t.Fatalf("Expected secret to be hidden, found: %s", stored)
	}
	if !bytes.HasPrefix(stored, []byte("lattice:enc:v1:")) {
		t.Fatalf("Expected envelope prefix, got %q", stored)
	}

	loaded, err := secureStore.Get(ctx, "templateDrafts")
	if err != nil {
		t.Fatalf("Get via middleware failed: %v", err)
	}
	if !bytes.Equal(loaded, secret) {
		t.Errorf("Expected %s, got %s", secret, loaded)
	}

	keys, err := secureStore.List(ctx, "template")
	if err != nil || len(keys) != 1 || keys[0] != "templateDrafts" {
		t.Errorf("Expected keys in clear, got %v (%v)", keys, err)
	}
}

func TestEncryptionMiddleware_KeyRotation(t *testing.T) {
	underlyingStore := memory.NewStore()
	oldKey := generateKey(t)
	newKey := generateKey(t)
	ctx := context.Background()

	secureStoreOld := secure(t, underlyingStore, middleware.EncryptionConfig{ActiveKey: oldKey})
	if err := secureStoreOld.Set(ctx, "session:1", []byte("encrypted-with-old-key")); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	secureStoreNew := secure(t, underlyingStore, middleware.EncryptionConfig{
		ActiveKey:    newKey,
		FallbackKeys: [][]byte{oldKey},
	})
	loaded, err := secureStoreNew.Get(ctx, "session:1")
	if err != nil {
		t.Fatalf("Get with rotated key failed: %v", err)
	}
	if string(loaded) != "encrypted-with-old-key" {
		t.Errorf("Decryption with fallback key failed")
	}

	if err := secureStoreNew.Set(ctx, "session:1", []byte("encrypted-with-new-key")); err != nil {
		t.Fatalf("Set with new key failed: %v", err)
	}
	if _, err := secureStoreOld.Get(ctx, "session:1"); err == nil {
		t.Error("Expected failure when reading new-key encryption with old-key middleware")
	}
}

func TestEncryptionMiddleware_Plaintext(t *testing.T) {
	underlyingStore := memory.NewStore()
	ctx := context.Background()
	if err := underlyingStore.Set(ctx, "legacy", []byte("plain")); err != nil {
		t.Fatal(err)
	}
	key := generateKey(t)

	strict := secure(t, underlyingStore, middleware.EncryptionConfig{ActiveKey: key})
	if _, err := strict.Get(ctx, "legacy"); !errors.Is(err, middleware.ErrNotEncrypted) {
		t.Errorf("Expected ErrNotEncrypted, got %v", err)
	}

	lenient := secure(t, underlyingStore, middleware.EncryptionConfig{ActiveKey: key, AllowPlaintext: true})
	got, err := lenient.Get(ctx, "legacy")
	if err != nil || string(got) != "plain" {
		t.Errorf("Expected plain value, got %q (%v)", got, err)
	}
}

func TestEncryptionMiddleware_InvalidKey(t *testing.T) {
	if _, err := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: []byte("short-key")}); err == nil {
		t.Error("Expected error for invalid key size")
	}
	if _, err := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{
		ActiveKey:    generateKey(t),
		FallbackKeys: [][]byte{[]byte("short")},
	}); err == nil {
		t.Error("Expected error for invalid fallback key size")
	}
}

func TestParseKeys(t *testing.T) {
	active, old := generateKey(t), generateKey(t)
	cfg, err := middleware.ParseKeys([]string{
		base64.StdEncoding.EncodeToString(active),
		base64.StdEncoding.EncodeToString(old),
	})
	if err != nil {
		t.Fatalf("ParseKeys failed: %v", err)
	}
	if !bytes.Equal(cfg.ActiveKey, active) || len(cfg.FallbackKeys) != 1 || !bytes.Equal(cfg.FallbackKeys[0], old) {
		t.Errorf("Unexpected config: %+v", cfg)
	}

	if _, err := middleware.ParseKeys([]string{"not base64!"}); err == nil {
		t.Error("Expected decode error")
	}
}

func TestChain_Order(t *testing.T) {
	var order []string
	tag := func(name string) middleware.Middleware {
		return func(next ports.KVStore) ports.KVStore {
			return recording{KVStore: next, name: name, order: &order}
		}
	}
	kv := middleware.Chain(memory.NewStore(), tag("outer"), tag("inner"))
	if err := kv.Set(context.Background(), "k", []byte("v")); err != nil {
		t.Fatal(err)
	}
	if len(order) != 2 || order[0] != "outer" || order[1] != "inner" {
		t.Errorf("Unexpected order: %v", order)
	}
}

type recording struct {
	ports.KVStore
	name  string
	order *[]string
}

func (r recording) Set(ctx context.Context, key string, value []byte) error {
	*r.order = append(*r.order, r.name)
	return r.KVStore.Set(ctx, key, value)
}
