package file

import (
	"context"
	"testing"

	"ai-picbook-api/internal/config"
	"ai-picbook-api/pkg/errors"
)

func newProviderStore(t *testing.T) *ProviderStore {
	t.Helper()
	store, err := NewProviderStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	return store
}

func TestProviderStoreLoadMissingFile(t *testing.T) {
	store := newProviderStore(t)

	doc, err := store.Load(context.Background(), "image")
	if err != nil {
		t.Fatal(err)
	}
	if doc.Active != "" || len(doc.Providers) != 0 {
		t.Fatalf("doc = %+v, want empty document", doc)
	}
}

func TestProviderStoreApplyAndMask(t *testing.T) {
	store := newProviderStore(t)
	ctx := context.Background()

	masked, err := store.Apply(ctx, "image", &config.ProviderDocument{
		Active: "main",
		Providers: map[string]config.ProviderSettings{
			"main": {Type: config.ProviderTypeOpenAI, APIKey: "sk-abcdef1234567890", Model: "dall-e-3"},
		},
	})
	if err != nil {
		t.Fatal(err)
	}
	if masked.Providers["main"].APIKey == "sk-abcdef1234567890" {
		t.Fatal("apply must not echo the raw api key")
	}
	if !config.IsMaskedKey(masked.Providers["main"].APIKey) {
		t.Fatalf("returned key %q is not masked", masked.Providers["main"].APIKey)
	}

	// 磁盘上保存的是原始 Key
	raw, err := store.Load(ctx, "image")
	if err != nil {
		t.Fatal(err)
	}
	if raw.Providers["main"].APIKey != "sk-abcdef1234567890" {
		t.Fatalf("stored key = %q, want raw value", raw.Providers["main"].APIKey)
	}

	view, err := store.Masked(ctx, "image")
	if err != nil {
		t.Fatal(err)
	}
	if !config.IsMaskedKey(view.Providers["main"].APIKey) {
		t.Fatalf("masked view key = %q", view.Providers["main"].APIKey)
	}
}

func TestProviderStoreApplyKeepsStoredKey(t *testing.T) {
	store := newProviderStore(t)
	ctx := context.Background()

	if _, err := store.Apply(ctx, "text", &config.ProviderDocument{
		Active: "main",
		Providers: map[string]config.ProviderSettings{
			"main": {Type: config.ProviderTypeCompat, APIKey: "sk-original-secret", BaseURL: "https://api.example.com/v1"},
		},
	}); err != nil {
		t.Fatal(err)
	}

	// 客户端把掩码值原样回传，另一个条目 Key 留空
	if _, err := store.Apply(ctx, "text", &config.ProviderDocument{
		Active: "main",
		Providers: map[string]config.ProviderSettings{
			"main":   {Type: config.ProviderTypeCompat, APIKey: config.MaskKey("sk-original-secret"), BaseURL: "https://api.example.com/v2"},
			"backup": {Type: config.ProviderTypeCompat, APIKey: "", BaseURL: "https://backup.example.com/v1"},
		},
	}); err != nil {
		t.Fatal(err)
	}

	raw, err := store.Load(ctx, "text")
	if err != nil {
		t.Fatal(err)
	}
	if raw.Providers["main"].APIKey != "sk-original-secret" {
		t.Fatalf("masked resend overwrote stored key: %q", raw.Providers["main"].APIKey)
	}
	if raw.Providers["main"].BaseURL != "https://api.example.com/v2" {
		t.Fatalf("non-key field not updated: %q", raw.Providers["main"].BaseURL)
	}
	if raw.Providers["backup"].APIKey != "" {
		t.Fatalf("new entry without key must stay empty, got %q", raw.Providers["backup"].APIKey)
	}
}

func TestProviderStoreApplyActiveMustExist(t *testing.T) {
	store := newProviderStore(t)

	_, err := store.Apply(context.Background(), "image", &config.ProviderDocument{
		Active:    "ghost",
		Providers: map[string]config.ProviderSettings{},
	})
	if err == nil {
		t.Fatal("want error when active points to missing provider")
	}
	if errors.AsAppError(err).Code != errors.CodeInvalidParam {
		t.Fatalf("error code = %s, want %s", errors.AsAppError(err).Code, errors.CodeInvalidParam)
	}
}

func TestProviderStoreResolve(t *testing.T) {
	store := newProviderStore(t)
	ctx := context.Background()

	if _, err := store.Apply(ctx, "image", &config.ProviderDocument{
		Active: "main",
		Providers: map[string]config.ProviderSettings{
			"main":  {Type: config.ProviderTypeOpenAI, APIKey: "sk-main-key-123456"},
			"other": {Type: config.ProviderTypeHTTP, APIKey: "sk-other-key-12345", Endpoint: "https://alt.example.com"},
		},
	}); err != nil {
		t.Fatal(err)
	}

	name, settings, err := store.Resolve(ctx, "image", "")
	if err != nil {
		t.Fatal(err)
	}
	if name != "main" || settings.Type != config.ProviderTypeOpenAI {
		t.Fatalf("resolve active = %s/%s", name, settings.Type)
	}
	if settings.APIKey != "sk-main-key-123456" {
		t.Fatal("resolve must return the raw key")
	}

	name, settings, err = store.Resolve(ctx, "image", "other")
	if err != nil {
		t.Fatal(err)
	}
	if name != "other" || settings.Endpoint != "https://alt.example.com" {
		t.Fatalf("resolve named = %s/%+v", name, settings)
	}

	if _, _, err := store.Resolve(ctx, "image", "missing"); errors.AsAppError(err).Code != errors.CodeProviderConfig {
		t.Fatalf("err = %v, want provider config error", err)
	}
}

func TestProviderStoreResolveNoActive(t *testing.T) {
	store := newProviderStore(t)

	_, _, err := store.Resolve(context.Background(), "text", "")
	if err == nil {
		t.Fatal("want error when nothing is configured")
	}
	if errors.AsAppError(err).Code != errors.CodeProviderConfig {
		t.Fatalf("error code = %s, want %s", errors.AsAppError(err).Code, errors.CodeProviderConfig)
	}
}

func TestMaskKeyShape(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"", ""},
		{"short", "****"},
		{"sk-abcdef1234567890", "sk-a****7890"},
	}
	for _, tt := range tests {
		if got := config.MaskKey(tt.in); got != tt.want {
			t.Fatalf("MaskKey(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
	if config.IsMaskedKey("sk-raw-value") {
		t.Fatal("raw key misclassified as masked")
	}
	if !config.IsMaskedKey("sk-a****7890") {
		t.Fatal("masked key not recognized")
	}
}
