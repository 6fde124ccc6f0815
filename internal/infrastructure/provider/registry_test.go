package provider

import (
	"testing"

	"ai-picbook-api/internal/config"
	"ai-picbook-api/internal/domain/repository"
	"ai-picbook-api/pkg/errors"
)

func TestRegistryUnknownType(t *testing.T) {
	r := NewRegistry()

	_, err := r.Create(config.ProviderSettings{Type: "midjourney"}, Options{})
	if err == nil {
		t.Fatal("want error for unknown provider type")
	}
	if errors.AsAppError(err).Code != errors.CodeProviderConfig {
		t.Fatalf("error code = %s, want %s", errors.AsAppError(err).Code, errors.CodeProviderConfig)
	}
}

func TestRegistryConstructorValidation(t *testing.T) {
	tests := []struct {
		name string
		cfg  config.ProviderSettings
	}{
		{
			name: "openai missing api key",
			cfg:  config.ProviderSettings{Type: config.ProviderTypeOpenAI},
		},
		{
			name: "http missing endpoint",
			cfg:  config.ProviderSettings{Type: config.ProviderTypeHTTP, APIKey: "k"},
		},
		{
			name: "http missing api key",
			cfg:  config.ProviderSettings{Type: config.ProviderTypeHTTP, Endpoint: "https://api.example.com/v1/images"},
		},
		{
			name: "compat missing base url",
			cfg:  config.ProviderSettings{Type: config.ProviderTypeCompat, APIKey: "k"},
		},
	}

	r := NewRegistry()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := r.Create(tt.cfg, Options{})
			if err == nil {
				t.Fatal("want construction-time validation error")
			}
			if errors.AsAppError(err).Code != errors.CodeProviderConfig {
				t.Fatalf("error code = %s, want %s", errors.AsAppError(err).Code, errors.CodeProviderConfig)
			}
		})
	}
}

func TestRegistryRegisterCustomType(t *testing.T) {
	r := NewRegistry()
	r.Register("fake", func(cfg config.ProviderSettings, opts Options) (repository.ImageGenerator, error) {
		return nil, nil
	})

	if _, err := r.Create(config.ProviderSettings{Type: "fake"}, Options{}); err != nil {
		t.Fatalf("custom constructor not used: %v", err)
	}
}
