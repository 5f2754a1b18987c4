package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/hashicorp/vault/api"
)

func TestParseVersionValue(t *testing.T) {
	tests := []struct {
		name        string
		input       any
		expected    int64
		expectError bool
	}{
		{name: "int64 value", input: int64(42), expected: 42},
		{name: "float64 value", input: float64(42.0), expected: 42},
		{name: "string value", input: "42", expected: 42},
		{name: "invalid string value", input: "not-a-number", expectError: true},
		{name: "unsupported type", input: []string{"42"}, expectError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := parseVersionValue(tt.input, "test/path")

			if tt.expectError {
				if err == nil {
					t.Fatal("expected an error")
				}
				return
			}
			if err != nil {
				t.Fatalf("parseVersionValue: %v", err)
			}
			if result != tt.expected {
				t.Errorf("parseVersionValue = %d, want %d", result, tt.expected)
			}
		})
	}
}

func TestResolveVaultToken(t *testing.T) {
	t.Run("token from config", func(t *testing.T) {
		token, err := resolveVaultToken(VaultConfig{Token: "direct-token"}, nil)
		if err != nil {
			t.Fatalf("resolveVaultToken: %v", err)
		}
		if token != "direct-token" {
			t.Errorf("token = %q, want %q", token, "direct-token")
		}
	})

	t.Run("token from file is trimmed", func(t *testing.T) {
		tokenFile := filepath.Join(t.TempDir(), "vault-token")
		if err := os.WriteFile(tokenFile, []byte("  file-token  \n"), 0600); err != nil {
			t.Fatalf("writing token file: %v", err)
		}

		token, err := resolveVaultToken(VaultConfig{TokenFile: tokenFile}, nil)
		if err != nil {
			t.Fatalf("resolveVaultToken: %v", err)
		}
		if token != "file-token" {
			t.Errorf("token = %q, want %q", token, "file-token")
		}
	})

	t.Run("missing token file", func(t *testing.T) {
		_, err := resolveVaultToken(VaultConfig{TokenFile: "/nonexistent/token/file"}, nil)
		if err == nil || !strings.Contains(err.Error(), "failed to read vault token file") {
			t.Errorf("expected token file error, got %v", err)
		}
	})

	t.Run("no token provided", func(t *testing.T) {
		_, err := resolveVaultToken(VaultConfig{}, nil)
		if err == nil || !strings.Contains(err.Error(), "vault token is required") {
			t.Errorf("expected missing token error, got %v", err)
		}
	})

	t.Run("empty token from file", func(t *testing.T) {
		tokenFile := filepath.Join(t.TempDir(), "empty-token")
		if err := os.WriteFile(tokenFile, []byte("   \n  \n"), 0600); err != nil {
			t.Fatalf("writing token file: %v", err)
		}

		_, err := resolveVaultToken(VaultConfig{TokenFile: tokenFile}, nil)
		if err == nil || !strings.Contains(err.Error(), "vault token is required") {
			t.Errorf("expected missing token error, got %v", err)
		}
	})
}

func TestApplyVaultSecretsDisabled(t *testing.T) {
	config := &Config{
		Vault: VaultConfig{Enabled: false},
	}

	if err := ApplyVaultSecrets(config, nil); err != nil {
		t.Errorf("ApplyVaultSecrets with vault disabled should be a no-op, got %v", err)
	}
}

func TestVaultClientExtractSecretData(t *testing.T) {
	vc := &VaultClient{}

	t.Run("valid KVv2 secret", func(t *testing.T) {
		secret := &api.Secret{
			Data: map[string]any{
				"data": map[string]any{"api_key": "key-value"},
			},
		}

		data, err := vc.extractSecretData(secret, "secret/data/test")
		if err != nil {
			t.Fatalf("extractSecretData: %v", err)
		}
		if data["api_key"] != "key-value" {
			t.Errorf("data[api_key] = %v, want key-value", data["api_key"])
		}
	})

	t.Run("missing data field", func(t *testing.T) {
		secret := &api.Secret{Data: map[string]any{}}

		_, err := vc.extractSecretData(secret, "secret/data/test")
		if err == nil || !strings.Contains(err.Error(), "KVv2 format") {
			t.Errorf("expected KVv2 format error, got %v", err)
		}
	})
}

func TestVaultClientExtractSecretVersion(t *testing.T) {
	vc := &VaultClient{}

	t.Run("valid version", func(t *testing.T) {
		secret := &api.Secret{
			Data: map[string]any{
				"metadata": map[string]any{"version": int64(3)},
			},
		}

		version, err := vc.extractSecretVersion(secret, "secret/data/test")
		if err != nil {
			t.Fatalf("extractSecretVersion: %v", err)
		}
		if version != 3 {
			t.Errorf("version = %d, want 3", version)
		}
	})

	t.Run("missing metadata", func(t *testing.T) {
		secret := &api.Secret{Data: map[string]any{}}

		_, err := vc.extractSecretVersion(secret, "secret/data/test")
		if err == nil || !strings.Contains(err.Error(), "KVv2 format") {
			t.Errorf("expected KVv2 format error, got %v", err)
		}
	})
}
