package config

import (
	"os"
	"path/filepath"
	"testing"

	"jobscout/internal/errors"

	"github.com/hashicorp/vault/api"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func kvv2Secret(data map[string]any, version int64) *api.Secret {
	return &api.Secret{
		Data: map[string]interface{}{
			"data":     data,
			"metadata": map[string]any{"version": version},
		},
	}
}

func newMockLogger() *errors.Logger {
	logger, _ := errors.New("debug")
	return logger
}

// Test parseVersionValue function
func TestParseVersionValue(t *testing.T) {
	tests := []struct {
		name        string
		input       interface{}
		path        string
		expected    int64
		expectError bool
	}{
		{
			name:     "int64 value",
			input:    int64(42),
			path:     "test/path",
			expected: 42,
		},
		{
			name:     "float64 value",
			input:    float64(42.0),
			path:     "test/path",
			expected: 42,
		},
		{
			name:     "string value",
			input:    "42",
			path:     "test/path",
			expected: 42,
		},
		{
			name:        "invalid string value",
			input:       "not-a-number",
			path:        "test/path",
			expectError: true,
		},
		{
			name:        "unsupported type",
			input:       []string{"42"},
			path:        "test/path",
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := parseVersionValue(tt.input, tt.path)

			if tt.expectError {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
				assert.Equal(t, tt.expected, result)
			}
		})
	}
}

// Test applyIdentityKeyToConfig function
func TestApplyIdentityKeyToConfig(t *testing.T) {
	config := &Config{}

	identityKey := "test-identity-key"
	applyIdentityKeyToConfig(config, identityKey)

	assert.Equal(t, identityKey, config.Identity.APIKey)
}

// Test resolveVaultToken function
func TestResolveVaultToken(t *testing.T) {
	logger := newMockLogger()

	t.Run("token from config", func(t *testing.T) {
		config := VaultConfig{
			Token: "direct-token",
		}

		token, err := resolveVaultToken(config, logger)
		assert.NoError(t, err)
		assert.Equal(t, "direct-token", token)
	})

	t.Run("token from file", func(t *testing.T) {
		tmpDir := t.TempDir()
		tokenFile := filepath.Join(tmpDir, "vault-token")
		err := os.WriteFile(tokenFile, []byte("  file-token  \n"), 0600)
		require.NoError(t, err)

		config := VaultConfig{
			TokenFile: tokenFile,
		}

		token, err := resolveVaultToken(config, logger)
		assert.NoError(t, err)
		assert.Equal(t, "file-token", token) // Should be trimmed
	})

	t.Run("missing token file", func(t *testing.T) {
		config := VaultConfig{
			TokenFile: "/nonexistent/token/file",
		}

		_, err := resolveVaultToken(config, logger)
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "failed to read vault token file")
	})

	t.Run("no token provided", func(t *testing.T) {
		config := VaultConfig{}

		_, err := resolveVaultToken(config, logger)
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "vault token is required")
	})
}

// Test NewVaultClient with disabled config
func TestNewVaultClientDisabled(t *testing.T) {
	client, err := NewVaultClient(VaultConfig{Enabled: false}, newMockLogger())
	assert.NoError(t, err)
	assert.Nil(t, client)
}

// Test GetSecretV2 on an uninitialized client
func TestGetSecretV2NilClient(t *testing.T) {
	var vc *VaultClient
	_, err := vc.GetSecretV2("secret/data/identity")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "not initialized")
}

// Test extractSecretData and extractSecretVersion against KVv2 shapes
func TestExtractSecretData(t *testing.T) {
	vc := &VaultClient{}

	t.Run("valid KVv2 data", func(t *testing.T) {
		secret := kvv2Secret(map[string]any{"api_key": "abc"}, 3)
		data, err := vc.extractSecretData(secret, "secret/data/identity")
		require.NoError(t, err)
		assert.Equal(t, "abc", data["api_key"])

		version, err := vc.extractSecretVersion(secret, "secret/data/identity")
		require.NoError(t, err)
		assert.Equal(t, int64(3), version)
	})

	t.Run("missing data field", func(t *testing.T) {
		secret := kvv2Secret(map[string]any{"api_key": "abc"}, 3)
		delete(secret.Data, "data")
		_, err := vc.extractSecretData(secret, "secret/data/identity")
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "missing 'data' field")
	})

	t.Run("missing metadata field", func(t *testing.T) {
		secret := kvv2Secret(map[string]any{"api_key": "abc"}, 3)
		delete(secret.Data, "metadata")
		_, err := vc.extractSecretVersion(secret, "secret/data/identity")
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "missing 'metadata' field")
	})
}
