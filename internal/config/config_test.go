package config

import (
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wizbi/wizbi/internal/constants"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, "INFO", cfg.LogLevel)
	assert.Equal(t, constants.DefaultRegion, cfg.GCPRegion)
	assert.Equal(t, "(default)", cfg.FirestoreDatabase)
	assert.Equal(t, 2, cfg.WorkerCount)
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("WIZBI_GCP_REGION", "us-central1")
	t.Setenv("WIZBI_PORT", "9999")
	t.Setenv("WIZBI_LOG_LEVEL", "DEBUG")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "us-central1", cfg.GCPRegion)
	assert.Equal(t, 9999, cfg.Port)
	assert.Equal(t, slog.LevelDebug, cfg.GetLogLevel())
}

func TestLoadServerRequiredFields(t *testing.T) {
	t.Setenv("WIZBI_BILLING_ACCOUNT", "billingAccounts/012345-ABCDEF")
	t.Setenv("WIZBI_FIRESTORE_PROJECT", "wizbi-core")
	t.Setenv("WIZBI_GITHUB_OWNER", "wizbi")
	t.Setenv("WIZBI_GITHUB_TOKEN_SECRET", "github-token")
	t.Setenv("WIZBI_PROVISIONER_MEMBER", "serviceAccount:provisioner@wizbi-core.iam.gserviceaccount.com")
	t.Setenv("WIZBI_ROOT_FOLDER_ID", "folders/123456")

	cfg, err := LoadServer()
	require.NoError(t, err)
	assert.Equal(t, "wizbi-core", cfg.FirestoreProject)
}

func TestLoadServerMissingRequiredField(t *testing.T) {
	t.Setenv("WIZBI_BILLING_ACCOUNT", "billingAccounts/012345-ABCDEF")
	// GitHub owner intentionally unset.

	_, err := LoadServer()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cannot be empty")
}

func TestGetLogLevelInvalid(t *testing.T) {
	cfg := &Config{LogLevel: "not-a-level"}
	assert.Equal(t, slog.LevelInfo, cfg.GetLogLevel())
}

func TestGetEnvironment(t *testing.T) {
	assert.Equal(t, constants.Production, (&Config{Environment: "PRODUCTION"}).GetEnvironment())
	assert.Equal(t, constants.Development, (&Config{Environment: ""}).GetEnvironment())
}
