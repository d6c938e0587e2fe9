package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	t.Setenv("PROJECT_ID", "diag-dev")
	t.Setenv("STORAGE_BACKEND", "")
	t.Setenv("STORAGE_BUCKET", "diag-dev.appspot.com")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "development", cfg.Env)
	assert.Equal(t, backendFirebase, cfg.StorageBackend)
	assert.True(t, cfg.FirestoreEnabled)
	assert.Equal(t, int64(512), cfg.UploadMaxMemoryMB)
	assert.Equal(t, "http://localhost:3000", cfg.CORSAllowedOrigin)
	assert.True(t, cfg.IsDev())
}

func TestLoadConfig_MemoryBackendWithoutProject(t *testing.T) {
	t.Setenv("STORAGE_BACKEND", "Memory")
	t.Setenv("FIRESTORE_ENABLED", "false")
	t.Setenv("PROJECT_ID", "")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, backendMemory, cfg.StorageBackend)
	assert.False(t, cfg.FirestoreEnabled)
}

func TestLoadConfig_FirebaseNeedsBucket(t *testing.T) {
	t.Setenv("PROJECT_ID", "diag-dev")
	t.Setenv("STORAGE_BACKEND", "firebase")
	t.Setenv("STORAGE_BUCKET", "")

	_, err := LoadConfig()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "STORAGE_BUCKET")
}

func TestConfig_Validate(t *testing.T) {
	base := Config{
		StorageBackend:    backendMemory,
		UploadMaxMemoryMB: 32,
	}
	require.NoError(t, base.Validate())

	bad := base
	bad.StorageBackend = "s3"
	assert.Error(t, bad.Validate())

	noBucket := base
	noBucket.StorageBackend = backendFirebase
	assert.Error(t, noBucket.Validate())

	projectOnly := noBucket
	projectOnly.ProjectID = "diag-dev"
	assert.Error(t, projectOnly.Validate())

	withBucket := projectOnly
	withBucket.StorageBucket = "diag-dev.appspot.com"
	assert.NoError(t, withBucket.Validate())

	fsNoProject := base
	fsNoProject.FirestoreEnabled = true
	assert.Error(t, fsNoProject.Validate())

	zeroMem := base
	zeroMem.UploadMaxMemoryMB = 0
	assert.Error(t, zeroMem.Validate())
}
