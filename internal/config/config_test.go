package config

import (
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	viper.Reset()
	t.Setenv("APP_ENV", "test")
	t.Setenv("DATABASE_URL_TEST", "postgres://localhost/homesocial_test")
	t.Setenv("APP_BASE_URL", "https://homesocial.example/ ")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "test", cfg.Env)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "postgres://localhost/homesocial_test", cfg.DatabaseURL)
	assert.Equal(t, "listing-photos", cfg.PhotoBucket)
	assert.Equal(t, "listing-videos", cfg.VideoBucket)
	assert.Equal(t, 100, cfg.MaxUploadMB)
	assert.Equal(t, "https://homesocial.example", cfg.AppBaseURL)
}

func TestLoad_CrossSiteFlag(t *testing.T) {
	viper.Reset()
	t.Setenv("ALLOW_CROSS_SITE_DEV", "TRUE")
	t.Setenv("PHOTO_BUCKET", "photos-staging")

	cfg, err := Load()
	require.NoError(t, err)
	assert.True(t, cfg.AllowCrossSiteDev)
	assert.Equal(t, "photos-staging", cfg.PhotoBucket)
	assert.Equal(t, "development", cfg.Env)
}
