package config_test

import (
	"testing"
	"time"

	"foodgram/internal/config"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromViper_Defaults(t *testing.T) {
	v := viper.New()
	config.SetDefaults(v)

	cfg, err := config.FromViper(v)
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.AppPort)
	assert.Equal(t, "postgres", cfg.DatabaseDriver)
	assert.Equal(t, 24*time.Hour, cfg.TokenTTL)
	assert.Equal(t, "local", cfg.StorageDriver)
	assert.Equal(t, "./ingredients.csv", cfg.IngredientsCSV)
	assert.Equal(t, "static/data/ingredients.csv", cfg.IngredientsDataCSV)
}

func TestFromViper_Overrides(t *testing.T) {
	v := viper.New()
	config.SetDefaults(v)
	v.Set("DATABASE_DRIVER", "SQLite")
	v.Set("TOKEN_TTL", "90m")
	v.Set("STORAGE_DRIVER", "s3")
	v.Set("S3_BUCKET", "recipes")

	cfg, err := config.FromViper(v)
	require.NoError(t, err)

	assert.Equal(t, "sqlite", cfg.DatabaseDriver)
	assert.Equal(t, 90*time.Minute, cfg.TokenTTL)
	assert.Equal(t, "recipes", cfg.S3.Bucket)
}

func TestFromViper_Invalid(t *testing.T) {
	cases := map[string]map[string]any{
		"unknown driver":    {"DATABASE_DRIVER": "mysql"},
		"s3 without bucket": {"STORAGE_DRIVER": "s3"},
		"empty secret":      {"JWT_SECRET": ""},
		"zero ttl":          {"TOKEN_TTL": "0s"},
	}
	for name, overrides := range cases {
		t.Run(name, func(t *testing.T) {
			v := viper.New()
			config.SetDefaults(v)
			for k, val := range overrides {
				v.Set(k, val)
			}
			_, err := config.FromViper(v)
			assert.Error(t, err)
		})
	}
}
