package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	for _, key := range []string{"ENV", "PORT", "JWT_SECRET", "JWT_EXPIRES_IN", "STORE_DRIVER", "BLOB_DRIVER", "MQ_DRIVER", "GITHUB_CLIENT_ID"} {
		unsetEnv(t, key)
	}
	t.Setenv("ENV", "test")

	cfg := LoadConfig()

	assert.Equal(t, 3001, cfg.ServerPort)
	assert.Equal(t, DefaultJWTSecret, cfg.Auth.JWTSecret)
	assert.Equal(t, 24*time.Hour, cfg.Auth.TokenTTL)
	assert.True(t, cfg.Development())
	assert.Equal(t, []string{"JWT_SECRET"}, cfg.InsecureDefaults())
	require.NoError(t, cfg.Validate())
}

func TestLoadConfig_InvalidDuration(t *testing.T) {
	t.Setenv("ENV", "test")
	t.Setenv("JWT_EXPIRES_IN", "one day")

	cfg := LoadConfig()

	assert.Zero(t, cfg.Auth.TokenTTL)
	assert.ErrorContains(t, cfg.Validate(), "JWT_EXPIRES_IN")
}

func TestValidate(t *testing.T) {
	base := func() Config {
		return Config{
			Env:        "development",
			ServerPort: 3001,
			Auth:       AuthConfig{JWTSecret: DefaultJWTSecret, TokenTTL: time.Hour},
			Store:      StoreConfig{Driver: StoreDriverJSON, BlobDriver: BlobDriverLocal},
			MQ:         MQConfig{Driver: MQDriverNone},
		}
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "development accepts default secret", mutate: func(*Config) {}},
		{
			name:    "production rejects default secret",
			mutate:  func(c *Config) { c.Env = "production" },
			wantErr: "JWT_SECRET must be set outside development",
		},
		{
			name: "production accepts explicit secret",
			mutate: func(c *Config) {
				c.Env = "production"
				c.Auth.JWTSecret = "s3cr3t"
			},
		},
		{
			name: "production requires github secret with client id",
			mutate: func(c *Config) {
				c.Env = "production"
				c.Auth.JWTSecret = "s3cr3t"
				c.GitHub.ClientID = "abc"
			},
			wantErr: "GITHUB_CLIENT_SECRET",
		},
		{
			name:    "empty secret",
			mutate:  func(c *Config) { c.Auth.JWTSecret = " " },
			wantErr: "JWT_SECRET must not be empty",
		},
		{
			name:    "unknown store driver",
			mutate:  func(c *Config) { c.Store.Driver = "mongo" },
			wantErr: "STORE_DRIVER",
		},
		{
			name:    "unknown blob driver",
			mutate:  func(c *Config) { c.Store.BlobDriver = "s3" },
			wantErr: "BLOB_DRIVER",
		},
		{
			name:    "unknown mq driver",
			mutate:  func(c *Config) { c.MQ.Driver = "kafka" },
			wantErr: "MQ_DRIVER",
		},
		{
			name:    "port out of range",
			mutate:  func(c *Config) { c.ServerPort = 70000 },
			wantErr: "PORT",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}

// unsetEnv removes key for the duration of the test.
func unsetEnv(t *testing.T, key string) {
	t.Helper()
	t.Setenv(key, "")
	require.NoError(t, os.Unsetenv(key))
}
