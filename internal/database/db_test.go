package database

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/at-ishikawa/studyset/internal/config"
)

func TestDSN(t *testing.T) {
	tests := []struct {
		name string
		cfg  config.DatabaseConfig
		want []string
	}{
		{
			name: "plain connection",
			cfg: config.DatabaseConfig{
				Host:     "localhost",
				Port:     3306,
				Database: "studyset",
				Username: "app",
				Password: "secret",
			},
			want: []string{"app:secret@tcp(localhost:3306)/studyset", "parseTime=true"},
		},
		{
			name: "tls and extra params",
			cfg: config.DatabaseConfig{
				Host:     "db.example.com",
				Port:     3307,
				Database: "cache",
				Username: "admin",
				TLS:      true,
				Params:   map[string]string{"charset": "utf8mb4"},
			},
			want: []string{"admin@tcp(db.example.com:3307)/cache", "tls=true", "charset=utf8mb4"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DSN(tt.cfg)
			for _, want := range tt.want {
				assert.Contains(t, got, want)
			}
		})
	}
}

func TestOpen(t *testing.T) {
	tests := []struct {
		name string
		cfg  config.DatabaseConfig
	}{
		{
			name: "creates pool with valid config",
			cfg: config.DatabaseConfig{
				Host:     "localhost",
				Port:     3306,
				Database: "studyset",
				Username: "app",
				Password: "secret",
			},
		},
		{
			name: "creates pool with pool settings",
			cfg: config.DatabaseConfig{
				Host:            "localhost",
				Port:            3306,
				Database:        "studyset",
				Username:        "app",
				MaxOpenConns:    25,
				MaxIdleConns:    5,
				ConnMaxLifetime: 300,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Open(tt.cfg)
			require.NoError(t, err)
			require.NotNil(t, got)
			defer got.Close()

			assert.Equal(t, "mysql", got.DriverName())
			if tt.cfg.MaxOpenConns > 0 {
				assert.Equal(t, tt.cfg.MaxOpenConns, got.Stats().MaxOpenConnections)
			}
		})
	}
}
