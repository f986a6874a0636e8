package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		config  Config
		wantErr error
	}{
		{"no backend", Config{DataDir: "/srv/khatt"}, ErrBackendEmpty},
		{"postgres is not built in", Config{Backend: "postgres", DataDir: "/srv/khatt"}, ErrBackendUnknown},
		{"sqlite", Config{Backend: BackendSQLite, DataDir: "/srv/khatt"}, nil},
		{"sqlite in the working directory", Config{Backend: BackendSQLite}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestConfigValidateNamesBackend(t *testing.T) {
	err := Config{Backend: "mysql"}.Validate()
	assert.ErrorContains(t, err, `"mysql"`)
}
