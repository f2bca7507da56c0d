package analysis

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, ModeUnloader, cfg.Mode)
	assert.Equal(t, 3.0, cfg.Params.DR)
	assert.Equal(t, 500.0, cfg.Params.AreaBound)
	assert.Equal(t, 0.2, cfg.Params.DBoard)
	assert.Equal(t, 20, cfg.Stitch.MaxJoins)
	assert.Equal(t, 1e-3, cfg.Stitch.ArcTolerance)
	assert.NoError(t, cfg.Validate())
}

func TestParseMode(t *testing.T) {
	tests := []struct {
		in      string
		want    Mode
		wantErr bool
	}{
		{"router", ModeRouter, false},
		{"WAVE", ModeWave, false},
		{" press ", ModePress, false},
		{"unloader", ModeUnloader, false},
		{"laser", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseMode(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestLoadConfigOverDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fixture.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
mode: Router
layers:
  selected: [POCKET_5, POCKET_8]
  botsilk: BOTSILK
params:
  dr: 2.5
stitch:
  max_joins: 40
`), 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, ModeRouter, cfg.Mode)
	assert.Equal(t, []string{"POCKET_5", "POCKET_8"}, cfg.Layers.Selected)
	assert.Equal(t, "BOTSILK", cfg.Layers.Botsilk)
	assert.Equal(t, 2.5, cfg.Params.DR)
	assert.Equal(t, 40, cfg.Stitch.MaxJoins)
	// untouched keys keep their defaults
	assert.Equal(t, 500.0, cfg.Params.AreaBound)
	assert.Equal(t, 30.0, cfg.Stitch.RaySearchLength)
}

func TestLoadConfigErrors(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)

	bad := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("mode: [unclosed"), 0o644))
	_, err = LoadConfig(bad)
	assert.Error(t, err)

	unknown := filepath.Join(t.TempDir(), "unknown.yaml")
	require.NoError(t, os.WriteFile(unknown, []byte("mode: laser"), 0o644))
	_, err = LoadConfig(unknown)
	assert.ErrorContains(t, err, "unknown mode")
}

func TestLoadConfigEmptyPath(t *testing.T) {
	cfg, err := LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestValidateJoinsEveryCause(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Params.DR = 0
	cfg.Params.DO = -1

	err := cfg.Validate()
	require.Error(t, err)

	var ce *ConfigurationError
	require.True(t, errors.As(err, &ce))

	joined, ok := err.(interface{ Unwrap() []error })
	require.True(t, ok)
	var roles []string
	for _, e := range joined.Unwrap() {
		require.True(t, errors.As(e, &ce))
		roles = append(roles, ce.Role)
	}
	assert.Equal(t, []string{"dr", "do"}, roles)
}

func TestConfigurationErrorMessage(t *testing.T) {
	assert.Equal(t, "analysis: open: not configured",
		(&ConfigurationError{Role: "open", Reason: "not configured"}).Error())
	assert.Equal(t, `analysis: botsilk layer "SILK": layer is empty`,
		(&ConfigurationError{Layer: "SILK", Role: "botsilk", Reason: "layer is empty"}).Error())
}
