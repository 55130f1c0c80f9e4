package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAppliesDefaults(t *testing.T) {
	cfg, err := Parse([]byte(""))
	require.NoError(t, err)
	require.NotNil(t, cfg.DATA.Transformation.Filter.MinDepth)
	assert.Equal(t, 0.0, *cfg.DATA.Transformation.Filter.MinDepth)
	assert.Equal(t, 15, cfg.DATA.Georeference.WaterLevel.ToleranceMinutes)
	assert.Equal(t, 3, cfg.Uncertainty.Decimals)
	assert.Equal(t, "depth-positive-down", cfg.DATA.Export.DepthBandConvention)
	assert.False(t, cfg.DATA.Georeference.WaterLevel.DisableTideCorrection)
}

func TestParseRejectsUnrecognizedDepthBandConvention(t *testing.T) {
	_, err := Parse([]byte(`
[DATA.Export]
depth_band_convention = "sideways"
`))
	assert.Error(t, err)
}

func TestParseAcceptsDepthBandConventionAndTideCorrectionToggle(t *testing.T) {
	cfg, err := Parse([]byte(`
[DATA.Export]
depth_band_convention = "depth-positive-up"

[DATA.Georeference.water_level]
disable_tide_correction = true
`))
	require.NoError(t, err)
	assert.Equal(t, "depth-positive-up", cfg.DATA.Export.DepthBandConvention)
	assert.True(t, cfg.DATA.Georeference.WaterLevel.DisableTideCorrection)
}

func TestParseRejectsUnknownKeys(t *testing.T) {
	_, err := Parse([]byte(`
[DATA.Transformation.filter]
min_depth = 0.0
bogus_key = 1
`))
	assert.Error(t, err)
}

func TestParseValidatesActiveProfileAgainstEnvironments(t *testing.T) {
	_, err := Parse([]byte(`
[IWLS.API.PROFILE]
active = "prod"
`))
	assert.Error(t, err)

	cfg, err := Parse([]byte(`
[IWLS.API.PROFILE]
active = "prod"

[IWLS.API.ENVIRONMENT.prod]
name = "production"
endpoint = "https://api.iwls.gc.ca"
calls = 10
period = "1s"
`))
	require.NoError(t, err)
	assert.Equal(t, "prod", cfg.IWLS.API.Profile.Active)
}

func TestParseRejectsInvalidDurationStrings(t *testing.T) {
	_, err := Parse([]byte(`
[IWLS.API.TimeSeries]
max_time_gap = "60 min"
`))
	assert.Error(t, err)
}

func TestParseFullExampleConfig(t *testing.T) {
	cfg, err := Parse([]byte(`
[DATA.Transformation.filter]
min_latitude = -90.0
max_latitude = 90.0
min_depth = 0.0
max_depth = 200.0

[DATA.Georeference.water_level]
water_level_tolerance = 30

[IWLS.API.TimeSeries]
priority = ["wlo", "wlf-spine", "wlf", "wlp"]
max_time_gap = "60m"
threshold_interpolation-filling = "3h"
wlo_qc_flag_filter = ["4", "5"]
buffer_time = "30m"

[IWLS.API.PROFILE]
active = "public"

[IWLS.API.ENVIRONMENT.public]
name = "public"
endpoint = "https://api.iwls.gc.ca"
calls = 10
period = "1s"

[Uncertainty]
constant_tvu_wlo = 0.2
constant_tvu_wlp = 0.3
depth_coefficient_tvu = 1.0
cone_angle_sonar = 3.0
constant_thu = 2.0
`))
	require.NoError(t, err)
	assert.Equal(t, []string{"wlo", "wlf-spine", "wlf", "wlp"}, cfg.IWLS.API.TimeSeries.Priority)
	assert.Equal(t, 30, cfg.DATA.Georeference.WaterLevel.ToleranceMinutes)
}
