// Package config loads the pipeline's TOML configuration (§6), enumerating
// every recognized option and rejecting unknown keys (§9 design note:
// "enumerate the recognized config options and reject unknown keys to
// prevent silent misconfiguration").
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"
)

// FilterConfig mirrors DATA.Transformation.filter (§6).
type FilterConfig struct {
	MinLatitude  *float64 `toml:"min_latitude"`
	MaxLatitude  *float64 `toml:"max_latitude"`
	MinLongitude *float64 `toml:"min_longitude"`
	MaxLongitude *float64 `toml:"max_longitude"`
	MinDepth     *float64 `toml:"min_depth"`
	MaxDepth     *float64 `toml:"max_depth"`
	MinSpeed     *float64 `toml:"min_speed"`
	MaxSpeed     *float64 `toml:"max_speed"`
}

// GeoreferenceConfig mirrors DATA.Georeference (§6).
type GeoreferenceConfig struct {
	WaterLevel struct {
		ToleranceMinutes      int  `toml:"water_level_tolerance"`
		DisableTideCorrection bool `toml:"disable_tide_correction"`
	} `toml:"water_level"`
}

// ExportConfig mirrors DATA.Export: fields consulted by the out-of-scope
// Caris/export collaborator (§1), plumbed through this core's output
// metadata but not acted on here (resolved open question, SPEC_FULL.md).
type ExportConfig struct {
	DepthBandConvention string `toml:"depth_band_convention"`
}

// TimeSeriesConfig mirrors IWLS.API.TimeSeries (§6).
type TimeSeriesConfig struct {
	Priority                      []string `toml:"priority"`
	MaxTimeGap                    string   `toml:"max_time_gap"`
	ThresholdInterpolationFilling string   `toml:"threshold_interpolation-filling"`
	WLOQCFlagFilter               []string `toml:"wlo_qc_flag_filter"`
	BufferTime                    string   `toml:"buffer_time"`
}

// EnvironmentConfig mirrors one entry of IWLS.API.ENVIRONMENT (§6).
type EnvironmentConfig struct {
	Name     string `toml:"name"`
	Endpoint string `toml:"endpoint"`
	Calls    int    `toml:"calls"`
	Period   string `toml:"period"`
}

// APIConfig mirrors the IWLS.API table (§6).
type APIConfig struct {
	TimeSeries  TimeSeriesConfig             `toml:"TimeSeries"`
	Environment map[string]EnvironmentConfig `toml:"ENVIRONMENT"`
	Profile     struct {
		Active string `toml:"active"`
	} `toml:"PROFILE"`
}

// UncertaintyConfig mirrors the flat Uncertainty option set (§6).
type UncertaintyConfig struct {
	ConstantTVUWLO      float64            `toml:"constant_tvu_wlo"`
	ConstantTVUWLP      float64            `toml:"constant_tvu_wlp"`
	DepthCoefficientTVU float64            `toml:"depth_coefficient_tvu"`
	ConeAngleSonar      float64            `toml:"cone_angle_sonar"`
	ConstantTHU         float64            `toml:"constant_thu"`
	StationUncertainty  map[string]float64 `toml:"station_uncertainty"`
	Decimals            int                `toml:"decimals"`
}

// Config is the root TOML document (§6).
type Config struct {
	DATA struct {
		Transformation struct {
			Filter FilterConfig `toml:"filter"`
		} `toml:"Transformation"`
		Georeference GeoreferenceConfig `toml:"Georeference"`
		Export       ExportConfig       `toml:"Export"`
	} `toml:"DATA"`
	IWLS struct {
		API APIConfig `toml:"API"`
	} `toml:"IWLS"`
	Uncertainty UncertaintyConfig `toml:"Uncertainty"`
}

// Load reads and validates a TOML config file at path, rejecting any key
// not recognized by the Config struct tags above.
func Load(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %q: %w", path, err)
	}
	return Parse(raw)
}

// Parse decodes raw TOML bytes into a validated Config.
func Parse(raw []byte) (*Config, error) {
	var cfg Config
	meta, err := toml.Decode(string(raw), &cfg)
	if err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return nil, fmt.Errorf("unrecognized config keys: %v", undecoded)
	}

	applyDefaults(&cfg)
	if err := validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.DATA.Transformation.Filter.MinDepth == nil {
		zero := 0.0
		cfg.DATA.Transformation.Filter.MinDepth = &zero
	}
	if cfg.DATA.Georeference.WaterLevel.ToleranceMinutes == 0 {
		cfg.DATA.Georeference.WaterLevel.ToleranceMinutes = 15
	}
	if cfg.Uncertainty.Decimals == 0 {
		cfg.Uncertainty.Decimals = 3
	}
	if cfg.DATA.Export.DepthBandConvention == "" {
		cfg.DATA.Export.DepthBandConvention = "depth-positive-down"
	}
}

// validDepthBandConventions enumerates DATA.Export.depth_band_convention
// (resolved open question: the CSAR vertical convention is a configuration
// input, not inferred — §9).
var validDepthBandConventions = map[string]bool{
	"depth-positive-down": true,
	"depth-positive-up":   true,
}

func validate(cfg *Config) error {
	if cfg.IWLS.API.Profile.Active != "" {
		if _, ok := cfg.IWLS.API.Environment[cfg.IWLS.API.Profile.Active]; !ok {
			return fmt.Errorf("IWLS.API.PROFILE.active %q has no matching IWLS.API.ENVIRONMENT entry", cfg.IWLS.API.Profile.Active)
		}
	}
	if _, err := parseDurationOrEmpty(cfg.IWLS.API.TimeSeries.MaxTimeGap); err != nil {
		return fmt.Errorf("IWLS.API.TimeSeries.max_time_gap: %w", err)
	}
	if _, err := parseDurationOrEmpty(cfg.IWLS.API.TimeSeries.ThresholdInterpolationFilling); err != nil {
		return fmt.Errorf("IWLS.API.TimeSeries.threshold_interpolation-filling: %w", err)
	}
	if _, err := parseDurationOrEmpty(cfg.IWLS.API.TimeSeries.BufferTime); err != nil {
		return fmt.Errorf("IWLS.API.TimeSeries.buffer_time: %w", err)
	}
	if !validDepthBandConventions[cfg.DATA.Export.DepthBandConvention] {
		return fmt.Errorf("DATA.Export.depth_band_convention: unrecognized value %q", cfg.DATA.Export.DepthBandConvention)
	}
	return nil
}

func parseDurationOrEmpty(s string) (time.Duration, error) {
	if s == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, errors.Join(fmt.Errorf("invalid duration %q", s), err)
	}
	return d, nil
}
