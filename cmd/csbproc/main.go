// Command csbproc runs the crowd-sourced bathymetry processing pipeline:
// parse, clean, tessellate tide zones, reconcile water levels against the
// tidal API, georeference, and classify uncertainty. Generalized from the
// teacher's convert/convert-trawl commands in cmd/main.go.
package main

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/chs-csb/csb-processing/internal/clean"
	"github.com/chs-csb/csb-processing/internal/config"
	"github.com/chs-csb/csb-processing/internal/georef"
	"github.com/chs-csb/csb-processing/internal/metrics"
	"github.com/chs-csb/csb-processing/internal/parser"
	"github.com/chs-csb/csb-processing/internal/parser/search"
	"github.com/chs-csb/csb-processing/internal/reconcile"
	"github.com/chs-csb/csb-processing/internal/schema"
	"github.com/chs-csb/csb-processing/internal/tide"
	"github.com/chs-csb/csb-processing/internal/tideapi"
	"github.com/chs-csb/csb-processing/internal/uncertainty"
	"github.com/chs-csb/csb-processing/internal/vessel"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	app := &cli.App{
		Name:  "csbproc",
		Usage: "process crowd-sourced bathymetry soundings against tide-gauge water levels",
		Commands: []*cli.Command{
			{
				Name:  "run",
				Usage: "run the full pipeline over a directory of sounding files",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "config", Required: true, Usage: "path to the TOML config file"},
					&cli.StringFlag{Name: "input", Required: true, Usage: "directory to trawl for sounding files"},
					&cli.StringFlag{Name: "vessel-config", Required: true, Usage: "path to the vessel sensor configuration JSON"},
					&cli.StringFlag{Name: "output", Required: true, Usage: "path to write the processed soundings CSV"},
					&cli.IntFlag{Name: "file-pool-size", Value: 4, Usage: "bounded file-read pool size"},
					&cli.IntFlag{Name: "reconcile-pool-size", Value: reconcile.DefaultPoolSize, Usage: "bounded per-zone reconciliation pool size"},
				},
				Action: func(cCtx *cli.Context) error {
					return run(cCtx, logger)
				},
			},
			{
				Name:  "validate-config",
				Usage: "load and validate a TOML config file without running the pipeline",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "config", Required: true, Usage: "path to the TOML config file"},
				},
				Action: func(cCtx *cli.Context) error {
					cfg, err := config.Load(cCtx.String("config"))
					if err != nil {
						return err
					}
					logger.Info("config valid", "active_profile", cfg.IWLS.API.Profile.Active)
					return nil
				},
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		logger.Error("csbproc failed", "error", err)
		os.Exit(1)
	}
}

// run wires every pipeline stage in order, mirroring the teacher's
// convert_gsf_list pool-submission shape but generalized to the multi-stage
// CSB pipeline of spec §3.
func run(cCtx *cli.Context, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	started := time.Now()
	m := metrics.NewMetrics()
	m.PipelineRunning.Set(1)
	defer m.PipelineRunning.Set(0)
	defer func() { m.PipelineDuration.Observe(time.Since(started).Seconds()) }()

	cfg, err := config.Load(cCtx.String("config"))
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	env, err := activeEnvironment(cfg)
	if err != nil {
		return err
	}

	vesselCfg, err := vessel.LoadStaticConfig(cCtx.String("vessel-config"))
	if err != nil {
		return fmt.Errorf("load vessel config: %w", err)
	}

	logger.Info("searching for sounding files", "dir", cCtx.String("input"))
	files, err := search.Find(cCtx.String("input"))
	if err != nil {
		return fmt.Errorf("search input directory: %w", err)
	}
	logger.Info("found sounding files", "count", len(files))

	reg := parser.NewRegistry()
	headers := readHeaders(files)

	results := parser.ReadAll(ctx, reg, files, headers, cCtx.Int("file-pool-size"))

	var soundings []schema.RawSounding
	for _, r := range results {
		m.FilesRead.Inc()
		if r.Err != nil {
			var pe *parser.ParsingError
			if errors.As(r.Err, &pe) {
				m.ParseErrors.WithLabelValues(string(mustDetectKind(reg, r.File, headers[r.File]))).Inc()
			}
			logger.Warn("file read failed", "file", r.File, "error", r.Err)
			continue
		}
		m.RowsIngested.Add(float64(r.Stats.RowsRead))
		m.RowsDropped.Add(float64(r.Stats.RowsDropped))
		soundings = append(soundings, r.Rows...)
	}
	soundings = parser.DedupAndSort(soundings)

	cleaner := clean.New(cleanerFilterConfig(cfg), allFilters())
	before := len(soundings)
	soundings = cleaner.Clean(soundings)
	m.RowsCleaned.Add(float64(before - len(soundings)))

	// Validated after cleaning, not right out of the parser: the parser
	// only rejects null time/lat/lon/depth (§4.1), while RawSounding's
	// depth > 0 invariant is an ordinary range violation the cleaner's
	// depth filter tags and drops (§4.2, default min_depth=0). Running
	// this check pre-clean would turn routine messy sensor input into a
	// fatal SchemaViolationError, which §7 reserves for programmer error.
	if err := schema.ValidateAll("cleaner", soundings); err != nil {
		return fmt.Errorf("cleaner output validation: %w", err)
	}

	tideClient := tideapi.NewClient(tideClientConfig(cfg, env), logger)

	wireStations, err := tideClient.GetAllStations(ctx)
	if err != nil {
		return fmt.Errorf("fetch tide stations: %w", err)
	}
	stations := toTideStations(wireStations)

	priority := cfg.IWLS.API.TimeSeries.Priority
	zones := tide.BuildZones(stations, priority, nil)
	m.TideZonesBuilt.Set(float64(len(zones)))
	logger.Info("tide zones built", "count", len(zones))

	enriched := tide.Attach(soundings, zones)
	for _, s := range enriched {
		if s.TideZoneID == nil {
			m.UnzonedRows.Inc()
		}
	}

	maxGap, err := parseDurationOrDefault(cfg.IWLS.API.TimeSeries.MaxTimeGap, tide.DefaultGapThreshold)
	if err != nil {
		return fmt.Errorf("IWLS.API.TimeSeries.max_time_gap: %w", err)
	}
	units := tide.MakeWorkUnits(enriched, zones, maxGap)
	logger.Info("reconciliation work units built", "count", len(units))

	reconcileCfg, err := reconcileConfig(cfg)
	if err != nil {
		return err
	}

	var seriesByZone map[string]reconcile.ReconciledWaterLevel
	if cfg.DATA.Georeference.WaterLevel.DisableTideCorrection {
		logger.Info("tide correction disabled, using zero water level (wlz flow)")
		seriesByZone = georef.ZeroWaterLevel(enriched)
	} else {
		reconcileStarted := time.Now()
		var reconcileErrs map[string]error
		seriesByZone, reconcileErrs = reconcile.ReconcileAll(ctx, tideClient, units, reconcileCfg, cCtx.Int("reconcile-pool-size"))
		m.ReconcileDuration.Observe(time.Since(reconcileStarted).Seconds())
		for zoneID, rerr := range reconcileErrs {
			logger.Warn("reconciliation failed for zone", "zone", zoneID, "error", rerr)
		}
	}

	georefCfg := georef.Config{
		WaterLevelToleranceMinutes: cfg.DATA.Georeference.WaterLevel.ToleranceMinutes,
		VesselConfig:               vesselCfg,
	}
	processed, err := georef.Georeference(enriched, seriesByZone, georefCfg)
	if err != nil {
		return fmt.Errorf("georeference: %w", err)
	}

	uncertaintyCfg := uncertaintyConfig(cfg)
	for i := range processed {
		processed[i].WaterLevel.DepthBandConvention = cfg.DATA.Export.DepthBandConvention
		if !processed[i].WaterLevel.Reduced {
			if processed[i].TideZoneID == nil {
				m.SoundingsSkippedNoZone.Inc()
			}
			continue
		}
		uncertainty.Compute(&processed[i], uncertaintyCfg)
		m.SoundingsGeoreferenced.Inc()
	}

	if err := schema.ValidateAll("uncertainty", processed); err != nil {
		return fmt.Errorf("processed output validation: %w", err)
	}

	summary := uncertainty.Summarize(processed)
	for _, row := range summary {
		logger.Info("order summary", "order", row.Order, "count", row.Count, "percentage", row.Percentage)
	}

	if err := writeCSV(cCtx.String("output"), processed); err != nil {
		return fmt.Errorf("write output: %w", err)
	}

	logger.Info("pipeline finished", "soundings_out", len(processed), "elapsed", time.Since(started))
	return nil
}

func mustDetectKind(reg *parser.Registry, file, header string) parser.Kind {
	kind, err := reg.Detect(file, header)
	if err != nil {
		return "unknown"
	}
	return kind
}

// readHeaders reads the first line of every text-format candidate file so
// Registry.Detect can match a header signature; binary/GeoJSON formats
// ignore the header and tolerate an empty string here.
func readHeaders(files []string) map[string]string {
	headers := make(map[string]string, len(files))
	for _, f := range files {
		headers[f] = firstLine(f)
	}
	return headers
}

func firstLine(path string) string {
	data, err := os.ReadFile(path)
	if err != nil {
		return ""
	}
	for i, b := range data {
		if b == '\n' {
			return string(data[:i])
		}
	}
	return string(data)
}

func activeEnvironment(cfg *config.Config) (config.EnvironmentConfig, error) {
	active := cfg.IWLS.API.Profile.Active
	env, ok := cfg.IWLS.API.Environment[active]
	if !ok {
		return config.EnvironmentConfig{}, fmt.Errorf("no IWLS.API.ENVIRONMENT entry for active profile %q", active)
	}
	return env, nil
}

func tideClientConfig(cfg *config.Config, env config.EnvironmentConfig) tideapi.Config {
	profile := tideapi.ProfilePublic
	if cfg.IWLS.API.Profile.Active == string(tideapi.ProfilePrivate) {
		profile = tideapi.ProfilePrivate
	}
	c := tideapi.DefaultConfig(profile, env.Endpoint)
	if env.Calls > 0 {
		c.RateCalls = env.Calls
	}
	if period, err := parseDurationOrDefault(env.Period, c.RatePeriod); err == nil {
		c.RatePeriod = period
	}
	return c
}

func reconcileConfig(cfg *config.Config) (reconcile.Config, error) {
	ts := cfg.IWLS.API.TimeSeries

	var maxGap *time.Duration
	if ts.MaxTimeGap != "" {
		d, err := time.ParseDuration(ts.MaxTimeGap)
		if err != nil {
			return reconcile.Config{}, fmt.Errorf("IWLS.API.TimeSeries.max_time_gap: %w", err)
		}
		maxGap = &d
	}

	var threshold *time.Duration
	if ts.ThresholdInterpolationFilling != "" {
		d, err := time.ParseDuration(ts.ThresholdInterpolationFilling)
		if err != nil {
			return reconcile.Config{}, fmt.Errorf("IWLS.API.TimeSeries.threshold_interpolation-filling: %w", err)
		}
		threshold = &d
	}

	buffer, err := parseDurationOrDefault(ts.BufferTime, 30*time.Minute)
	if err != nil {
		return reconcile.Config{}, fmt.Errorf("IWLS.API.TimeSeries.buffer_time: %w", err)
	}

	qc := make(map[string]struct{}, len(ts.WLOQCFlagFilter))
	for _, flag := range ts.WLOQCFlagFilter {
		qc[flag] = struct{}{}
	}

	return reconcile.Config{
		MaxTimeGap:                    maxGap,
		ThresholdInterpolationFilling: threshold,
		WLOQCFlagFilter:               qc,
		BufferTime:                    buffer,
	}, nil
}

func uncertaintyConfig(cfg *config.Config) uncertainty.Config {
	u := cfg.Uncertainty
	return uncertainty.Config{
		DepthCoefficientTVU: u.DepthCoefficientTVU,
		ConstantTVUWLO:      u.ConstantTVUWLO,
		ConstantTVUWLP:      u.ConstantTVUWLP,
		StationUncertainty:  u.StationUncertainty,
		ConeAngleSonarDeg:   u.ConeAngleSonar,
		ConstantTHU:         u.ConstantTHU,
		Decimals:            u.Decimals,
	}
}

func cleanerFilterConfig(cfg *config.Config) clean.FilterConfig {
	f := cfg.DATA.Transformation.Filter
	return clean.FilterConfig{
		MinLatitude:  f.MinLatitude,
		MaxLatitude:  f.MaxLatitude,
		MinLongitude: f.MinLongitude,
		MaxLongitude: f.MaxLongitude,
		MinDepth:     f.MinDepth,
		MaxDepth:     f.MaxDepth,
		MinSpeed:     f.MinSpeed,
		MaxSpeed:     f.MaxSpeed,
	}
}

func allFilters() []clean.EnabledFilter {
	return []clean.EnabledFilter{
		clean.FilterLatitude, clean.FilterLongitude, clean.FilterDepth,
		clean.FilterTime, clean.FilterSpeed,
	}
}

func toTideStations(wire []tideapi.Station) []tide.Station {
	out := make([]tide.Station, len(wire))
	for i, s := range wire {
		out[i] = tide.Station{
			ID:                  s.ID,
			Code:                s.Code,
			Name:                s.Name,
			Position:            tide.Point{Lon: s.Longitude, Lat: s.Latitude},
			AvailableTimeSeries: s.AvailableTimeSeries,
			IsTidal:             s.IsTidal,
		}
	}
	return out
}

func parseDurationOrDefault(s string, def time.Duration) (time.Duration, error) {
	if s == "" {
		return def, nil
	}
	return time.ParseDuration(s)
}

var csvHeader = []string{
	"time_utc", "latitude", "longitude", "depth_raw_m", "depth_processed_m",
	"source", "tide_zone_code", "time_series_code", "water_level_m",
	"uncertainty_m", "thu_m", "iho_order", "depth_band_convention",
}

// writeCSV renders the final processed soundings as a tabular stream,
// mirroring the out-of-scope Caris/export collaborator's canonical
// tabular input format (§1). Grounded on ngs-tides-api's stdlib
// encoding/csv usage; no CSV library exists anywhere in the pack.
func writeCSV(path string, rows []schema.ProcessedSounding) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	defer w.Flush()

	if err := w.Write(csvHeader); err != nil {
		return err
	}
	for _, r := range rows {
		record := []string{
			r.TimeUTC.UTC().Format(time.RFC3339),
			strconv.FormatFloat(r.Latitude, 'f', -1, 64),
			strconv.FormatFloat(r.Longitude, 'f', -1, 64),
			strconv.FormatFloat(r.DepthRawM, 'f', -1, 64),
			strconv.FormatFloat(r.DepthProcessedM, 'f', -1, 64),
			r.Source,
			r.TideZoneCode,
			r.WaterLevel.TimeSeriesCode,
			strconv.FormatFloat(r.WaterLevel.WaterLevelM, 'f', -1, 64),
			strconv.FormatFloat(r.UncertaintyM, 'f', -1, 64),
			strconv.FormatFloat(r.THUM, 'f', -1, 64),
			string(r.IHOOrder),
			r.WaterLevel.DepthBandConvention,
		}
		if err := w.Write(record); err != nil {
			return err
		}
	}
	return w.Error()
}
