package uncertainty

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/chs-csb/csb-processing/internal/schema"
)

func baseConfig() Config {
	return Config{
		DepthCoefficientTVU: 1.0,
		ConstantTVUWLO:      0.2,
		ConstantTVUWLP:      0.3,
		ConeAngleSonarDeg:   3.0,
		ConstantTHU:         2.0,
		Decimals:            3,
	}
}

func TestComputeUsesWLOConstantWhenSeriesIsObservedOnly(t *testing.T) {
	p := &schema.ProcessedSounding{
		EnrichedSounding: schema.EnrichedSounding{RawSounding: schema.RawSounding{DepthRawM: 20}},
		WaterLevel:       schema.WaterLevelInfo{TimeSeriesCode: "wlo"},
	}
	cfg := baseConfig()
	Compute(p, cfg)

	expectedTVU := round(20*0.01+0.2, 3)
	assert.Equal(t, expectedTVU, p.UncertaintyM)
}

func TestComputeFallsBackToStationLookupWhenNotWLO(t *testing.T) {
	p := &schema.ProcessedSounding{
		EnrichedSounding: schema.EnrichedSounding{
			RawSounding:  schema.RawSounding{DepthRawM: 20},
			TideZoneCode: "STA",
		},
		WaterLevel: schema.WaterLevelInfo{TimeSeriesCode: "wlp"},
	}
	cfg := baseConfig()
	cfg.StationUncertainty = map[string]float64{"STA": 0.42}
	Compute(p, cfg)

	expectedTVU := round(20*0.01+0.42, 3)
	assert.Equal(t, expectedTVU, p.UncertaintyM)
}

func TestComputeDefaultsToWLPConstantWhenStationLookupMisses(t *testing.T) {
	p := &schema.ProcessedSounding{
		EnrichedSounding: schema.EnrichedSounding{RawSounding: schema.RawSounding{DepthRawM: 20}, TideZoneCode: "UNKNOWN"},
		WaterLevel:       schema.WaterLevelInfo{TimeSeriesCode: "wlp"},
	}
	cfg := baseConfig()
	Compute(p, cfg)

	expectedTVU := round(20*0.01+0.3, 3)
	assert.Equal(t, expectedTVU, p.UncertaintyM)
}

func TestClassifyOrderPicksStrictestSatisfied(t *testing.T) {
	order := ClassifyOrder(0.1, 0.5, 5)
	assert.Equal(t, schema.OrderExclusive, order)
}

func TestClassifyOrderReturnsNotMetWhenNoOrderSatisfied(t *testing.T) {
	order := ClassifyOrder(1000, 1000, 5)
	assert.Equal(t, schema.OrderNotMet, order)
}

func TestSummarizeAccumulatesCumulativeMembership(t *testing.T) {
	soundings := []schema.ProcessedSounding{
		{IHOOrder: schema.Order1a, EnrichedSounding: schema.EnrichedSounding{RawSounding: schema.RawSounding{DepthRawM: 10}}, UncertaintyM: 0.3, THUM: 2.1},
		{IHOOrder: schema.OrderNotMet, EnrichedSounding: schema.EnrichedSounding{RawSounding: schema.RawSounding{DepthRawM: 50}}, UncertaintyM: 5.0, THUM: 10.0},
	}
	summary := Summarize(soundings)

	byOrder := make(map[schema.IHOOrder]OrderSummary)
	for _, s := range summary {
		byOrder[s.Order] = s
	}

	assert.Equal(t, 1, byOrder[schema.Order1a].Count)
	assert.Equal(t, 1, byOrder[schema.Order1b].Count, "1a row should also count toward 1b")
	assert.Equal(t, 1, byOrder[schema.Order2].Count, "1a row should also count toward 2")
	assert.Equal(t, 1, byOrder[schema.OrderNotMet].Count)
	assert.Equal(t, 0, byOrder[schema.OrderExclusive].Count)
}
