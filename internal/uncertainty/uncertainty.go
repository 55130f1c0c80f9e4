// Package uncertainty computes per-sounding TVU/THU and classifies
// soundings against IHO survey orders (§4.8). The order constants are
// grounded on the source's tvu_order.py / thu_order.py tables, carried
// forward verbatim since the spec's distillation names the formulas but
// not the numeric table.
package uncertainty

import (
	"math"
	"strings"

	"github.com/chs-csb/csb-processing/internal/schema"
)

// orderConstants holds the per-order (a, b) used in tvu_max and
// (constant, coefficient) used in thu_max.
type orderConstants struct {
	tvuA, tvuB             float64
	thuConstant, thuCoeff  float64
}

// orderTable enumerates orders in decreasing strictness, matching §4.8's
// iteration order.
var orderTable = []struct {
	order schema.IHOOrder
	c     orderConstants
}{
	{schema.OrderExclusive, orderConstants{tvuA: 0.15, tvuB: 0.0075, thuConstant: 1.0, thuCoeff: 0.0}},
	{schema.OrderSpecial, orderConstants{tvuA: 0.25, tvuB: 0.0075, thuConstant: 2.0, thuCoeff: 0.0}},
	{schema.Order1a, orderConstants{tvuA: 0.5, tvuB: 0.013, thuConstant: 5.0, thuCoeff: 0.05}},
	{schema.Order1b, orderConstants{tvuA: 0.5, tvuB: 0.013, thuConstant: 5.0, thuCoeff: 0.05}},
	{schema.Order2, orderConstants{tvuA: 1.0, tvuB: 0.023, thuConstant: 20.0, thuCoeff: 0.1}},
}

// Config configures Compute.
type Config struct {
	DepthCoefficientTVU float64 // percent of depth, per §4.8 depth_component
	ConstantTVUWLO      float64
	ConstantTVUWLP      float64
	StationUncertainty  map[string]float64 // tide_zone_code -> per-station TVU constant
	ConeAngleSonarDeg   float64
	ConstantTHU         float64
	Decimals            int
}

// Compute fills in UncertaintyM, THUM, and IHOOrder on p in place, per the
// §4.8 formulas.
func Compute(p *schema.ProcessedSounding, cfg Config) {
	depthComponent := p.DepthRawM * (cfg.DepthCoefficientTVU / 100)

	var stationComponent float64
	code := strings.ToLower(p.WaterLevel.TimeSeriesCode)
	if strings.Contains(code, "wlo") && !strings.Contains(code, "wlp") {
		stationComponent = cfg.ConstantTVUWLO
	} else if v, ok := cfg.StationUncertainty[p.TideZoneCode]; ok {
		stationComponent = v
	} else {
		stationComponent = cfg.ConstantTVUWLP
	}

	tvu := round(depthComponent+stationComponent, cfg.Decimals)

	thuRaw := p.DepthRawM*math.Tan(degToRad(cfg.ConeAngleSonarDeg)/2) + cfg.ConstantTHU
	thu := round(thuRaw, cfg.Decimals)

	p.UncertaintyM = tvu
	p.THUM = thu
	p.IHOOrder = ClassifyOrder(tvu, thu, p.DepthRawM)
}

// ClassifyOrder assigns the strictest order whose tvu_max/thu_max bound
// both TVU and THU, else NotMet (§4.8).
func ClassifyOrder(tvu, thu, depth float64) schema.IHOOrder {
	for _, row := range orderTable {
		tvuMax := math.Sqrt(row.c.tvuA*row.c.tvuA + (row.c.tvuB*depth)*(row.c.tvuB*depth))
		thuMax := row.c.thuConstant + row.c.thuCoeff*depth
		if tvu <= tvuMax && thu <= thuMax {
			return row.order
		}
	}
	return schema.OrderNotMet
}

func degToRad(deg float64) float64 { return deg * math.Pi / 180 }

func round(v float64, decimals int) float64 {
	factor := math.Pow(10, float64(decimals))
	return math.Round(v*factor) / factor
}
