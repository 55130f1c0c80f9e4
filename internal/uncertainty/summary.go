package uncertainty

import (
	"github.com/samber/lo"

	"github.com/chs-csb/csb-processing/internal/schema"
)

// OrderSummary is one row of the dataset-level S-44 qualification summary
// (§4.8: "tabulates count/percentage/min/max/mean of depth/TVU/THU per
// order, where membership is cumulative"). Listed as a supplemented
// feature: the distillation names the tabulation's columns but not a
// concrete aggregation entry point.
type OrderSummary struct {
	Order      schema.IHOOrder
	Count      int
	Percentage float64
	DepthMin, DepthMax, DepthMean float64
	TVUMin, TVUMax, TVUMean       float64
	THUMin, THUMax, THUMean       float64
}

// cumulativeOrders lists, for each order, every order it "also counts
// toward" per §4.8 (a row satisfying 1a also counts toward 1b and 2).
var cumulativeOrders = map[schema.IHOOrder][]schema.IHOOrder{
	schema.OrderExclusive: {schema.OrderExclusive, schema.OrderSpecial, schema.Order1a, schema.Order1b, schema.Order2},
	schema.OrderSpecial:   {schema.OrderSpecial, schema.Order1a, schema.Order1b, schema.Order2},
	schema.Order1a:        {schema.Order1a, schema.Order1b, schema.Order2},
	schema.Order1b:        {schema.Order1b, schema.Order2},
	schema.Order2:         {schema.Order2},
	schema.OrderNotMet:    {schema.OrderNotMet},
}

// Summarize tabulates the dataset-level per-order summary in §4.8.
func Summarize(soundings []schema.ProcessedSounding) []OrderSummary {
	orders := []schema.IHOOrder{
		schema.OrderExclusive, schema.OrderSpecial, schema.Order1a,
		schema.Order1b, schema.Order2, schema.OrderNotMet,
	}

	acc := make(map[schema.IHOOrder]*accumulator, len(orders))
	for _, o := range orders {
		acc[o] = &accumulator{}
	}

	for _, s := range soundings {
		for _, o := range cumulativeOrders[s.IHOOrder] {
			acc[o].add(s.DepthRawM, s.UncertaintyM, s.THUM)
		}
	}

	total := len(soundings)
	summaries := make([]OrderSummary, 0, len(orders))
	for _, o := range orders {
		a := acc[o]
		row := OrderSummary{Order: o, Count: a.count}
		if total > 0 {
			row.Percentage = 100 * float64(a.count) / float64(total)
		}
		if a.count > 0 {
			row.DepthMin, row.DepthMax, row.DepthMean = a.depthMin, a.depthMax, a.depthSum/float64(a.count)
			row.TVUMin, row.TVUMax, row.TVUMean = a.tvuMin, a.tvuMax, a.tvuSum/float64(a.count)
			row.THUMin, row.THUMax, row.THUMean = a.thuMin, a.thuMax, a.thuSum/float64(a.count)
		}
		summaries = append(summaries, row)
	}
	return summaries
}

type accumulator struct {
	count                         int
	depthMin, depthMax, depthSum float64
	tvuMin, tvuMax, tvuSum       float64
	thuMin, thuMax, thuSum       float64
}

func (a *accumulator) add(depth, tvu, thu float64) {
	if a.count == 0 {
		a.depthMin, a.depthMax = depth, depth
		a.tvuMin, a.tvuMax = tvu, tvu
		a.thuMin, a.thuMax = thu, thu
	} else {
		a.depthMin, a.depthMax = lo.Min([]float64{a.depthMin, depth}), lo.Max([]float64{a.depthMax, depth})
		a.tvuMin, a.tvuMax = lo.Min([]float64{a.tvuMin, tvu}), lo.Max([]float64{a.tvuMax, tvu})
		a.thuMin, a.thuMax = lo.Min([]float64{a.thuMin, thu}), lo.Max([]float64{a.thuMax, thu})
	}
	a.count++
	a.depthSum += depth
	a.tvuSum += tvu
	a.thuSum += thu
}
