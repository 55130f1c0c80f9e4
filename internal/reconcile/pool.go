package reconcile

import (
	"context"
	"sync"

	"github.com/alitto/pond"

	"github.com/chs-csb/csb-processing/internal/tide"
)

// DefaultPoolSize is the per-station reconciliation pool size (§4.6, §5).
const DefaultPoolSize = 10

// ReconcileAll runs Reconcile concurrently across work units through a
// bounded pool (default 10, §4.6: "one station's failure never aborts
// others"). Results and errors are keyed by tide zone id.
func ReconcileAll(ctx context.Context, client SeriesFetcher, units []tide.WorkUnit, cfg Config, poolSize int) (map[string]ReconciledWaterLevel, map[string]error) {
	if poolSize <= 0 {
		poolSize = DefaultPoolSize
	}
	n := poolSize
	if len(units) < n {
		n = len(units)
	}
	if n < 1 {
		n = 1
	}

	pool := pond.New(n, 0, pond.MinWorkers(n), pond.Context(ctx))

	results := make(map[string]ReconciledWaterLevel, len(units))
	errs := make(map[string]error)
	var mu sync.Mutex

	for _, u := range units {
		unit := u
		pool.Submit(func() {
			rwl, err := Reconcile(ctx, client, unit.TideZoneID, unit.TMin, unit.TMax, unit.TimeSeriesPriority, cfg)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				errs[unit.TideZoneID] = err
				return
			}
			results[unit.TideZoneID] = rwl
		})
	}
	pool.StopAndWait()

	return results, errs
}
