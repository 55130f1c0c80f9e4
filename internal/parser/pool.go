package parser

import (
	"context"
	"sync"

	"github.com/alitto/pond"

	"github.com/chs-csb/csb-processing/internal/schema"
)

// FileResult is one file's outcome from ReadAll.
type FileResult struct {
	File  string
	Rows  []schema.RawSounding
	Stats Stats
	Err   error
}

// ReadAll reads files concurrently through a bounded worker pool, mirroring
// the teacher's convert_gsf_list submission pattern, sized per §5 to
// min(len(files), maxWorkers) rather than a fixed 2*NumCPU (this pipeline's
// bottleneck is disk/parse time, not decode-heavy CPU work). A maxWorkers
// of 0 defaults to 4.
func ReadAll(ctx context.Context, reg *Registry, files []string, headers map[string]string, maxWorkers int) []FileResult {
	if maxWorkers <= 0 {
		maxWorkers = 4
	}
	n := maxWorkers
	if len(files) < n {
		n = len(files)
	}
	if n < 1 {
		n = 1
	}

	pool := pond.New(n, 0, pond.MinWorkers(n), pond.Context(ctx))
	defer pool.StopAndWait()

	results := make([]FileResult, len(files))
	var mu sync.Mutex

	for i, file := range files {
		idx, f := i, file
		pool.Submit(func() {
			kind, err := reg.Detect(f, headers[f])
			if err != nil {
				mu.Lock()
				results[idx] = FileResult{File: f, Err: err}
				mu.Unlock()
				return
			}
			p, ok := reg.ParserFor(kind)
			if !ok {
				mu.Lock()
				results[idx] = FileResult{File: f, Err: &ParserIdentifierError{File: f}}
				mu.Unlock()
				return
			}
			rows, stats, err := p.Read(f)
			mu.Lock()
			results[idx] = FileResult{File: f, Rows: rows, Stats: stats, Err: err}
			mu.Unlock()
		})
	}

	return results
}
