package normalize

import (
	"context"

	"github.com/npillmayer/gramnorm/canon"
	"github.com/npillmayer/gramnorm/grammar"
	"golang.org/x/sync/errgroup"
)

// Result is the outcome of normalizing one grammar of a batch. Exactly one
// of Canonical and Err is non-nil.
type Result struct {
	Grammar   *grammar.Grammar
	Canonical *canon.Grammar
	Err       error
}

// NormalizeAll normalizes a batch of grammars concurrently, on a pool of
// workers (see option Workers). Results are returned in the order of the
// input grammars. The failure of one grammar does not affect the others.
//
// If ctx is cancelled, grammars not yet started report the context's error.
func NormalizeAll(ctx context.Context, grammars []*grammar.Grammar, opts ...Option) []Result {
	cfg := configure(opts)
	results := make([]Result, len(grammars))
	group, ctx := errgroup.WithContext(ctx)
	group.SetLimit(cfg.workers)
	for i, g := range grammars {
		i, g := i, g
		results[i].Grammar = g
		group.Go(func() error {
			if err := ctx.Err(); err != nil {
				results[i].Err = err
				return nil
			}
			results[i].Canonical, results[i].Err = normalize(g, cfg)
			return nil // failures are per grammar
		})
	}
	group.Wait()
	tracer().Infof("normalized batch of %d grammars with %d workers", len(grammars), cfg.workers)
	return results
}
