package transcode

import (
	"context"
	"runtime"
	"sync"

	"github.com/Space-Wizard-Studios/ser-livre-psicologia/internal/core"
	"github.com/Space-Wizard-Studios/ser-livre-psicologia/internal/emit"
	"github.com/Space-Wizard-Studios/ser-livre-psicologia/internal/registry"
)

// Pool executes transcoding units with bounded parallelism. The only shared
// mutable state is the write-once staging area; any unit failure cancels the
// remaining work and aborts the build.
type Pool struct {
	workers int
}

type Option func(*Pool)

func WithWorkers(n int) Option {
	return func(p *Pool) {
		if n > 0 {
			p.workers = n
		}
	}
}

func NewPool(opts ...Option) *Pool {
	p := &Pool{workers: runtime.NumCPU()}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Run claims units from a queue until it drains or a unit fails. Produced
// variants land in the staging area keyed by their deduplication key and are
// recorded on the set for the composer.
func (p *Pool) Run(ctx context.Context, reg *registry.Registry, set *Set, units []Unit, staging *emit.Staging) error {
	if len(units) == 0 {
		return nil
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	queue := make(chan Unit)
	var wg sync.WaitGroup

	var mu sync.Mutex
	var firstErr error
	fail := func(err error) {
		mu.Lock()
		if firstErr == nil {
			firstErr = err
			cancel()
		}
		mu.Unlock()
	}

	workers := p.workers
	if workers > len(units) {
		workers = len(units)
	}

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for unit := range queue {
				variant, payload, err := Encode(reg, unit)
				if err != nil {
					fail(err)
					return
				}

				err = staging.Put(unit.Key(), core.OutputArtifact{
					LogicalPath: variant.OutputPath,
					ContentHash: variant.ContentHash,
					Bytes:       payload,
				})
				if err != nil {
					fail(err)
					return
				}

				mu.Lock()
				set.variants[unit.Key()] = variant
				mu.Unlock()
			}
		}()
	}

feed:
	for _, unit := range units {
		select {
		case queue <- unit:
		case <-ctx.Done():
			break feed
		}
	}
	close(queue)
	wg.Wait()

	if firstErr != nil {
		return firstErr
	}
	return ctx.Err()
}
