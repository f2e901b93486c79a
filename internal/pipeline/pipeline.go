// Package pipeline post-processes extracted records before they enter
// the price history.
package pipeline

import (
	"log/slog"

	"pricehound/internal/types"
)

// Middleware processes a record and returns the (possibly modified)
// record. Return nil to drop it.
type Middleware interface {
	// Name returns the middleware's identifier.
	Name() string

	// Process transforms a record. Return nil to drop it.
	Process(rec *types.PriceRecord) (*types.PriceRecord, error)
}

// Pipeline chains middleware processors together.
type Pipeline struct {
	middlewares []Middleware
	logger      *slog.Logger
}

// New creates a new Pipeline.
func New(logger *slog.Logger) *Pipeline {
	return &Pipeline{
		logger: logger.With("component", "pipeline"),
	}
}

// Use adds a middleware to the pipeline chain.
func (p *Pipeline) Use(mw Middleware) {
	p.middlewares = append(p.middlewares, mw)
	p.logger.Debug("middleware added", "name", mw.Name(), "position", len(p.middlewares))
}

// Process runs the record through all middleware in order.
func (p *Pipeline) Process(rec *types.PriceRecord) (*types.PriceRecord, error) {
	current := rec

	for _, mw := range p.middlewares {
		result, err := mw.Process(current)
		if err != nil {
			return nil, err
		}
		if result == nil {
			p.logger.Debug("record dropped", "stage", mw.Name(), "item", rec.ItemName, "source", rec.Source)
			return nil, nil
		}
		current = result
	}

	return current, nil
}

// Reset clears per-run state on any middleware that carries it. Called
// at the start of each collection run so state like dedupe tracking
// never leaks across runs.
func (p *Pipeline) Reset() {
	for _, mw := range p.middlewares {
		if r, ok := mw.(interface{ Reset() }); ok {
			r.Reset()
		}
	}
}

// Len returns the number of middleware in the chain.
func (p *Pipeline) Len() int {
	return len(p.middlewares)
}
