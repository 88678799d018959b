/*
engine.go - Engine construction and dependencies

The Engine is invoked per-request by the HTTP layer; it owns no background
goroutines and no in-memory mutable state. Everything it needs is injected:
the transactional store, the reward catalog, a logger, and a clock. The
clock is a field (rather than time.Now calls inside the workflows) so the
weekday bonus is deterministic in tests.
*/
package engine

import (
	"time"

	"go.uber.org/zap"

	"github.com/looplink/stickers/rewards"
)

// Engine orchestrates calculation, ingestion, redemption, and reporting
// over a transactional store.
type Engine struct {
	Store   TxStore
	Catalog rewards.Catalog

	// Log receives structured events for ingestion and redemption.
	// Defaults to a no-op logger.
	Log *zap.Logger

	// Now supplies the current time for creation timestamps and the
	// weekday bonus. Defaults to time.Now.
	Now func() time.Time
}

// New creates an engine with a no-op logger and the system clock.
func New(store TxStore, catalog rewards.Catalog) *Engine {
	return &Engine{
		Store:   store,
		Catalog: catalog,
		Log:     zap.NewNop(),
		Now:     time.Now,
	}
}
