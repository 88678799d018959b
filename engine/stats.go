// stats.go - Read-only reporting over transactions and the ledger.
package engine

import "context"

// Stats returns totals and the per-store breakdown, consistent with the
// underlying store at read time. TotalStickersAwarded counts EARN entries
// only, so it equals the sum of all positive ledger deltas.
func (e *Engine) Stats(ctx context.Context) (Stats, error) {
	return e.Store.Stats(ctx)
}
