package connection

import (
	"context"
	"fmt"

	"github.com/synapsehq/synapse/internal/domain"
)

// CreateConnections writes edges via a single batch call when the gateway
// supports it; if that fails, it falls back to one call per edge so a
// single bad edge doesn't sink the whole batch.
func CreateConnections(ctx context.Context, gw domain.StorageGateway, userID string, edges []domain.MemoryConnection) error {
	if len(edges) == 0 {
		return nil
	}
	if err := gw.CreateConnections(ctx, userID, edges); err == nil {
		return nil
	}

	var firstErr error
	for _, e := range edges {
		if err := gw.CreateConnections(ctx, userID, []domain.MemoryConnection{e}); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("create connection %s: %w", e.ID, err)
		}
	}
	return firstErr
}
