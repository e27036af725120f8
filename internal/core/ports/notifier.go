package ports

import (
	"context"
	"time"

	"github.com/tsimlabs/egs/internal/core/domain"
)

// SyncNotifier pushes activation state changes to connected UI
// clients.
type SyncNotifier interface {
	BroadcastSyncState(state domain.SyncState)
}

// DataLogger is the weather station client consumed by the poller.
type DataLogger interface {
	// LoggerTime returns the station's own clock reading.
	LoggerTime(ctx context.Context) (time.Time, error)

	// Latest returns the newest record of the given table as raw
	// column values keyed by field name.
	Latest(ctx context.Context, table string) (map[string]any, error)

	// Range returns the records of the last n minutes.
	Range(ctx context.Context, table string, minutes int) ([]map[string]any, error)

	Close() error
}
