package ingest

import (
	"context"
	"fmt"
	"time"
)

// Watch re-syncs every source on a fixed interval until the context is
// cancelled. A failed cycle is reported and the next one runs anyway.
func (s *Service) Watch(ctx context.Context, seasons []int) error {
	for {
		sum, err := s.SyncAll(ctx, seasons)
		if err != nil {
			fmt.Printf("sync cycle error: %v\n", err)
		} else {
			fmt.Printf("sync cycle done pages=%d seen=%d inserted=%d skipped=%d wa_ok=%d wa_failed=%d wa_missing=%d\n",
				sum.Pages, sum.RowsSeen, sum.RowsInserted, sum.RowsSkipped, sum.WASuccess, sum.WAFailed, sum.WAMissing)
		}

		select {
		case <-ctx.Done():
			return nil
		case <-time.After(time.Duration(s.cfg.WatchIntervalMinutes) * time.Minute):
		}
	}
}
