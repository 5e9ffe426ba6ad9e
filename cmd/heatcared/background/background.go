// Package background runs synchronization repeatedly along a recurring policy.
package background

import (
	"context"
	"errors"
	"time"

	"github.com/heatcare/heatcare/pkg/loop"
	"github.com/heatcare/heatcare/pkg/loop/recurring"
	"github.com/heatcare/heatcare/pkg/mandantsync"
)

// Synchronizer runs synchronization unless another one is in progress.
type Synchronizer interface {
	TryRun(ctx context.Context) (mandantsync.Summary, error)
}

// Run synchronizes until the policy breaks or ctx is done.
//
// A run skipped because of another run in progress is not an error for the policy.
//
// # Args
//
// - timeout: time limit of each run. 0 means no limit.
//
// # Returns
//
// - int: the number of runs, including skipped ones.
//
// - error: the error which the policy has broken with, or ctx.Err().
func Run(
	ctx context.Context,
	sync Synchronizer,
	policy recurring.Policy,
	timeout time.Duration,
	logger mandantsync.Logger,
) (int, error) {
	options := []loop.Option{}
	if 0 < timeout {
		options = append(options, loop.WithTimeout(timeout))
	}

	return loop.Start(ctx, 0, func(ctx context.Context, nth int) (int, loop.Next) {
		_, err := sync.TryRun(ctx)
		switch {
		case errors.Is(err, mandantsync.ErrBusy):
			logger.Infof("background synchronization #%d is skipped: %s", nth, err)
			err = nil
		case err != nil:
			logger.Errorf("background synchronization #%d failed: %s", nth, err)
		}
		return nth + 1, policy.Next(err)
	}, options...)
}
