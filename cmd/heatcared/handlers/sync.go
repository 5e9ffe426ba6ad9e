package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	apierr "github.com/heatcare/heatcare/pkg/api/types/errors"
	apisync "github.com/heatcare/heatcare/pkg/api/types/sync"
	"github.com/heatcare/heatcare/pkg/mandantsync"
	"github.com/labstack/echo/v4"
)

// Synchronizer runs synchronization unless another one is in progress.
//
// *mandantsync.Synchronizer satisfies this.
type Synchronizer interface {
	TryRun(ctx context.Context) (mandantsync.Summary, error)
}

// SyncMandantsHandler runs synchronization, and responds its summary.
//
// It responds 409 Conflict while another synchronization is in progress.
//
// # Args
//
// - base: synchronization stops when base is done. Requests ending do not stop it.
//
// - sync: Synchronizer to be run.
//
// - timeout: time limit of a synchronization. 0 means no limit.
func SyncMandantsHandler(base context.Context, sync Synchronizer, timeout time.Duration) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx, cancel := context.WithCancel(context.WithoutCancel(c.Request().Context()))
		defer cancel()
		stop := context.AfterFunc(base, cancel)
		defer stop()
		if 0 < timeout {
			var cancelTimeout context.CancelFunc
			ctx, cancelTimeout = context.WithTimeout(ctx, timeout)
			defer cancelTimeout()
		}

		begin := time.Now()
		summary, err := sync.TryRun(ctx)
		if err != nil {
			if errors.Is(err, mandantsync.ErrBusy) {
				return apierr.Conflict(
					"synchronization is in progress",
					apierr.WithAdvice("retry later."),
					apierr.WithError(err),
				)
			}
			return apierr.InternalServerError(err)
		}

		return c.JSON(http.StatusOK, apisync.Result{
			Summary: summary,
			Elapsed: time.Since(begin).Seconds(),
		})
	}
}
