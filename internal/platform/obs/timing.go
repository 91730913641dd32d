package obs

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
)

type ctxKey string

const RunIDKey ctxKey = "run_id"

// Logger is the shared structured logger. Composition roots adjust its
// level and formatter at startup.
var Logger = logrus.New()

// WithRun returns an entry carrying the dispatch run id from the context.
func WithRun(ctx context.Context) *logrus.Entry {
	runID, _ := ctx.Value(RunIDKey).(string)
	return Logger.WithField("run_id", runID)
}

// Time logs the duration and outcome of an operation. Intended usage:
//
//	defer obs.Time(ctx, "oracle.BuildMatrix")(&err)
func Time(ctx context.Context, name string) func(errp *error) {
	start := time.Now()
	entry := WithRun(ctx).WithField("op", name)

	return func(errp *error) {
		dur := time.Since(start).Milliseconds()

		if errp != nil && *errp != nil {
			entry.WithField("dur_ms", dur).WithError(*errp).Warn("op failed")
			return
		}
		entry.WithField("dur_ms", dur).Debug("op done")
	}
}
