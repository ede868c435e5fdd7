package apify

import (
	"context"
	"fmt"
	"time"

	"github.com/rotisserie/eris"
)

const (
	defaultPollInterval     = 5 * time.Second
	defaultPollTimeout      = 10 * time.Minute
	defaultStatusRetryLimit = 3
)

// PollOption configures polling behavior.
type PollOption func(*pollConfig)

type pollConfig struct {
	interval    time.Duration
	timeout     time.Duration
	statusRetry int
	observer    func(RunStatus)
}

func defaultPollConfig() pollConfig {
	return pollConfig{
		interval:    defaultPollInterval,
		timeout:     defaultPollTimeout,
		statusRetry: defaultStatusRetryLimit,
	}
}

// WithPollInterval overrides the fixed interval between status checks.
func WithPollInterval(d time.Duration) PollOption {
	return func(c *pollConfig) {
		c.interval = d
	}
}

// WithPollTimeout overrides the default timeout (applied only if the parent
// context has no deadline).
func WithPollTimeout(d time.Duration) PollOption {
	return func(c *pollConfig) {
		c.timeout = d
	}
}

// WithStatusRetries sets how many consecutive status-fetch failures are
// tolerated before polling escalates them to a fatal error.
func WithStatusRetries(n int) PollOption {
	return func(c *pollConfig) {
		c.statusRetry = n
	}
}

// WithPollObserver registers a callback invoked with each observed status.
func WithPollObserver(fn func(RunStatus)) PollOption {
	return func(c *pollConfig) {
		c.observer = fn
	}
}

// PollRun polls GetRun at a fixed interval until the run reaches a terminal
// state or the context expires. SUCCEEDED returns the run; FAILED, ABORTED
// and TIMED-OUT return an error. Transient status-fetch failures are
// tolerated up to the configured retry limit.
func PollRun(ctx context.Context, client Client, runID string, opts ...PollOption) (*Run, error) {
	cfg := defaultPollConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.timeout)
		defer cancel()
	}

	failures := 0
	for {
		run, err := client.GetRun(ctx, runID)
		if err != nil {
			if ctx.Err() != nil {
				return nil, eris.Wrap(ctx.Err(), fmt.Sprintf("apify: poll run %s", runID))
			}
			failures++
			if failures > cfg.statusRetry {
				return nil, eris.Wrap(err, fmt.Sprintf("apify: poll run %s", runID))
			}
		} else {
			failures = 0
			if cfg.observer != nil {
				cfg.observer(run.Status)
			}

			switch run.Status {
			case RunStatusSucceeded:
				return run, nil
			case RunStatusFailed, RunStatusAborted, RunStatusTimedOut:
				return nil, eris.Errorf("apify: run %s ended with status %s", runID, run.Status)
			}
		}

		select {
		case <-ctx.Done():
			return nil, eris.Wrap(ctx.Err(), fmt.Sprintf("apify: poll run %s timed out", runID))
		case <-time.After(cfg.interval):
		}
	}
}
