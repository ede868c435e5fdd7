package apify

import (
	"context"
	"testing"
	"time"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scriptedClient returns canned run states in sequence; the last entry
// repeats once the script is exhausted.
type scriptedClient struct {
	states []Run
	errs   []error
	calls  int
}

func (c *scriptedClient) StartRun(ctx context.Context, input RunInput) (*Run, error) {
	return nil, eris.New("not implemented")
}

func (c *scriptedClient) GetRun(ctx context.Context, runID string) (*Run, error) {
	i := c.calls
	if i >= len(c.states) {
		i = len(c.states) - 1
	}
	c.calls++
	if i < len(c.errs) && c.errs[i] != nil {
		return nil, c.errs[i]
	}
	run := c.states[i]
	return &run, nil
}

func (c *scriptedClient) ListItems(ctx context.Context, datasetID string) ([]PlaceItem, error) {
	return nil, eris.New("not implemented")
}

func TestPollRunSucceeds(t *testing.T) {
	client := &scriptedClient{states: []Run{
		{ID: "run-1", Status: RunStatusRunning},
		{ID: "run-1", Status: RunStatusRunning},
		{ID: "run-1", Status: RunStatusSucceeded, DefaultDatasetID: "ds-1"},
	}}

	var observed []RunStatus
	run, err := PollRun(context.Background(), client, "run-1",
		WithPollInterval(time.Millisecond),
		WithPollObserver(func(s RunStatus) { observed = append(observed, s) }),
	)
	require.NoError(t, err)
	assert.Equal(t, "ds-1", run.DefaultDatasetID)
	assert.Equal(t, []RunStatus{RunStatusRunning, RunStatusRunning, RunStatusSucceeded}, observed)
}

func TestPollRunFailedStatus(t *testing.T) {
	client := &scriptedClient{states: []Run{
		{ID: "run-1", Status: RunStatusFailed},
	}}

	_, err := PollRun(context.Background(), client, "run-1", WithPollInterval(time.Millisecond))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "FAILED")
}

func TestPollRunAbortedStatus(t *testing.T) {
	client := &scriptedClient{states: []Run{
		{ID: "run-1", Status: RunStatusAborted},
	}}

	_, err := PollRun(context.Background(), client, "run-1", WithPollInterval(time.Millisecond))
	require.Error(t, err)
}

func TestPollRunToleratesTransientStatusFailures(t *testing.T) {
	client := &scriptedClient{
		states: []Run{
			{ID: "run-1", Status: RunStatusRunning},
			{ID: "run-1", Status: RunStatusRunning},
			{ID: "run-1", Status: RunStatusSucceeded},
		},
		errs: []error{eris.New("flaky"), eris.New("flaky"), nil},
	}

	run, err := PollRun(context.Background(), client, "run-1",
		WithPollInterval(time.Millisecond),
		WithStatusRetries(2),
	)
	require.NoError(t, err)
	assert.Equal(t, RunStatusSucceeded, run.Status)
}

func TestPollRunExhaustsStatusRetries(t *testing.T) {
	boom := eris.New("down")
	client := &scriptedClient{
		states: []Run{{ID: "run-1", Status: RunStatusRunning}},
		errs:   []error{boom, boom, boom, boom},
	}

	_, err := PollRun(context.Background(), client, "run-1",
		WithPollInterval(time.Millisecond),
		WithStatusRetries(2),
	)
	require.Error(t, err)
}

func TestPollRunContextCancelled(t *testing.T) {
	client := &scriptedClient{states: []Run{
		{ID: "run-1", Status: RunStatusRunning},
	}}

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	_, err := PollRun(ctx, client, "run-1", WithPollInterval(50*time.Millisecond))
	require.Error(t, err)
	assert.ErrorIs(t, eris.Cause(err), context.Canceled)
}
