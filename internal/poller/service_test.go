package poller

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pushrelay/internal/config"
	"pushrelay/internal/github"
)

type fakeCollector struct {
	events  map[string][]github.Event
	failFor map[string]bool
	cursors map[string]string
}

func (f *fakeCollector) Collect(_ context.Context, user string, _ int, cursor string) ([]github.Event, error) {
	if f.cursors == nil {
		f.cursors = map[string]string{}
	}
	f.cursors[user] = cursor
	if f.failFor[user] {
		return nil, errors.New("upstream unavailable")
	}
	return f.events[user], nil
}

type recordingDeliverer struct {
	got  []Candidate
	sent int
	err  error
}

func (r *recordingDeliverer) Deliver(_ context.Context, candidates []Candidate) (int, error) {
	r.got = candidates
	return r.sent, r.err
}

func newTestService(cfg config.PollerConfig, collector EventCollector, st *fakeStore, d Deliverer) *Service {
	return NewService(cfg, collector, st, d, nil, nil)
}

func TestRunAggregatesAcrossUsersInTimeOrder(t *testing.T) {
	now := time.Now()
	t1 := now.Add(-3 * time.Hour)
	t2 := now.Add(-2 * time.Hour)
	t3 := now.Add(-time.Hour)

	collector := &fakeCollector{events: map[string][]github.Event{
		"alice": {pushEvent("a2", "alice/repo", t3, "sha-t3"), pushEvent("a1", "alice/repo", t1, "sha-t1")},
		"bob":   {pushEvent("b1", "bob/repo", t2, "sha-t2")},
	}}
	st := newFakeStore()
	d := &recordingDeliverer{sent: 3}

	cfg := config.PollerConfig{Users: []string{"alice", "bob"}, DaysBack: 3, MaxEventsPerUser: 30}
	result := newTestService(cfg, collector, st, d).Run(context.Background())

	assert.Equal(t, 3, result.Sent)
	assert.Equal(t, 3, result.Candidates)
	assert.Zero(t, result.UsersFailed)

	require.Len(t, d.got, 3)
	assert.Equal(t, "sha-t1", d.got[0].SHA)
	assert.Equal(t, "sha-t2", d.got[1].SHA)
	assert.Equal(t, "sha-t3", d.got[2].SHA)
}

func TestRunAdvancesCursorToNewestEvent(t *testing.T) {
	now := time.Now()
	collector := &fakeCollector{events: map[string][]github.Event{
		"alice": {pushEvent("newest", "alice/repo", now, "aaa"), pushEvent("older", "alice/repo", now.Add(-time.Hour), "bbb")},
	}}
	st := newFakeStore()
	st.cursors["alice"] = "older"

	cfg := config.PollerConfig{Users: []string{"alice"}, DaysBack: 3, MaxEventsPerUser: 30}
	newTestService(cfg, collector, st, &recordingDeliverer{}).Run(context.Background())

	assert.Equal(t, "newest", st.cursors["alice"])
	assert.Equal(t, "older", collector.cursors["alice"], "stored cursor is handed to the collector")
}

func TestRunAdvancesCursorWithZeroCandidates(t *testing.T) {
	// A feed full of non-push noise still moves the cursor forward so the
	// same events are not re-scanned every run.
	now := time.Now()
	collector := &fakeCollector{events: map[string][]github.Event{
		"alice": {
			{ID: "77", Type: "WatchEvent", CreatedAt: now},
			{ID: "76", Type: "ForkEvent", CreatedAt: now.Add(-time.Minute)},
		},
	}}
	st := newFakeStore()
	d := &recordingDeliverer{}

	cfg := config.PollerConfig{Users: []string{"alice"}, DaysBack: 3, MaxEventsPerUser: 30}
	result := newTestService(cfg, collector, st, d).Run(context.Background())

	assert.Zero(t, result.Candidates)
	assert.Zero(t, result.Sent)
	assert.Equal(t, "77", st.cursors["alice"])
	assert.Empty(t, d.got)
}

func TestRunLeavesCursorOnEmptyFeed(t *testing.T) {
	collector := &fakeCollector{events: map[string][]github.Event{}}
	st := newFakeStore()
	st.cursors["alice"] = "42"

	cfg := config.PollerConfig{Users: []string{"alice"}, DaysBack: 3, MaxEventsPerUser: 30}
	newTestService(cfg, collector, st, &recordingDeliverer{}).Run(context.Background())

	assert.Equal(t, "42", st.cursors["alice"])
}

func TestRunIsolatesPerUserFailures(t *testing.T) {
	now := time.Now()
	collector := &fakeCollector{
		events: map[string][]github.Event{
			"bob": {pushEvent("b1", "bob/repo", now, "bbb")},
		},
		failFor: map[string]bool{"alice": true},
	}
	st := newFakeStore()
	st.cursors["alice"] = "41"
	d := &recordingDeliverer{sent: 1}

	cfg := config.PollerConfig{Users: []string{"alice", "bob"}, DaysBack: 3, MaxEventsPerUser: 30}
	result := newTestService(cfg, collector, st, d).Run(context.Background())

	assert.Equal(t, 1, result.UsersFailed)
	assert.Equal(t, 1, result.Sent)
	require.Len(t, d.got, 1)
	assert.Equal(t, "bbb", d.got[0].SHA)
	assert.Equal(t, "41", st.cursors["alice"], "failed user's cursor stays put")
	assert.Equal(t, "b1", st.cursors["bob"])
}

func TestRunSurvivesDeliveryAbort(t *testing.T) {
	now := time.Now()
	collector := &fakeCollector{events: map[string][]github.Event{
		"alice": {pushEvent("a1", "alice/repo", now, "aaa")},
	}}
	st := newFakeStore()
	d := &recordingDeliverer{sent: 0, err: errors.New("store unavailable")}

	cfg := config.PollerConfig{Users: []string{"alice"}, DaysBack: 3, MaxEventsPerUser: 30}
	result := newTestService(cfg, collector, st, d).Run(context.Background())

	assert.Zero(t, result.Sent)
	assert.Equal(t, 1, result.Candidates)
}

func TestRunAppliesCutoffWindow(t *testing.T) {
	now := time.Now()
	collector := &fakeCollector{events: map[string][]github.Event{
		"alice": {
			pushEvent("a2", "alice/repo", now.Add(-time.Hour), "recent"),
			pushEvent("a1", "alice/repo", now.AddDate(0, 0, -5), "stale"),
		},
	}}
	st := newFakeStore()
	d := &recordingDeliverer{sent: 1}

	cfg := config.PollerConfig{Users: []string{"alice"}, DaysBack: 3, MaxEventsPerUser: 30}
	result := newTestService(cfg, collector, st, d).Run(context.Background())

	assert.Equal(t, 1, result.Candidates)
	require.Len(t, d.got, 1)
	assert.Equal(t, "recent", d.got[0].SHA)
}
