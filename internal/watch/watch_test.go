package watch

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/stensonb/cloud-agent/internal/opennebula"
	"github.com/stensonb/cloud-agent/internal/testutil"
)

func writeContext(t *testing.T, path string, lines ...string) {
	t.Helper()
	testutil.WriteFileAtomic(t, path, testutil.Doc(append([]string{opennebula.HeaderMarker}, lines...)...))
}

func next(t *testing.T, events <-chan Event) Event {
	t.Helper()
	select {
	case ev := <-events:
		return ev
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for watch event")
		return Event{}
	}
}

func startWatcher(t *testing.T, path string) (<-chan Event, func()) {
	t.Helper()
	events := make(chan Event, 8)
	w := New(opennebula.NewProvider(opennebula.WithPath(path)),
		func(_ context.Context, ev Event) { events <- ev },
		WithDebounce(20*time.Millisecond))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	stop := func() {
		cancel()
		select {
		case err := <-done:
			assert.NoError(t, err)
		case <-time.After(5 * time.Second):
			t.Fatal("watcher did not stop")
		}
	}
	return events, stop
}

func TestWatcher_ReloadsOnChange(t *testing.T) {
	defer goleak.VerifyNone(t)

	path := filepath.Join(t.TempDir(), "context.sh")
	writeContext(t, path, "HOSTNAME='web1'")

	events, stop := startWatcher(t, path)
	defer stop()

	ev := next(t, events)
	require.NoError(t, ev.Err)
	require.True(t, ev.Found)
	assert.Equal(t, "web1", ev.Config.Hostname)
	assert.Empty(t, ev.Diff)

	writeContext(t, path, "HOSTNAME='web2'")

	ev = next(t, events)
	require.NoError(t, ev.Err)
	assert.Equal(t, "web2", ev.Config.Hostname)
	assert.Contains(t, ev.Diff, "-hostname: web1")
	assert.Contains(t, ev.Diff, "+hostname: web2")
}

func TestWatcher_AbsentThenPresent(t *testing.T) {
	defer goleak.VerifyNone(t)

	path := filepath.Join(t.TempDir(), "context.sh")

	events, stop := startWatcher(t, path)
	defer stop()

	ev := next(t, events)
	assert.False(t, ev.Found)
	assert.Nil(t, ev.Config)

	writeContext(t, path, "ETH0_IP='10.0.0.5'")

	ev = next(t, events)
	require.True(t, ev.Found)
	assert.Contains(t, ev.Diff, "+provenance: opennebula")
}

func TestWatcher_ReportsErrors(t *testing.T) {
	defer goleak.VerifyNone(t)

	path := filepath.Join(t.TempDir(), "context.sh")
	writeContext(t, path, "HOSTNAME='web1'")

	events, stop := startWatcher(t, path)
	defer stop()

	next(t, events)

	writeContext(t, path, "ETH_IP='10.0.0.5'")

	ev := next(t, events)
	assert.ErrorIs(t, ev.Err, opennebula.ErrInvalidUnit)
}

func TestWatcher_MissingDirectory(t *testing.T) {
	defer goleak.VerifyNone(t)

	path := filepath.Join(t.TempDir(), "nope", "context.sh")
	w := New(opennebula.NewProvider(opennebula.WithPath(path)), func(context.Context, Event) {})

	err := w.Run(context.Background())
	assert.Error(t, err)
}
