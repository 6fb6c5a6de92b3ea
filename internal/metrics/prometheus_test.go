package metrics

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stensonb/cloud-agent/internal/clock"
	"github.com/stensonb/cloud-agent/internal/opennebula"
	"github.com/stensonb/cloud-agent/internal/sysconfig"
)

var _ opennebula.Observer = (*Recorder)(nil)

func TestRecorder_ObserveParse(t *testing.T) {
	r := New()
	r.SetClock(clock.NewMockClock(time.Unix(1700000000, 0)))

	r.ObserveParse(opennebula.ResultOK, 3*time.Millisecond)
	r.ObserveParse(opennebula.ResultOK, time.Millisecond)
	r.ObserveParse(opennebula.ResultAbsent, 0)

	assert.Equal(t, 2.0, testutil.ToFloat64(r.ParseTotal.WithLabelValues(opennebula.ResultOK)))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.ParseTotal.WithLabelValues(opennebula.ResultAbsent)))
	assert.Equal(t, 1700000000.0, testutil.ToFloat64(r.LastParse))
	assert.Equal(t, 1, testutil.CollectAndCount(r.ParseDuration))
}

func TestRecorder_ObserveAddress(t *testing.T) {
	r := New()
	r.ObserveAddress(sysconfig.KindIP)
	r.ObserveAddress(sysconfig.KindIP)
	r.ObserveAddress(sysconfig.KindDNS)

	assert.Equal(t, 2.0, testutil.ToFloat64(r.Addresses.WithLabelValues("ip")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.Addresses.WithLabelValues("dns")))
}

func TestRecorder_FirstBoot(t *testing.T) {
	r := New()
	r.SetFirstBoot(true)
	assert.Equal(t, 1.0, testutil.ToFloat64(r.FirstBoot))
	r.SetFirstBoot(false)
	assert.Equal(t, 0.0, testutil.ToFloat64(r.FirstBoot))
}

func TestRecorder_Isolated(t *testing.T) {
	a, b := New(), New()
	a.ObserveAddress(sysconfig.KindMTU)
	assert.Equal(t, 0.0, testutil.ToFloat64(b.Addresses.WithLabelValues("mtu")))
}

func TestRecorder_WriteTextfile(t *testing.T) {
	r := New()
	r.ObserveParse(opennebula.ResultUnsupported, time.Millisecond)
	r.ObserveAddress(sysconfig.KindGateway)

	path := filepath.Join(t.TempDir(), "cloud_agent.prom")
	require.NoError(t, r.WriteTextfile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	out := string(data)
	assert.Contains(t, out, `cloud_agent_context_parse_total{result="unsupported"} 1`)
	assert.Contains(t, out, `cloud_agent_context_addresses_total{kind="gateway"} 1`)
	assert.Contains(t, out, "# TYPE cloud_agent_context_parse_duration_seconds histogram")
}

func TestRecorder_WriteTextfileBadDir(t *testing.T) {
	r := New()
	err := r.WriteTextfile(filepath.Join(t.TempDir(), "missing", "x.prom"))
	assert.Error(t, err)
}
