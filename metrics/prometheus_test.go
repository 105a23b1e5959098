package metrics

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	dto "github.com/prometheus/client_model/go"
	"github.com/prometheus/common/expfmt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func counterSample(t *testing.T, name string, tags map[string]string, v float64) Sample {
	t.Helper()
	s, err := NewCounterSample(name, tags, v)
	require.NoError(t, err)
	return s
}

// family returns the gathered family called name, or nil.
func family(t *testing.T, x *PrometheusReporter, name string) *dto.MetricFamily {
	t.Helper()
	mfs, err := x.Registry().Gather()
	require.NoError(t, err)
	for _, mf := range mfs {
		if mf.GetName() == name {
			return mf
		}
	}
	return nil
}

func TestPrometheusCounterIsAdditive(t *testing.T) {
	x := NewPrometheusReporter("", nil)
	tags := map[string]string{"route": "/login"}
	require.NoError(t, x.RegisterSample(counterSample(t, "http.requests", tags, 3)))
	require.NoError(t, x.RegisterSample(counterSample(t, "http.requests", tags, 4)))

	cv := x.counters["http_requests"]
	require.NotNil(t, cv)
	assert.Equal(t, 7.0, testutil.ToFloat64(cv.vec.WithLabelValues("/login")))

	mf := family(t, x, "http_requests")
	require.NotNil(t, mf)
	assert.Equal(t, dto.MetricType_COUNTER, mf.GetType())
	assert.Equal(t, "Counter for http.requests", mf.GetHelp())
}

func TestPrometheusGaugeLastWriteWins(t *testing.T) {
	x := NewPrometheusReporter("", nil)
	require.NoError(t, x.RegisterSample(gaugeSample(t, "temperature", 10)))
	require.NoError(t, x.RegisterSample(gaugeSample(t, "temperature", -3)))

	mf := family(t, x, "temperature")
	require.NotNil(t, mf)
	assert.Equal(t, dto.MetricType_GAUGE, mf.GetType())
	require.Len(t, mf.GetMetric(), 1)
	assert.Equal(t, -3.0, mf.GetMetric()[0].GetGauge().GetValue())
}

func TestPrometheusLabelSets(t *testing.T) {
	x := NewPrometheusReporter("", nil)
	require.NoError(t, x.RegisterSample(counterSample(t, "jobs", map[string]string{"queue": "a"}, 1)))
	require.NoError(t, x.RegisterSample(counterSample(t, "jobs", map[string]string{"queue": "b"}, 2)))

	mf := family(t, x, "jobs")
	require.NotNil(t, mf)
	assert.Len(t, mf.GetMetric(), 2)

	err := x.RegisterSample(counterSample(t, "jobs", map[string]string{"worker": "1"}, 1))
	assert.ErrorIs(t, err, ErrLabelMismatch)

	err = x.RegisterSample(gaugeSample(t, "jobs", 1))
	assert.Error(t, err, "a gauge may not reuse a counter name")
}

func TestPrometheusUnknownKind(t *testing.T) {
	x := NewPrometheusReporter("", nil)
	err := x.RegisterSample(NewSample(Kind(3), "odd", nil, 1))
	assert.ErrorIs(t, err, ErrUnknownKind)
	assert.Nil(t, family(t, x, "odd"))
}

func TestPrometheusResponse(t *testing.T) {
	x := NewPrometheusReporter("", nil)
	require.NoError(t, x.Init())
	defer x.Stop()

	require.NoError(t, x.RegisterSample(gaugeSample(t, "q_depth", 42)))
	out := x.Response()
	assert.Contains(t, out, "# TYPE q_depth gauge")
	assert.Contains(t, out, "q_depth 42\n")
	assert.Contains(t, out, "metricsync_push_total 0")

	total, _ := x.PushStats()
	assert.Equal(t, uint64(0), total, "no push without a URL")
	assert.Nil(t, x.Addr())
}

func TestPrometheusHandler(t *testing.T) {
	x := NewPrometheusReporter("", nil)
	require.NoError(t, x.RegisterSample(counterSample(t, "served", nil, 5)))

	srv := httptest.NewServer(x.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "served 5")
}

func TestPrometheusExtLabels(t *testing.T) {
	x, err := NewPrometheusReporterWithConfig(&PrometheusReporterConfig{
		ExtLabels: map[string]string{"zone.id": "eu.1"},
	}, nil)
	require.NoError(t, err)
	require.NoError(t, x.RegisterSample(gaugeSample(t, "up", 1)))

	assert.Contains(t, x.Response(), `up{zone_id="eu_1"} 1`)
}

type pushRecorder struct {
	mu       sync.Mutex
	paths    []string
	method   string
	status   int
	families map[string]bool
}

func (p *pushRecorder) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	names := map[string]bool{}
	dec := expfmt.NewDecoder(r.Body, expfmt.ResponseFormat(r.Header))
	for {
		mf := &dto.MetricFamily{}
		if err := dec.Decode(mf); err != nil {
			break
		}
		names[mf.GetName()] = true
	}
	_, _ = io.Copy(io.Discard, r.Body)

	p.mu.Lock()
	p.paths = append(p.paths, r.URL.Path)
	p.method = r.Method
	for n := range names {
		if p.families == nil {
			p.families = map[string]bool{}
		}
		p.families[n] = true
	}
	status := p.status
	p.mu.Unlock()
	w.WriteHeader(status)
}

func (p *pushRecorder) pushed(name string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.families[name]
}

func (p *pushRecorder) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.paths)
}

func TestPrometheusPush(t *testing.T) {
	rec := &pushRecorder{status: http.StatusOK}
	gw := httptest.NewServer(rec)
	defer gw.Close()

	c := &fakeCollector{}
	c.set(gaugeSample(t, "q_depth", 42))

	x, err := NewPrometheusReporterWithConfig(&PrometheusReporterConfig{
		URL:                gw.URL,
		PushJobName:        "apollo",
		Instance:           "node-1",
		InitialDelayMs:     1,
		PeriodMs:           10,
		PushInitialDelayMs: 1,
		PushPeriodMs:       10,
		PushTimeoutMs:      1000,
	}, CollectorList{c})
	require.NoError(t, err)
	require.NoError(t, x.Init())

	assert.Eventually(t, func() bool {
		return rec.count() >= 3
	}, 3*time.Second, 5*time.Millisecond)
	x.Stop()

	rec.mu.Lock()
	assert.Equal(t, "/metrics/job/apollo/instance/node-1", rec.paths[0])
	assert.Equal(t, http.MethodPost, rec.method)
	rec.mu.Unlock()

	total, failures := x.PushStats()
	assert.GreaterOrEqual(t, total, uint64(3))
	assert.Equal(t, uint64(0), failures)
	assert.Contains(t, x.Response(), "q_depth 42")

	pushed := rec.count()
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, pushed, rec.count(), "no push may happen after Stop")
}

func TestPrometheusPushFailureAndHealth(t *testing.T) {
	rec := &pushRecorder{status: http.StatusInternalServerError}
	gw := httptest.NewServer(rec)
	defer gw.Close()

	x, err := NewPrometheusReporterWithConfig(&PrometheusReporterConfig{
		URL:                gw.URL,
		Instance:           "node-1",
		InitialDelayMs:     1,
		PeriodMs:           10,
		PushInitialDelayMs: 1,
		PushPeriodMs:       10,
		PushTimeoutMs:      1000,
		HTTPListenAddr:     "127.0.0.1:0",
		EnableHealthCheck:  true,
	}, nil)
	require.NoError(t, err)
	require.NoError(t, x.Init())
	defer x.Stop()

	assert.Eventually(t, func() bool {
		_, failures := x.PushStats()
		return failures >= 2
	}, 3*time.Second, 5*time.Millisecond)
	assert.Equal(t, StateRunning, x.State(), "push failures must not stop the reporter")

	require.NotNil(t, x.Addr())
	base := "http://" + x.Addr().String()

	resp, err := http.Get(base + "/health")
	require.NoError(t, err)
	var body map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	resp.Body.Close()
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	assert.Equal(t, "unhealthy", body["status"])
	assert.Equal(t, "metricsync", body["service"])

	resp, err = http.Get(base + "/metrics")
	require.NoError(t, err)
	scraped, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(scraped), "metricsync_push_failures_total"))

	resp, err = http.Post(base+"/health", "text/plain", nil)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
}

func pushConfig(url string) *PrometheusReporterConfig {
	return &PrometheusReporterConfig{
		URL:                url,
		Instance:           "node-1",
		InitialDelayMs:     1,
		PeriodMs:           10,
		PushInitialDelayMs: 1,
		PushPeriodMs:       10,
		PushTimeoutMs:      1000,
	}
}

func TestPrometheusPushRejectsGroupingLabels(t *testing.T) {
	rec := &pushRecorder{status: http.StatusOK}
	gw := httptest.NewServer(rec)
	defer gw.Close()

	c := &fakeCollector{}
	c.set(
		gaugeSample(t, "q_depth", 42),
		counterSample(t, "conns", map[string]string{"instance": "db1"}, 1),
		counterSample(t, "jobs", map[string]string{"job": "etl"}, 1),
	)

	x, err := NewPrometheusReporterWithConfig(pushConfig(gw.URL), CollectorList{c})
	require.NoError(t, err)
	require.NoError(t, x.Init())
	defer x.Stop()

	assert.Eventually(t, func() bool {
		return rec.pushed("q_depth") && rec.count() >= 3 && x.Stats().RegisterFailures == 2
	}, 3*time.Second, 5*time.Millisecond)

	_, failures := x.PushStats()
	assert.Equal(t, uint64(0), failures)
	stats := x.Stats()
	assert.Equal(t, uint64(1), stats.Samples)
	assert.Equal(t, uint64(2), stats.RegisterFailures)
	assert.False(t, rec.pushed("conns"))

	err = x.RegisterSample(gaugeSample(t, "other", 1))
	assert.NoError(t, err)
	err = x.RegisterSample(counterSample(t, "conns", map[string]string{"instance": "db1"}, 1))
	assert.ErrorIs(t, err, ErrReservedLabel)
}

func TestPrometheusPullModeAllowsGroupingLabels(t *testing.T) {
	x := NewPrometheusReporter("", nil)
	require.NoError(t, x.RegisterSample(counterSample(t, "conns", map[string]string{"instance": "db1"}, 1)))
	assert.Contains(t, x.Response(), `conns{instance="db1"} 1`)
}

func TestPrometheusPushSurvivesCollectorPanics(t *testing.T) {
	rec := &pushRecorder{status: http.StatusOK}
	gw := httptest.NewServer(rec)
	defer gw.Close()

	bad := &fakeCollector{panicMsg: "export failed"}
	bad.set(gaugeSample(t, "never", 1))
	good := &fakeCollector{}
	good.set(gaugeSample(t, "q_depth", 42))

	x, err := NewPrometheusReporterWithConfig(pushConfig(gw.URL), CollectorList{bad, good})
	require.NoError(t, err)
	require.NoError(t, x.Init())
	defer x.Stop()

	assert.Eventually(t, func() bool {
		return rec.count() >= 5 && x.Stats().CollectorFailures >= 3
	}, 3*time.Second, 5*time.Millisecond)

	assert.True(t, rec.pushed("q_depth"))
	_, failures := x.PushStats()
	assert.Equal(t, uint64(0), failures)
	assert.Equal(t, StateRunning, x.State())
}

func TestPrometheusSanitizedNameCollision(t *testing.T) {
	x := NewPrometheusReporter("", nil)
	require.NoError(t, x.RegisterSample(counterSample(t, "a.b", nil, 1)))
	require.NoError(t, x.RegisterSample(counterSample(t, "a_b", nil, 2)))
	require.NoError(t, x.RegisterSample(counterSample(t, "a_b", nil, 1)))

	assert.Equal(t, 4.0, testutil.ToFloat64(x.counters["a_b"].vec.WithLabelValues()))
	assert.Equal(t, "a.b", x.sources["a_b"])
	assert.True(t, x.collided["a_b"])
	assert.False(t, x.collided["a.b"])
}

func TestPrometheusConfig(t *testing.T) {
	cfg := DefaultPrometheusReporterConfig()
	assert.Equal(t, "metricsync", cfg.PushJobName)
	assert.Equal(t, 5000, cfg.PeriodMs)
	assert.Equal(t, 5000, cfg.PushPeriodMs)
	assert.Equal(t, 5000, cfg.PushTimeoutMs)
	assert.Equal(t, "/metrics", cfg.MetricPath)
	assert.NotEmpty(t, cfg.Instance)
	assert.NoError(t, cfg.Validate())

	_, err := NewPrometheusReporterWithConfig(&PrometheusReporterConfig{PeriodMs: -1}, nil)
	assert.Error(t, err)
	_, err = NewPrometheusReporterWithConfig(&PrometheusReporterConfig{MetricPath: "metrics"}, nil)
	assert.Error(t, err)

	_, err = NewPrometheusReporterWithConfig(&PrometheusReporterConfig{
		URL:       "http://gw:9091",
		ExtLabels: map[string]string{"job": "etl"},
	}, nil)
	assert.ErrorIs(t, err, ErrReservedLabel)

	_, err = NewPrometheusReporterWithConfig(&PrometheusReporterConfig{
		ExtLabels: map[string]string{"instance": "a"},
	}, nil)
	assert.NoError(t, err, "grouping labels are allowed without a push URL")
}
