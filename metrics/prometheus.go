package metrics

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"slices"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/linchenxuan/metricsync/log"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/prometheus/client_golang/prometheus/push"
	"github.com/prometheus/common/expfmt"
)

const _serviceName = "metricsync"

// counterVec remembers the label names a counter was first registered with.
type counterVec struct {
	vec        *prometheus.CounterVec
	labelNames []string
}

type gaugeVec struct {
	vec        *prometheus.GaugeVec
	labelNames []string
}

// PrometheusReporter keeps samples in a private prometheus.Registry. With a
// URL it pushes the registry to a push gateway on its own schedule; without
// one it only serves pull requests (Response, Handler, optional HTTP server).
type PrometheusReporter struct {
	*BaseReporter

	cfg      *PrometheusReporterConfig
	registry *prometheus.Registry

	mu       sync.Mutex
	counters map[string]*counterVec
	gauges   map[string]*gaugeVec
	// sources maps a sanitized metric name to the first sample name that produced it.
	sources  map[string]string
	collided map[string]bool

	pusher       *push.Pusher
	pushTotal    atomic.Uint64
	pushFailures atomic.Uint64
	healthStatus atomic.Int32 // 0 healthy, 1 last push failed

	promSvr  *http.Server
	listener net.Listener

	ctx      context.Context
	cancel   context.CancelFunc
	wg       sync.WaitGroup
	stopOnce sync.Once
}

// NewPrometheusReporter creates a reporter pushing to url. An empty url means
// local/pull mode only.
func NewPrometheusReporter(url string, provider CollectorProvider) *PrometheusReporter {
	cfg := &PrometheusReporterConfig{URL: url}
	r, _ := NewPrometheusReporterWithConfig(cfg, provider)
	return r
}

// NewPrometheusReporterWithConfig creates a reporter from cfg. cfg is copied
// and completed with defaults.
func NewPrometheusReporterWithConfig(cfg *PrometheusReporterConfig, provider CollectorProvider) (*PrometheusReporter, error) {
	c := PrometheusReporterConfig{}
	if cfg != nil {
		c = *cfg
	}
	c.fillDefaults()
	if err := c.Validate(); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(context.Background())
	x := &PrometheusReporter{
		cfg:      &c,
		registry: prometheus.NewRegistry(),
		counters: map[string]*counterVec{},
		gauges:   map[string]*gaugeVec{},
		sources:  map[string]string{},
		collided: map[string]bool{},
		ctx:      ctx,
		cancel:   cancel,
	}
	x.BaseReporter = NewBaseReporter(x, provider, ms(c.InitialDelayMs), ms(c.PeriodMs))
	return x, nil
}

// FactoryName names the plugin factory that builds this reporter.
func (x *PrometheusReporter) FactoryName() string {
	return "prometheus"
}

// Config returns the effective configuration.
func (x *PrometheusReporter) Config() PrometheusReporterConfig {
	return *x.cfg
}

// Registry exposes the backend state for gathering.
func (x *PrometheusReporter) Registry() *prometheus.Registry {
	return x.registry
}

// DoInit registers the self metrics, then arms the push job and the scrape
// server when they are configured.
func (x *PrometheusReporter) DoInit() error {
	if err := x.registerSelfMetrics(); err != nil {
		return err
	}
	if x.cfg.HTTPListenAddr != "" {
		if err := x.startHTTPSvr(); err != nil {
			return err
		}
	}
	if x.cfg.URL != "" {
		x.startPusher()
	}
	return nil
}

// RegisterCounterSample gets or creates the counter named after s and adds its value.
func (x *PrometheusReporter) RegisterCounterSample(s Sample) error {
	if s.Value() < 0 {
		return fmt.Errorf("%w: %s=%v", ErrNegativeDelta, s.Name(), s.Value())
	}
	name, labelNames, labelValues, err := x.series(s)
	if err != nil {
		return err
	}

	x.mu.Lock()
	defer x.mu.Unlock()
	x.noteSource(name, s.Name())

	cv, ok := x.counters[name]
	if !ok {
		vec := prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        name,
			Help:        "Counter for " + s.Name(),
			ConstLabels: x.cfg.ExtLabels,
		}, labelNames)
		if err := x.registry.Register(vec); err != nil {
			return fmt.Errorf("register counter %s: %w", name, err)
		}
		cv = &counterVec{vec: vec, labelNames: labelNames}
		x.counters[name] = cv
	} else if !slices.Equal(cv.labelNames, labelNames) {
		return fmt.Errorf("%w: counter %s has %v, sample has %v", ErrLabelMismatch, name, cv.labelNames, labelNames)
	}

	c, err := cv.vec.GetMetricWithLabelValues(labelValues...)
	if err != nil {
		return fmt.Errorf("counter %s: %w", name, err)
	}
	c.Add(s.Value())
	return nil
}

// RegisterGaugeSample gets or creates the gauge named after s and sets it to its value.
func (x *PrometheusReporter) RegisterGaugeSample(s Sample) error {
	name, labelNames, labelValues, err := x.series(s)
	if err != nil {
		return err
	}

	x.mu.Lock()
	defer x.mu.Unlock()
	x.noteSource(name, s.Name())

	gv, ok := x.gauges[name]
	if !ok {
		vec := prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name:        name,
			Help:        "Gauge for " + s.Name(),
			ConstLabels: x.cfg.ExtLabels,
		}, labelNames)
		if err := x.registry.Register(vec); err != nil {
			return fmt.Errorf("register gauge %s: %w", name, err)
		}
		gv = &gaugeVec{vec: vec, labelNames: labelNames}
		x.gauges[name] = gv
	} else if !slices.Equal(gv.labelNames, labelNames) {
		return fmt.Errorf("%w: gauge %s has %v, sample has %v", ErrLabelMismatch, name, gv.labelNames, labelNames)
	}

	g, err := gv.vec.GetMetricWithLabelValues(labelValues...)
	if err != nil {
		return fmt.Errorf("gauge %s: %w", name, err)
	}
	g.Set(s.Value())
	return nil
}

// Response renders the registry in the Prometheus text exposition format.
// Any gather or encode failure is logged and yields "".
func (x *PrometheusReporter) Response() string {
	mfs, err := x.registry.Gather()
	if err != nil {
		log.Error().Err(err).Msg("gather prometheus metrics failed")
		return ""
	}
	var sb strings.Builder
	for _, mf := range mfs {
		if _, err := expfmt.MetricFamilyToText(&sb, mf); err != nil {
			log.Error().Err(err).Msg("write metrics to prometheus format failed")
			return ""
		}
	}
	return sb.String()
}

// Handler serves the registry to scrapers.
func (x *PrometheusReporter) Handler() http.Handler {
	return promhttp.HandlerFor(x.registry, promhttp.HandlerOpts{
		ErrorHandling: promhttp.ContinueOnError,
	})
}

// Addr returns the scrape server address, or nil when it is disabled.
func (x *PrometheusReporter) Addr() net.Addr {
	if x.listener == nil {
		return nil
	}
	return x.listener.Addr()
}

// PushStats returns the number of push attempts and failures.
func (x *PrometheusReporter) PushStats() (total, failures uint64) {
	return x.pushTotal.Load(), x.pushFailures.Load()
}

// Stop halts collection, pushing and the scrape server. It is safe to call
// more than once.
func (x *PrometheusReporter) Stop() {
	x.stopOnce.Do(func() {
		x.BaseReporter.Stop()
		x.cancel()
		x.wg.Wait()
		if x.promSvr != nil {
			ctx, cancel := context.WithTimeout(context.Background(), time.Second)
			if err := x.promSvr.Shutdown(ctx); err != nil {
				log.Error().Err(err).Msg("stop prometheus http server")
			}
			cancel()
		}
		log.Info().Msg("prometheus reporter stopped")
	})
}

func (x *PrometheusReporter) registerSelfMetrics() error {
	counterFuncs := []struct {
		name string
		help string
		fn   func() float64
	}{
		{NameSchedulerTicksTotal, "Collection ticks run.", func() float64 { return float64(x.Stats().Ticks) }},
		{NameSchedulerSamplesTotal, "Samples registered.", func() float64 { return float64(x.Stats().Samples) }},
		{NameSchedulerRegisterFailuresTotal, "Samples whose registration failed.", func() float64 { return float64(x.Stats().RegisterFailures) }},
		{NameSchedulerCollectorFailuresTotal, "Collector exports that failed.", func() float64 { return float64(x.Stats().CollectorFailures) }},
		{NameSchedulerUnknownKindsTotal, "Samples dropped for an unknown kind.", func() float64 { return float64(x.Stats().UnknownKinds) }},
		{NameSchedulerTickPanicsTotal, "Panics recovered in the tick body.", func() float64 { return float64(x.Stats().TickPanics) }},
		{NamePushTotal, "Push attempts.", func() float64 { return float64(x.pushTotal.Load()) }},
		{NamePushFailuresTotal, "Failed push attempts.", func() float64 { return float64(x.pushFailures.Load()) }},
	}
	for _, cf := range counterFuncs {
		c := prometheus.NewCounterFunc(prometheus.CounterOpts{
			Namespace:   GroupMetricsync,
			Name:        cf.name,
			Help:        cf.help,
			ConstLabels: x.cfg.ExtLabels,
		}, cf.fn)
		if err := x.registry.Register(c); err != nil {
			return fmt.Errorf("register self metric %s: %w", cf.name, err)
		}
	}
	return nil
}

// startPusher arms the push job. It uses add semantics (POST): metrics with
// the same grouping key are replaced, other groups on the gateway are kept.
func (x *PrometheusReporter) startPusher() {
	x.pusher = push.New(x.cfg.URL, x.cfg.PushJobName).
		Gatherer(x.registry).
		Grouping(_groupingKey, x.cfg.Instance)

	x.wg.Add(1)
	go func() {
		defer x.wg.Done()
		log.Info().Str("url", x.cfg.URL).Str("job", x.cfg.PushJobName).
			Dur("period", ms(x.cfg.PushPeriodMs)).Msg("prometheus pusher started")

		timer := time.NewTimer(ms(x.cfg.PushInitialDelayMs))
		defer timer.Stop()
		select {
		case <-x.ctx.Done():
			return
		case <-timer.C:
		}

		t := time.NewTicker(ms(x.cfg.PushPeriodMs))
		defer t.Stop()
		x.pushOnce()
		for {
			select {
			case <-x.ctx.Done():
				log.Info().Msg("prometheus pusher end")
				return
			case <-t.C:
				x.pushOnce()
			}
		}
	}()
}

func (x *PrometheusReporter) pushOnce() {
	defer func() {
		if r := recover(); r != nil {
			x.pushFailures.Add(1)
			x.healthStatus.Store(1)
			log.Error().Str("panic", fmt.Sprint(r)).Msg("push metrics to prometheus panicked")
		}
	}()

	x.pushTotal.Add(1)
	ctx, cancel := context.WithTimeout(x.ctx, ms(x.cfg.PushTimeoutMs))
	defer cancel()
	if err := x.pusher.AddContext(ctx); err != nil {
		if errors.Is(err, context.Canceled) && x.ctx.Err() != nil {
			return
		}
		x.pushFailures.Add(1)
		x.healthStatus.Store(1)
		log.Error().Err(err).Str("url", x.cfg.URL).Msg("push metrics to prometheus failed")
		return
	}
	x.healthStatus.Store(0)
}

// startHTTPSvr listens on HTTPListenAddr and serves the registry at MetricPath.
func (x *PrometheusReporter) startHTTPSvr() error {
	l, err := net.Listen("tcp", x.cfg.HTTPListenAddr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", x.cfg.HTTPListenAddr, err)
	}
	x.listener = l

	mux := http.NewServeMux()
	mux.Handle(x.cfg.MetricPath, x.Handler())
	if x.cfg.EnableHealthCheck {
		mux.HandleFunc(x.cfg.HealthCheckPath, x.healthCheckHandler)
		log.Info().Str("path", x.cfg.HealthCheckPath).Msg("health check endpoint enabled")
	}

	x.promSvr = &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := x.promSvr.Serve(l); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("prometheus http server exited")
		}
	}()
	log.Info().Str("addr", l.Addr().String()).Str("path", x.cfg.MetricPath).Msg("prometheus http start listen on")
	return nil
}

// healthCheckHandler reports unhealthy while the most recent push failed.
func (x *PrometheusReporter) healthCheckHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	total, failures := x.PushStats()
	response := map[string]any{
		"service":      _serviceName,
		"timestamp":    time.Now().Format(time.RFC3339),
		"state":        x.State().String(),
		"pushTotal":    total,
		"pushFailures": failures,
	}
	status := http.StatusOK
	if x.healthStatus.Load() == 0 {
		response["status"] = "healthy"
	} else {
		response["status"] = "unhealthy"
		status = http.StatusServiceUnavailable
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(response)
}

// series resolves the metric name and labels of s, rejecting grouping labels
// that would make every later push fail.
func (x *PrometheusReporter) series(s Sample) (name string, labelNames, labelValues []string, err error) {
	name, labelNames, labelValues = promLabels(s)
	for _, n := range labelNames {
		if err := x.cfg.checkLabel(n); err != nil {
			return "", nil, nil, fmt.Errorf("sample %s: %w", s.Name(), err)
		}
	}
	return name, labelNames, labelValues, nil
}

// noteSource warns once per sample name that sanitizes onto a metric first
// produced by another sample name. Both then share one series. Callers hold x.mu.
func (x *PrometheusReporter) noteSource(name, sampleName string) {
	src, ok := x.sources[name]
	if !ok {
		x.sources[name] = sampleName
		return
	}
	if src == sampleName || x.collided[sampleName] {
		return
	}
	x.collided[sampleName] = true
	log.Warn().Str("metric", name).Str("sample", sampleName).Str("first", src).
		Msg("sample names collide after sanitization")
}

// promLabels sanitizes the sample name and its label names.
func promLabels(s Sample) (name string, labelNames, labelValues []string) {
	labelNames, labelValues = LabelPairs(s)
	for i, n := range labelNames {
		labelNames[i] = sanitizeName(n)
	}
	return sanitizeName(s.Name()), labelNames, labelValues
}
