package metrics

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	_defaultPushJobName     = "metricsync"
	_defaultMetricPath      = "/metrics"
	_defaultHealthCheckPath = "/health"
	_defaultPushTimeoutMs   = 5000
	_groupingKey            = "instance"
)

// PrometheusReporterConfig configures a PrometheusReporter. Zero values are
// replaced by defaults when the reporter is created.
type PrometheusReporterConfig struct {
	URL                string            `mapstructure:"url"`                // Push gateway address; empty disables pushing
	PushJobName        string            `mapstructure:"pushJobName"`        // Push job name
	Instance           string            `mapstructure:"instance"`           // Push grouping "instance" label
	InitialDelayMs     int               `mapstructure:"initialDelayMs"`     // Delay before the first collection tick
	PeriodMs           int               `mapstructure:"periodMs"`           // Collection period
	PushInitialDelayMs int               `mapstructure:"pushInitialDelayMs"` // Delay before the first push
	PushPeriodMs       int               `mapstructure:"pushPeriodMs"`       // Push period
	PushTimeoutMs      int               `mapstructure:"pushTimeoutMs"`      // Upper bound of one push attempt
	HTTPListenAddr     string            `mapstructure:"httpListenAddr"`     // Scrape server address; empty disables it
	MetricPath         string            `mapstructure:"metricPath"`         // Scrape path
	EnableHealthCheck  bool              `mapstructure:"enableHealthCheck"`  // Serve HealthCheckPath on the scrape server
	HealthCheckPath    string            `mapstructure:"healthCheckPath"`    // Health check path
	ExtLabels          map[string]string `mapstructure:"extLabels"`          // Constant labels added to every metric
}

// DefaultPrometheusReporterConfig returns a pull-only configuration with the default cadence.
func DefaultPrometheusReporterConfig() *PrometheusReporterConfig {
	cfg := &PrometheusReporterConfig{}
	cfg.fillDefaults()
	return cfg
}

func (c *PrometheusReporterConfig) fillDefaults() {
	if c.PushJobName == "" {
		c.PushJobName = _defaultPushJobName
	}
	if c.Instance == "" {
		c.Instance = defaultInstance()
	}
	if c.InitialDelayMs == 0 {
		c.InitialDelayMs = int(DefaultInitialDelay / time.Millisecond)
	}
	if c.PeriodMs == 0 {
		c.PeriodMs = int(DefaultPeriod / time.Millisecond)
	}
	if c.PushInitialDelayMs == 0 {
		c.PushInitialDelayMs = c.InitialDelayMs
	}
	if c.PushPeriodMs == 0 {
		c.PushPeriodMs = c.PeriodMs
	}
	if c.PushTimeoutMs == 0 {
		c.PushTimeoutMs = _defaultPushTimeoutMs
	}
	if c.MetricPath == "" {
		c.MetricPath = _defaultMetricPath
	}
	if c.HealthCheckPath == "" {
		c.HealthCheckPath = _defaultHealthCheckPath
	}
	ext := make(map[string]string, len(c.ExtLabels))
	for k, v := range c.ExtLabels {
		ext[sanitizeName(k)] = strings.ReplaceAll(v, ".", "_")
	}
	c.ExtLabels = ext
}

// Validate reports settings that cannot be used.
func (c *PrometheusReporterConfig) Validate() error {
	if c.InitialDelayMs < 0 || c.PushInitialDelayMs < 0 {
		return fmt.Errorf("initial delay must be non-negative, got %d/%d", c.InitialDelayMs, c.PushInitialDelayMs)
	}
	if c.PeriodMs <= 0 || c.PushPeriodMs <= 0 {
		return fmt.Errorf("period must be positive, got %d/%d", c.PeriodMs, c.PushPeriodMs)
	}
	if c.PushTimeoutMs <= 0 {
		return fmt.Errorf("push timeout must be positive, got %d", c.PushTimeoutMs)
	}
	for name := range c.ExtLabels {
		if err := c.checkLabel(name); err != nil {
			return fmt.Errorf("ext label: %w", err)
		}
	}
	if !strings.HasPrefix(c.MetricPath, "/") || !strings.HasPrefix(c.HealthCheckPath, "/") {
		return fmt.Errorf("metric path %q and health check path %q must start with '/'", c.MetricPath, c.HealthCheckPath)
	}
	return nil
}

// groupingLabels are the label names the push gateway sets from the push URL.
// Metrics may not carry them while pushing is enabled.
var groupingLabels = []string{"job", _groupingKey}

// checkLabel rejects a grouping label name when pushing is enabled.
func (c *PrometheusReporterConfig) checkLabel(name string) error {
	if c.URL == "" {
		return nil
	}
	for _, g := range groupingLabels {
		if name == g {
			return fmt.Errorf("%w: %s", ErrReservedLabel, name)
		}
	}
	return nil
}

func ms(v int) time.Duration {
	return time.Duration(v) * time.Millisecond
}

// defaultInstance identifies this process in the push gateway grouping key.
func defaultInstance() string {
	if h, err := os.Hostname(); err == nil && h != "" {
		return h
	}
	return uuid.NewString()
}

// sanitizeName maps characters common in dotted metric names to '_'.
func sanitizeName(name string) string {
	return strings.NewReplacer(".", "_", "-", "_", " ", "_").Replace(name)
}
