// Package metricsync wires the pipeline together: logger, collector registry,
// plugin manager and the reporters it builds from configuration.
package metricsync

import (
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/linchenxuan/metricsync/log"
	"github.com/linchenxuan/metricsync/metrics"
	"github.com/linchenxuan/metricsync/metrics/prometheus"
	"github.com/linchenxuan/metricsync/plugin"
)

// Config is the application configuration.
type Config struct {
	Log *log.LogCfg `mapstructure:"log"`
	// Plugin maps plugin type to factory name to instance config, e.g.
	// {"reporter": {"prometheus": {"url": "http://gw:9091"}}}.
	Plugin map[string]any `mapstructure:"plugin"`
	// RuntimeCollector enables the Go runtime collector.
	RuntimeCollector bool `mapstructure:"runtimeCollector"`
	// CollectorTags are attached to the runtime collector's samples.
	CollectorTags map[string]string `mapstructure:"collectorTags"`
}

// Agent holds the components of a running pipeline.
type Agent struct {
	Logger        *log.Logger
	Collectors    *metrics.CollectorRegistry
	PluginManager *plugin.Manager
	started       atomic.Bool
}

// NewAgent initializes logging and creates an empty collector registry and a
// plugin manager with the built-in reporter factories registered.
func NewAgent(cfg *Config) (*Agent, error) {
	if cfg == nil {
		cfg = &Config{}
	}
	if cfg.Log != nil {
		if err := log.Initialize(cfg.Log); err != nil {
			return nil, fmt.Errorf("init log: %w", err)
		}
	}

	registry := metrics.NewCollectorRegistry()
	if cfg.RuntimeCollector {
		_ = registry.Register(metrics.NewRuntimeCollector(cfg.CollectorTags))
	}

	pm := plugin.NewManager()
	pm.RegisterFactory(prometheus.NewFactory(registry))

	a := &Agent{
		Logger:        log.Default(),
		Collectors:    registry,
		PluginManager: pm,
	}
	log.Info().Int("collectors", registry.Len()).Msg("metricsync agent initialized")
	return a, nil
}

// RegisterCollector adds c to the registry. It must be called before Start.
func (a *Agent) RegisterCollector(c metrics.Collector) error {
	return a.Collectors.Register(c)
}

// Start seals the collector registry and builds the configured reporters.
// Reporters are initialized in Setup, so a backend failure is returned here.
func (a *Agent) Start(pluginConf map[string]any) error {
	if !a.started.CompareAndSwap(false, true) {
		return errors.New("metricsync agent already started")
	}
	a.Collectors.Seal()
	if err := a.PluginManager.SetupPlugins(pluginConf); err != nil {
		a.PluginManager.DestroyPlugins()
		a.started.Store(false)
		return err
	}

	reporters := a.Reporters()
	if len(reporters) == 0 {
		log.Warn().Msg("no reporter configured, collected samples are not exported")
	}
	log.Info().Int("reporters", len(reporters)).Msg("metricsync agent started")
	return nil
}

// Reporters returns the reporters built by Start.
func (a *Agent) Reporters() []metrics.Reporter {
	var out []metrics.Reporter
	for _, p := range a.PluginManager.Plugins(plugin.Reporter) {
		if r, ok := p.(metrics.Reporter); ok {
			out = append(out, r)
		}
	}
	return out
}

// Stop tears down every reporter and flushes the logger.
func (a *Agent) Stop() {
	log.Info().Msg("metricsync agent shutting down")
	a.PluginManager.DestroyPlugins()
	a.Logger.Refresh()
}
