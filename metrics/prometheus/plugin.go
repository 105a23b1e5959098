// Package prometheus registers the Prometheus reporter with the plugin manager.
package prometheus

import (
	"fmt"

	"github.com/linchenxuan/metricsync/log"
	"github.com/linchenxuan/metricsync/metrics"
	"github.com/linchenxuan/metricsync/plugin"
)

// Factory builds PrometheusReporter instances that poll the collectors of one provider.
type Factory struct {
	provider metrics.CollectorProvider
}

// NewFactory creates a factory whose reporters poll provider.
func NewFactory(provider metrics.CollectorProvider) *Factory {
	return &Factory{provider: provider}
}

// Type returns the plugin type.
func (f *Factory) Type() plugin.Type {
	return plugin.Reporter
}

// Name returns the name of the plugin implementation.
func (f *Factory) Name() string {
	return "prometheus"
}

// ConfigType returns the empty config the manager decodes into.
func (f *Factory) ConfigType() any {
	return &metrics.PrometheusReporterConfig{}
}

// Setup creates a reporter and runs its Init, so a backend failure fails setup.
func (f *Factory) Setup(cfgAny any) (plugin.Plugin, error) {
	cfg, ok := cfgAny.(*metrics.PrometheusReporterConfig)
	if !ok {
		return nil, fmt.Errorf("prometheus setup: unexpected config type %T", cfgAny)
	}

	p, err := metrics.NewPrometheusReporterWithConfig(cfg, f.provider)
	if err != nil {
		return nil, err
	}
	if err := p.Init(); err != nil {
		p.Stop()
		return nil, err
	}
	return p, nil
}

// Destroy stops a reporter created by Setup.
func (f *Factory) Destroy(p plugin.Plugin) {
	prom, ok := p.(*metrics.PrometheusReporter)
	if !ok {
		log.Error().Str("plugin", fmt.Sprintf("%T", p)).Msg("prometheus destroy: unexpected plugin")
		return
	}
	prom.Stop()
}
