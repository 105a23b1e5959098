package main

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/linchenxuan/metricsync"
	"github.com/linchenxuan/metricsync/log"
	"github.com/linchenxuan/metricsync/metrics"
	"github.com/spf13/viper"
)

const (
	defaultLogLevel = "info"
	envPrefix       = "METRICSYNC"
)

// loadConfig reads the config file (if any) and the METRICSYNC_* environment.
// Two environment shortcuts configure the default Prometheus reporter without
// a file: METRICSYNC_PUSH_URL and METRICSYNC_LISTEN_ADDR.
func loadConfig(configPath string) (*metricsync.Config, error) {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	v.SetDefault("log.level", defaultLogLevel)
	v.SetDefault("log.consoleAppender", true)
	v.SetDefault("log.enabledCallerInfo", true)
	v.SetDefault("log.callerSkip", 1)
	v.SetDefault("runtimeCollector", true)

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if errors.As(err, &notFound) || os.IsNotExist(err) {
				return nil, fmt.Errorf("config file %s not found", configPath)
			}
			return nil, err
		}
	}

	cfg := &metricsync.Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, err
	}
	if cfg.Log == nil {
		cfg.Log = &log.LogCfg{LogLevel: defaultLogLevel, ConsoleAppender: true, CallerSkip: 1}
	}
	if err := cfg.Log.Validate(); err != nil {
		return nil, fmt.Errorf("invalid log config: %w", err)
	}

	if len(cfg.Plugin) == 0 {
		pushURL := v.GetString("push_url")
		listenAddr := v.GetString("listen_addr")
		if pushURL != "" || listenAddr != "" {
			cfg.Plugin = map[string]any{
				"reporter": map[string]any{
					"prometheus": map[string]any{
						"url":               pushURL,
						"httpListenAddr":    listenAddr,
						"enableHealthCheck": listenAddr != "",
					},
				},
			}
		}
	}
	return cfg, nil
}

// metricsyncDefaultSet is the instrument set that package-level helpers write into.
func metricsyncDefaultSet() metrics.Collector {
	return metrics.DefaultSet()
}
