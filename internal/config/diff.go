package config

import (
	"strings"

	logx "typednotify/pkg/logx"
)

// SummarizeChange returns the changed top-level sections and safe log
// fields describing them. Tokens are never included.
func SummarizeChange(oldCfg, newCfg *Config) ([]string, []logx.Field) {
	if oldCfg == nil {
		oldCfg = &Config{}
	}
	if newCfg == nil {
		newCfg = &Config{}
	}

	changed := make([]string, 0, 3)
	attrs := make([]logx.Field, 0, 8)

	if oldCfg.Logging != newCfg.Logging {
		changed = append(changed, "logging")
		attrs = append(attrs,
			logx.String("logging.level", newCfg.Logging.Level),
			logx.Bool("logging.console", newCfg.Logging.Console),
			logx.Bool("logging.file_enabled", newCfg.Logging.File.Enabled),
		)
	}
	if oldCfg.Demo != newCfg.Demo {
		changed = append(changed, "demo")
		attrs = append(attrs,
			logx.String("demo.packing", newCfg.Demo.Packing),
			logx.String("demo.people_delay", newCfg.Demo.PeopleDelay),
			logx.String("demo.heartbeat", newCfg.Demo.Heartbeat),
		)
	}
	if oldCfg.Transport != newCfg.Transport {
		changed = append(changed, "transport")
		attrs = append(attrs,
			logx.Bool("transport.console", newCfg.Transport.Console),
			logx.Bool("transport.telegram", newCfg.Transport.Telegram.Enabled),
			logx.Bool("transport.telegram.token_set", strings.TrimSpace(newCfg.Transport.Telegram.Token) != ""),
		)
	}
	return changed, attrs
}
