// internal/config/normalize.go
package config

// Normalize applies post-validation defaults.
// It is allowed to mutate configuration.
// It MUST be called only after Validate().
func Normalize(cfg *Config) {
	if cfg == nil {
		return
	}

	if cfg.Node.Channel == 0 {
		cfg.Node.Channel = 97
	}
	if cfg.Node.DataRate == "" {
		cfg.Node.DataRate = "1mbps"
	}
	if cfg.Node.Power == "" {
		cfg.Node.Power = "max"
	}
	if cfg.Node.RenewalTimeoutMs == 0 {
		cfg.Node.RenewalTimeoutMs = 60000
	}
	if cfg.Node.LookupTimeoutMs == 0 {
		cfg.Node.LookupTimeoutMs = 3000
	}

	if cfg.Transport.Mode == "uart" && cfg.Transport.BaudRate == 0 {
		cfg.Transport.BaudRate = 115200
	}

	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
}
