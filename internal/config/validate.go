// internal/config/validate.go
package config

import (
	"fmt"
)

var dataRates = map[string]bool{
	"":        true, // default applied by Normalize
	"250kbps": true,
	"1mbps":   true,
	"2mbps":   true,
}

var powerLevels = map[string]bool{
	"":     true,
	"min":  true,
	"low":  true,
	"high": true,
	"max":  true,
}

var logLevels = map[string]bool{
	"":      true,
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

// Validate checks configuration correctness.
// It performs declarative validation only.
// It MUST NOT mutate configuration.
func Validate(cfg *Config) error {
	// ------------------------------------------------------------
	// NODE
	// ------------------------------------------------------------

	if cfg.Node.Channel > 127 {
		return fmt.Errorf("node: channel %d out of range (0..127)", cfg.Node.Channel)
	}
	if !dataRates[cfg.Node.DataRate] {
		return fmt.Errorf("node: unknown data_rate %q", cfg.Node.DataRate)
	}
	if !powerLevels[cfg.Node.Power] {
		return fmt.Errorf("node: unknown power %q", cfg.Node.Power)
	}

	// ------------------------------------------------------------
	// TRANSPORT
	// ------------------------------------------------------------

	switch cfg.Transport.Mode {
	case "uart":
		if cfg.Transport.Port == "" {
			return fmt.Errorf("transport: uart mode requires port")
		}
		if cfg.Transport.BaudRate < 0 {
			return fmt.Errorf("transport: negative baud_rate %d", cfg.Transport.BaudRate)
		}
	case "sim":
		// No transport fields required.
	case "":
		return fmt.Errorf("transport: mode is required (uart or sim)")
	default:
		return fmt.Errorf("transport: unknown mode %q", cfg.Transport.Mode)
	}

	// ------------------------------------------------------------
	// DIAG
	// ------------------------------------------------------------

	// Diagnostics serve the coordinator's binding table only.
	if cfg.Diag.Listen != "" && cfg.Node.ID != 0 {
		return fmt.Errorf("diag: listen is set but node %d is not the coordinator", cfg.Node.ID)
	}

	// ------------------------------------------------------------
	// LOG
	// ------------------------------------------------------------

	if !logLevels[cfg.Log.Level] {
		return fmt.Errorf("log: unknown level %q", cfg.Log.Level)
	}

	return nil
}
