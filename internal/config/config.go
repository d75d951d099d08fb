// internal/config/config.go
package config

type Config struct {
	Node      NodeConfig      `yaml:"node"`
	Transport TransportConfig `yaml:"transport"`
	Diag      DiagConfig      `yaml:"diag"`
	Log       LogConfig       `yaml:"log"`
}

// ---- NODE ----

type NodeConfig struct {
	ID               uint8  `yaml:"id"` // 0 = coordinator
	Channel          uint8  `yaml:"channel"`
	DataRate         string `yaml:"data_rate"` // 250kbps | 1mbps | 2mbps
	Power            string `yaml:"power"`     // min | low | high | max
	RenewalTimeoutMs uint32 `yaml:"renewal_timeout_ms"`
	LookupTimeoutMs  uint32 `yaml:"lookup_timeout_ms"`
}

// ---- TRANSPORT ----

type TransportConfig struct {
	Mode     string `yaml:"mode"` // uart | sim
	Port     string `yaml:"port"`
	BaudRate int    `yaml:"baud_rate"`
}

// ---- DIAG ----

type DiagConfig struct {
	Listen string `yaml:"listen"` // empty = disabled
}

// ---- LOG ----

type LogConfig struct {
	Level string `yaml:"level"`
}
