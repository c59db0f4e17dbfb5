// Package config handles tool configuration loading and management.
package config

// Config holds all tool settings.
type Config struct {
	Logging LoggingConfig `yaml:"logging"`
	Roof    RoofConfig    `yaml:"roof"`
	Export  ExportConfig  `yaml:"export"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	LogFile string `yaml:"log_file"`
}

// RoofConfig holds default roof construction parameters. Scene files
// override these per roof.
type RoofConfig struct {
	PitchDegrees float64 `yaml:"pitch_degrees"`
	Overhang     float64 `yaml:"overhang"`
}

// ExportConfig holds mesh export settings.
type ExportConfig struct {
	// Precision is the number of decimals written for OBJ coordinates.
	// Negative means the shortest representation that round-trips exactly.
	Precision int `yaml:"precision"`
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Logging: LoggingConfig{
			Level:   "info",
			LogFile: "",
		},
		Roof: RoofConfig{
			PitchDegrees: 35,
			Overhang:     0,
		},
		Export: ExportConfig{
			Precision: -1,
		},
	}
}
