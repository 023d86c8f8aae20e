package config

// Settings is the store-shaped view of a loaded configuration file.
// Zero values mean "use the store default".
type Settings struct {
	// BufferSize is the event queue buffer size.
	BufferSize int

	// MaxDepth limits feedback chain depth.
	MaxDepth int

	// Metrics enables OpenTelemetry metrics.
	Metrics bool

	// Tracing enables OpenTelemetry tracing.
	Tracing bool

	// DeadLetterPath, when set, is the SQLite file for the failure journal.
	DeadLetterPath string

	// DataEvents lists reference types resolved to data-only events.
	DataEvents []string
}

// SettingsFrom extracts store settings from a Config.
func SettingsFrom(cfg Config) Settings {
	return Settings{
		BufferSize:     cfg.Int("buffer_size", 0),
		MaxDepth:       cfg.Int("max_depth", 0),
		Metrics:        cfg.Bool("metrics", false),
		Tracing:        cfg.Bool("tracing", false),
		DeadLetterPath: cfg.String("dead_letter_path", ""),
		DataEvents:     cfg.Strings("data_events", nil),
	}
}

// SettingsFromFile loads a settings file.
func SettingsFromFile(path string) (Settings, error) {
	cfg, err := FromFile(path)
	if err != nil {
		return Settings{}, err
	}
	return SettingsFrom(cfg), nil
}
