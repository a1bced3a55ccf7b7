package config

// ConfigDiff describes what changed between two configs.
// Only fields that can be safely hot-reloaded are tracked; network addresses
// and store DSNs require a restart.
type ConfigDiff struct {
	LogLevelChanged bool
	NewLogLevel     LogLevel

	// ProviderChanged is true when the model backend selection changed
	// (name, model, base URL, or API key).
	ProviderChanged bool

	// WorkflowIDChanged is true when the vendor workflow for generation
	// calls changed.
	WorkflowIDChanged bool

	// GracePeriodChanged is true when the call stop grace period changed.
	GracePeriodChanged bool
}

// Any reports whether the diff contains at least one change.
func (d ConfigDiff) Any() bool {
	return d.LogLevelChanged || d.ProviderChanged || d.WorkflowIDChanged || d.GracePeriodChanged
}

// Diff compares old and new configs and returns what changed.
// Only tracks changes that are safe to apply without restart.
func Diff(old, new *Config) ConfigDiff {
	d := ConfigDiff{}

	if old.Server.LogLevel != new.Server.LogLevel {
		d.LogLevelChanged = true
		d.NewLogLevel = new.Server.LogLevel
	}

	if old.Provider != new.Provider {
		d.ProviderChanged = true
	}

	if old.Voice.WorkflowID != new.Voice.WorkflowID {
		d.WorkflowIDChanged = true
	}

	if old.Voice.GracePeriod != new.Voice.GracePeriod {
		d.GracePeriodChanged = true
	}

	return d
}
