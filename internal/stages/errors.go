package stages

// ConfigError reports an inconsistent stage plan. It is fatal at startup.
type ConfigError struct {
	Reason string
}

func (e *ConfigError) Error() string {
	return "stage config: " + e.Reason
}
