package config

// Analysis defaults.
const (
	DefaultApproximationThreshold = 20
)

// Output defaults.
const (
	DefaultOutputFormat = "text"
	DefaultOutputColor  = "auto"
)

// Logging defaults.
const (
	DefaultLogLevel  = "info"
	DefaultLogFormat = "text"
)

// Observability defaults.
const (
	DefaultOTLPEndpoint = ""
	DefaultOTLPInsecure = false
	DefaultMetricsAddr  = ""
	DefaultSampleRatio  = 1.0
)

var (
	validOutputFormats = []string{"text", "json", "yaml"}
	validColorModes    = []string{"auto", "always", "never"}
	validLogLevels     = []string{"debug", "info", "warn", "error"}
	validLogFormats    = []string{"text", "json"}
)
