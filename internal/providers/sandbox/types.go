package sandbox

import (
	"errors"
	"time"
)

var (
	// ErrTimeout is returned when a script exceeds Config.Timeout
	ErrTimeout = errors.New("execution timeout exceeded")
	// ErrMissingGlobal is returned when a bundle evaluates cleanly but
	// does not define the global it was installed under
	ErrMissingGlobal = errors.New("bundle did not define expected global")
	// ErrClosed is returned by every operation after Close
	ErrClosed = errors.New("namespace closed")
)

// Config defines namespace configuration
type Config struct {
	Timeout       time.Duration // Snippet execution timeout
	EnableConsole bool          // Capture console.log/warn/error
	MaxCallStack  int           // Maximum JS call stack depth, 0 keeps goja's default
}

// Result holds a snippet execution result
type Result struct {
	Value    interface{}   `json:"value"`
	Console  []LogEntry    `json:"console"`
	Duration time.Duration `json:"duration"`
}

// LogEntry represents console output
type LogEntry struct {
	Level   string    `json:"level"`
	Message string    `json:"message"`
	Time    time.Time `json:"time"`
}

// DefaultConfig returns the default namespace configuration
func DefaultConfig() Config {
	return Config{
		Timeout:       5 * time.Second,
		EnableConsole: true,
		MaxCallStack:  1024,
	}
}
