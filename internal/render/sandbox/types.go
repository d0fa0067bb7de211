package sandbox

import (
	"time"
)

// Config defines sandbox execution limits.
type Config struct {
	ScriptTimeout  time.Duration // goja execution timeout
	EnableConsole  bool          // allow console.log/warn/error capture
	Sanitize       bool          // run bluemonday before building documents
	PoolSize       int           // max pooled preview runtimes
	AcquireTimeout time.Duration // how long Acquire waits for a free runtime
}

// DefaultConfig returns the limits used in production.
func DefaultConfig() Config {
	return Config{
		ScriptTimeout:  2 * time.Second,
		EnableConsole:  true,
		Sanitize:       true,
		PoolSize:       4,
		AcquireTimeout: 5 * time.Second,
	}
}

// LogEntry is captured console output from sandboxed script.
type LogEntry struct {
	Level   string    `json:"level"`
	Message string    `json:"message"`
	Time    time.Time `json:"time"`
}

// Posted is a message a sandboxed script sent through the host bridge.
// Payload is the exported postMessage argument.
type Posted struct {
	Payload map[string]interface{} `json:"payload"`
	Target  string                 `json:"target"` // "parent" or "top"
}

// Result holds one sandbox execution's output.
type Result struct {
	Value    interface{}   `json:"value,omitempty"`
	Console  []LogEntry    `json:"console,omitempty"`
	Posted   []Posted      `json:"posted,omitempty"`
	Duration time.Duration `json:"duration"`
}
