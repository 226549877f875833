package contracts

import "time"

// LogLevel represents the severity level for logging.
type LogLevel int

const (
	// DebugLevel enables per-frame traffic logs; very chatty on a busy bus.
	DebugLevel LogLevel = iota + 1
	// InfoLevel reports binding and lifecycle progress.
	InfoLevel
	// WarnLevel reports non-fatal conditions such as a port pattern with no match.
	WarnLevel
	// ErrorLevel reports failures that leave the transport degraded.
	ErrorLevel
	// FatalLevel logs and terminates the process.
	FatalLevel
)

// LogDestination specifies where the log messages should be directed.
type LogDestination string

const (
	// ConsoleLog directs log messages to standard error.
	ConsoleLog LogDestination = "console"
	// FileLog directs log messages to a file.
	FileLog LogDestination = "file"
)

// Field builds a typed key/value pair attached to a log entry.
type Field interface {
	Bool(key string, val bool) Field
	Int(key string, val int) Field
	Float64(key string, val float64) Field
	String(key string, val string) Field
	Time(key string, val time.Time) Field
	Int64(key string, val int64) Field
	Error(key string, val error) Field
	Uint64(key string, val uint64) Field
	Uint8(key string, val uint8) Field
}

// Logger provides leveled, structured logging.
type Logger interface {
	Info(msg string, fields ...Field)
	Error(msg string, fields ...Field)
	Debug(msg string, fields ...Field)
	Warn(msg string, fields ...Field)
	Fatal(msg string, fields ...Field)

	Field() Field

	// Enabled reports whether entries at level would be written. Callers
	// use it to skip building expensive fields.
	Enabled(level LogLevel) bool

	// With returns a child logger that prepends fields to every entry.
	With(fields ...Field) Logger

	SetLevel(level LogLevel)
	SetDestination(dest LogDestination, filePath ...string)
}
