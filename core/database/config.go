package database

// Config holds configuration for the SQLite database.
type Config struct {
	// Path is the database file location. A leading ~ expands to the
	// user's home directory. The special value ":memory:" opens an
	// in-memory database (used by tests).
	Path string `mapstructure:"path" default:"~/.kindle-sync/highlights.db"`
	// BusyTimeoutMillis is how long a writer waits on a locked database.
	BusyTimeoutMillis int `mapstructure:"busy_timeout_millis" default:"10000"`
}
