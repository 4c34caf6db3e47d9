package writer

import "time"

const (
	// DefaultChunkSize is the number of records flushed together.
	DefaultChunkSize = 500

	// DefaultWorkers is the worker pool size for chunk processing.
	DefaultWorkers = 5

	// DefaultQueueSize bounds chunks queued ahead of the workers. Write
	// blocks when the queue is full, which keeps memory bounded during
	// large streaming jobs.
	DefaultQueueSize = 16

	// DefaultMaxRetries is the number of extra passes over a chunk's
	// still-failing records.
	DefaultMaxRetries = 3

	// DefaultRetryUnit is the base pause between retry passes.
	DefaultRetryUnit = time.Second

	// DefaultStopTimeout bounds the wait for workers to exit at flush.
	DefaultStopTimeout = 30 * time.Second

	// maxBackoffUnits caps the pause between retry passes: pass number
	// units of RetryUnit, at most this many.
	maxBackoffUnits = 5
)

// Config configures a ChunkedWriter.
type Config struct {
	// ChunkSize is the record count that triggers a chunk submission
	ChunkSize int `json:"chunk_size" yaml:"chunk_size"`

	// Workers is the chunk-processing pool size
	Workers int `json:"workers" yaml:"workers"`

	// QueueSize bounds chunks waiting for a worker
	QueueSize int `json:"queue_size" yaml:"queue_size"`

	// BufferSize is the staging buffer capacity in records. Raised to
	// twice ChunkSize when configured smaller.
	BufferSize int `json:"buffer_size" yaml:"buffer_size"`

	// MaxRetries is the number of extra passes over failing records
	MaxRetries int `json:"max_retries" yaml:"max_retries"`

	// RetryUnit is the base pause between retry passes; pass N sleeps
	// min(5, N) units
	RetryUnit time.Duration `json:"retry_unit" yaml:"retry_unit"`

	// StopTimeout bounds the worker pool shutdown at flush
	StopTimeout time.Duration `json:"stop_timeout" yaml:"stop_timeout"`
}

// DefaultConfig returns the default chunked writer configuration.
func DefaultConfig() Config {
	return Config{
		ChunkSize:   DefaultChunkSize,
		Workers:     DefaultWorkers,
		QueueSize:   DefaultQueueSize,
		BufferSize:  2 * DefaultChunkSize,
		MaxRetries:  DefaultMaxRetries,
		RetryUnit:   DefaultRetryUnit,
		StopTimeout: DefaultStopTimeout,
	}
}

// normalized fills zero or negative fields with defaults and keeps the
// staging buffer at least one chunk deep.
func (c Config) normalized() Config {
	if c.ChunkSize <= 0 {
		c.ChunkSize = DefaultChunkSize
	}
	if c.Workers <= 0 {
		c.Workers = DefaultWorkers
	}
	if c.QueueSize <= 0 {
		c.QueueSize = DefaultQueueSize
	}
	if c.BufferSize < c.ChunkSize {
		c.BufferSize = 2 * c.ChunkSize
	}
	if c.MaxRetries < 0 {
		c.MaxRetries = DefaultMaxRetries
	}
	if c.RetryUnit <= 0 {
		c.RetryUnit = DefaultRetryUnit
	}
	if c.StopTimeout <= 0 {
		c.StopTimeout = DefaultStopTimeout
	}
	return c
}
