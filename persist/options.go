package persist

const (
	// DefaultSampleSize is how many entities the size estimate marshals.
	DefaultSampleSize = 100

	// MaxSampleSize caps the sampling pass regardless of configuration.
	MaxSampleSize = 1000

	// DefaultPartitionThreshold is the entity count above which a save
	// switches to partitioned mode. It also caps how many entities one
	// partition file holds.
	DefaultPartitionThreshold = 10000

	// DefaultMaxFileSize is the estimated size above which a save
	// switches to partitioned mode.
	DefaultMaxFileSize = 50 * 1024 * 1024

	// DefaultPartitionSize is the target size of one partition file.
	DefaultPartitionSize = 25 * 1024 * 1024
)

// Options holds the persistence thresholds. Zero or negative fields fall
// back to the defaults, and SampleSize is capped at MaxSampleSize.
type Options struct {
	// SampleSize is how many entities to marshal when estimating output
	// size. One sampling pass serves both the single-vs-partitioned
	// decision and partition sizing.
	SampleSize int `json:"sample_size" yaml:"sample_size"`

	// PartitionThreshold is the entity count that forces partitioned
	// output.
	PartitionThreshold int `json:"partition_threshold" yaml:"partition_threshold"`

	// MaxFileSize is the estimated byte size that forces partitioned
	// output.
	MaxFileSize int64 `json:"max_file_size" yaml:"max_file_size"`

	// PartitionSize is the byte size each partition file aims for.
	PartitionSize int64 `json:"partition_size" yaml:"partition_size"`
}

// DefaultOptions returns the standard thresholds.
func DefaultOptions() Options {
	return Options{
		SampleSize:         DefaultSampleSize,
		PartitionThreshold: DefaultPartitionThreshold,
		MaxFileSize:        DefaultMaxFileSize,
		PartitionSize:      DefaultPartitionSize,
	}
}

// normalized fills unset fields with defaults and applies caps.
func (o Options) normalized() Options {
	if o.SampleSize <= 0 {
		o.SampleSize = DefaultSampleSize
	}
	if o.SampleSize > MaxSampleSize {
		o.SampleSize = MaxSampleSize
	}
	if o.PartitionThreshold <= 0 {
		o.PartitionThreshold = DefaultPartitionThreshold
	}
	if o.MaxFileSize <= 0 {
		o.MaxFileSize = DefaultMaxFileSize
	}
	if o.PartitionSize <= 0 {
		o.PartitionSize = DefaultPartitionSize
	}
	return o
}
