package builder

import "time"

// SetParallelism overrides the number of concurrent compilations.
func (b *Builder) SetParallelism(n int) {
	b.parallelism = n
}

// SetClock overrides the clock used for build info timestamps.
func (b *Builder) SetClock(now func() time.Time) {
	b.now = now
}
