// timer.go — monotonic nanosecond clock for sample timing.
package timer

import "time"

var epoch = time.Now()

// NowNsec returns monotonic nanoseconds since process start.
// Sample arithmetic only ever uses differences, so the epoch is arbitrary;
// the monotonic reading is immune to wall-clock steps mid-run.
//
//go:inline
func NowNsec() uint64 {
	return uint64(time.Since(epoch))
}
