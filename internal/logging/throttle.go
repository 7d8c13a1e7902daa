// LANWatch - Network Monitoring Ingestion and State Reconciliation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lanwatch

package logging

import (
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"
)

// Throttle gates a repetitive log line, for example one per dropped frame,
// so a misbehaving feed cannot flood the output. Suppressed lines are counted
// and reported on the next line that gets through.
type Throttle struct {
	limiter    *rate.Limiter
	suppressed atomic.Int64
}

// NewThrottle allows burst lines immediately and then one line per interval.
func NewThrottle(interval time.Duration, burst int) *Throttle {
	if burst < 1 {
		burst = 1
	}
	return &Throttle{limiter: rate.NewLimiter(rate.Every(interval), burst)}
}

// Allow reports whether a line may be written now. When it returns true,
// suppressed is the number of lines swallowed since the last allowed one.
func (t *Throttle) Allow() (ok bool, suppressed int64) {
	if !t.limiter.Allow() {
		t.suppressed.Add(1)
		return false, 0
	}
	return true, t.suppressed.Swap(0)
}
