// LANWatch - Network Monitoring Ingestion and State Reconciliation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lanwatch

// Package ratecalc derives the ARP request rate from consecutive metric samples.
package ratecalc

import (
	"math"
	"time"
)

// Sample is one observed ARP counter reading.
type Sample struct {
	ARPRequests int64
	At          time.Time
}

// Outcome reports what Observe did with a sample.
type Outcome int

const (
	// FirstSample means there was nothing to compare against yet.
	FirstSample Outcome = iota
	// Updated means the rate was recomputed.
	Updated
	// Skipped means elapsed time was not positive and the previous rate was kept.
	Skipped
)

func (o Outcome) String() string {
	switch o {
	case FirstSample:
		return "first"
	case Updated:
		return "updated"
	case Skipped:
		return "skipped"
	default:
		return "unknown"
	}
}

// Calculator keeps the previous sample and the last computed rate.
// It is not safe for concurrent use; the reconciler owns it.
type Calculator struct {
	prev *Sample
	rate int64
}

// New returns an empty Calculator with rate 0.
func New() *Calculator {
	return &Calculator{}
}

// Observe feeds the next sample.
//
// With a previous sample present the rate becomes
// previous.ARPRequests / elapsedMinutes, rounded, where elapsed runs from the
// previous sample to this one. A non-positive elapsed time keeps the previous
// rate. The stored sample always advances to s.
func (c *Calculator) Observe(s Sample) Outcome {
	prev := c.prev
	c.prev = &s

	if prev == nil {
		return FirstSample
	}

	elapsedMinutes := s.At.Sub(prev.At).Minutes()
	if elapsedMinutes <= 0 {
		return Skipped
	}
	c.rate = saturate(math.Round(float64(prev.ARPRequests) / elapsedMinutes))
	return Updated
}

// saturate converts f to int64, clamping instead of wrapping at the limits.
func saturate(f float64) int64 {
	switch {
	case f >= math.MaxInt64:
		return math.MaxInt64
	case f <= math.MinInt64:
		return math.MinInt64
	default:
		return int64(f)
	}
}

// Rate returns the last computed requests/minute.
func (c *Calculator) Rate() int64 {
	return c.rate
}
