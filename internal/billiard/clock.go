// Package billiard derives the rental clock of a billiard table. Everything
// here is a pure function of the table's start time, purchased blocks and
// the current time.
package billiard

import (
	"fmt"
	"time"
)

// BlockDuration is the rental time bought by one block.
const BlockDuration = time.Hour

type Clock struct {
	TotalDuration time.Duration
	Elapsed       time.Duration
	Remaining     time.Duration
	Expired       bool
	// Magnitude counts down while time remains and counts the overage up
	// once the blocks are used.
	Magnitude time.Duration
	Display   string
}

// View is the wire form of a Clock, durations in milliseconds.
type View struct {
	TotalDurationMs int64  `json:"total_duration_ms"`
	ElapsedMs       int64  `json:"elapsed_ms"`
	RemainingMs     int64  `json:"remaining_ms"`
	Expired         bool   `json:"expired"`
	MagnitudeMs     int64  `json:"magnitude_ms"`
	Display         string `json:"display"`
}

func (c Clock) View() View {
	return View{
		TotalDurationMs: c.TotalDuration.Milliseconds(),
		ElapsedMs:       c.Elapsed.Milliseconds(),
		RemainingMs:     c.Remaining.Milliseconds(),
		Expired:         c.Expired,
		MagnitudeMs:     c.Magnitude.Milliseconds(),
		Display:         c.Display,
	}
}

func Compute(start time.Time, blocks int, now time.Time) Clock {
	total := time.Duration(blocks) * BlockDuration
	elapsed := now.Sub(start)
	remaining := total - elapsed
	expired := remaining <= 0

	magnitude := remaining
	if expired {
		magnitude = elapsed - total
	}

	return Clock{
		TotalDuration: total,
		Elapsed:       elapsed,
		Remaining:     remaining,
		Expired:       expired,
		Magnitude:     magnitude,
		Display:       Format(magnitude),
	}
}

// Format renders d as HH:MM:SS, dropping sub-second remainders.
// Hours are not capped at 24.
func Format(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	total := int64(d / time.Second)
	return fmt.Sprintf("%02d:%02d:%02d", total/3600, (total%3600)/60, total%60)
}

// Charge is the rental cost of a table at close time: every purchased
// block is billed, regardless of how much of it was used.
func Charge(hasBillar bool, blocks int, pricePerHour int64) int64 {
	if !hasBillar || blocks <= 0 {
		return 0
	}
	return int64(blocks) * pricePerHour
}
