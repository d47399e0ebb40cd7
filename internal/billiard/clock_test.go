package billiard

import (
	"testing"
	"time"
)

func TestCompute(t *testing.T) {
	start := time.Date(2025, 3, 1, 20, 0, 0, 0, time.UTC)

	tests := []struct {
		name      string
		blocks    int
		after     time.Duration
		expired   bool
		magnitude time.Duration
		display   string
	}{
		{"half hour into one block", 1, 30 * time.Minute, false, 30 * time.Minute, "00:30:00"},
		{"one millisecond over", 1, time.Hour + time.Millisecond, true, time.Millisecond, "00:00:00"},
		{"exactly at the limit", 1, time.Hour, true, 0, "00:00:00"},
		{"second block keeps the window", 2, 90 * time.Minute, false, 30 * time.Minute, "00:30:00"},
		{"overage counts up", 1, 2*time.Hour + 5*time.Minute + 7*time.Second, true, time.Hour + 5*time.Minute + 7*time.Second, "01:05:07"},
		{"just started", 3, 0, false, 3 * time.Hour, "03:00:00"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clk := Compute(start, tt.blocks, start.Add(tt.after))
			if clk.Expired != tt.expired {
				t.Fatalf("expired = %v, want %v", clk.Expired, tt.expired)
			}
			if clk.Magnitude != tt.magnitude {
				t.Fatalf("magnitude = %v, want %v", clk.Magnitude, tt.magnitude)
			}
			if clk.Display != tt.display {
				t.Fatalf("display = %q, want %q", clk.Display, tt.display)
			}
			if clk.TotalDuration != time.Duration(tt.blocks)*time.Hour {
				t.Fatalf("total = %v", clk.TotalDuration)
			}
		})
	}
}

func TestComputeView(t *testing.T) {
	start := time.Date(2025, 3, 1, 20, 0, 0, 0, time.UTC)
	v := Compute(start, 1, start.Add(3_600_001*time.Millisecond)).View()

	if v.TotalDurationMs != 3_600_000 || v.ElapsedMs != 3_600_001 || v.RemainingMs != -1 || v.MagnitudeMs != 1 {
		t.Fatalf("unexpected view: %+v", v)
	}
}

func TestFormat(t *testing.T) {
	cases := map[time.Duration]string{
		0:                               "00:00:00",
		999 * time.Millisecond:          "00:00:00",
		59*time.Minute + 59*time.Second: "00:59:59",
		26 * time.Hour:                  "26:00:00",
		-5 * time.Second:                "00:00:00",
	}
	for d, want := range cases {
		if got := Format(d); got != want {
			t.Errorf("Format(%v) = %q, want %q", d, got, want)
		}
	}
}

func TestCharge(t *testing.T) {
	if got := Charge(true, 2, 150); got != 300 {
		t.Fatalf("Charge = %d, want 300", got)
	}
	if got := Charge(false, 2, 150); got != 0 {
		t.Fatalf("Charge without billiard = %d, want 0", got)
	}
	if got := Charge(true, 0, 150); got != 0 {
		t.Fatalf("Charge with no blocks = %d, want 0", got)
	}
}
