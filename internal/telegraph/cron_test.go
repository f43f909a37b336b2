package telegraph

import (
	"testing"
	"time"
)

func TestNextCronDuration(t *testing.T) {
	now := time.Date(2025, 3, 1, 8, 30, 0, 0, time.Local)
	tests := []struct {
		expr string
		want time.Duration
	}{
		{"0 9 * * *", 30 * time.Minute},
		{"* * * * *", time.Minute},
		{"@hourly", 30 * time.Minute},
		{"@every 5m", 5 * time.Minute},
		{"not a cron expr", 0},
		{"", 0},
	}
	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			if got := nextCronDuration(tt.expr, now); got != tt.want {
				t.Errorf("nextCronDuration(%q) = %v, want %v", tt.expr, got, tt.want)
			}
		})
	}
}
