package domain

import "time"

const (
	PingRetention = 24 * time.Hour
	MaxPings      = 500
)

// PrunePings drops pings older than PingRetention and keeps at most the
// newest MaxPings. The input is not modified.
func PrunePings(pings []int64, now time.Time) []int64 {
	cutoff := now.Add(-PingRetention).UnixMilli()
	out := make([]int64, 0, len(pings))
	for _, p := range pings {
		if p >= cutoff {
			out = append(out, p)
		}
	}
	if len(out) > MaxPings {
		out = out[len(out)-MaxPings:]
	}
	return out
}
