package alerts

import "time"

// Opacity is 1 until the last FadeWindow of duration, then falls linearly to
// 0 at age == duration. Values are clamped to [0, 1].
func Opacity(age, duration time.Duration) float64 {
	if age <= duration-FadeWindow {
		return 1
	}
	a := float64(duration-age) / float64(FadeWindow)
	switch {
	case a < 0:
		return 0
	case a > 1:
		return 1
	default:
		return a
	}
}
