package epoch

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDetectUnit_Seconds(t *testing.T) {
	// ~2024 in seconds since 2001 is around 7.3e8.
	assert.Equal(t, Seconds, DetectUnit(730000000))
}

func TestDetectUnit_Nanoseconds(t *testing.T) {
	// ~2024 in nanoseconds since 2001 is around 7.3e17.
	assert.Equal(t, Nanoseconds, DetectUnit(7.3e17))
}

func TestDetectUnit_Zero(t *testing.T) {
	assert.Equal(t, Seconds, DetectUnit(0))
}

func TestAppleToTime_KnownFixture(t *testing.T) {
	// 757382400 seconds after 2001-01-01 is the 2024/2025 New Year instant.
	got := AppleToTime(757382400.0, Seconds)
	require.False(t, got.IsZero())
	assert.Equal(t, time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC), got.UTC())
}

func TestAppleToTime_Zero(t *testing.T) {
	assert.True(t, AppleToTime(0, Seconds).IsZero())
	assert.True(t, AppleToTime(0, Nanoseconds).IsZero())
}

func TestAppleRoundTrip_Seconds(t *testing.T) {
	want := time.Date(2024, 6, 15, 10, 30, 45, 0, time.Local)
	ts := TimeToApple(want, Seconds)
	got := AppleToTime(float64(ts), Seconds)
	assert.True(t, want.Equal(got), "want %v got %v", want, got)
}

func TestAppleRoundTrip_Nanoseconds(t *testing.T) {
	want := time.Date(2024, 6, 15, 10, 30, 45, 0, time.Local)
	ts := TimeToApple(want, Nanoseconds)
	got := AppleToTime(float64(ts), Nanoseconds)
	// Nanosecond round trip through float64 loses sub-second precision only.
	assert.WithinDuration(t, want, got, time.Second)
}

func TestChromeRoundTrip(t *testing.T) {
	want := time.Date(2024, 3, 1, 8, 0, 0, 0, time.Local)
	ts := TimeToChrome(want)
	got := ChromeToTime(ts)
	assert.True(t, want.Equal(got), "want %v got %v", want, got)
}

func TestChromeToTime_Zero(t *testing.T) {
	assert.True(t, ChromeToTime(0).IsZero())
}

func TestChromeToTime_EpochBase(t *testing.T) {
	// The Unix epoch expressed as microseconds since 1601.
	got := ChromeToTime(ChromeOffset * 1e6)
	assert.Equal(t, time.Date(1970, 1, 1, 0, 0, 0, 0, time.UTC), got.UTC())
}
