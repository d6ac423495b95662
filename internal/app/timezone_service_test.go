package app

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTimezoneResolver_RegisteredZone(t *testing.T) {
	dir := newFakeDirectory()
	dir.timezones[1] = "Europe/Moscow"
	resolver := NewTimezoneResolver(dir, time.UTC, testLogger())

	loc := resolver.Resolve(context.Background(), 1)
	assert.Equal(t, "Europe/Moscow", loc.String())
}

func TestTimezoneResolver_FallbackForUnknownOrg(t *testing.T) {
	fallback, err := time.LoadLocation("Europe/Moscow")
	require.NoError(t, err)

	resolver := NewTimezoneResolver(newFakeDirectory(), fallback, testLogger())

	loc := resolver.Resolve(context.Background(), 999)
	assert.Equal(t, fallback, loc, "unknown org must resolve to the fallback, never fail")
}

func TestTimezoneResolver_FallbackForInvalidZone(t *testing.T) {
	dir := newFakeDirectory()
	dir.timezones[1] = "Not/AZone"
	dir.timezones[2] = ""
	resolver := NewTimezoneResolver(dir, time.UTC, testLogger())

	assert.Equal(t, time.UTC, resolver.Resolve(context.Background(), 1))
	assert.Equal(t, time.UTC, resolver.Resolve(context.Background(), 2))
}

func TestZoneConversionRoundTrip(t *testing.T) {
	for _, zone := range []string{"Europe/Moscow", "America/New_York", "Asia/Tokyo", "UTC"} {
		loc, err := time.LoadLocation(zone)
		require.NoError(t, err)

		instant := time.Date(2025, 3, 14, 6, 2, 0, 0, time.UTC)
		roundTripped := ToUTC(ToLocal(instant, loc))
		assert.True(t, instant.Equal(roundTripped), "round trip through %s must be exact", zone)
	}
}

func TestLocalInstant(t *testing.T) {
	moscow, err := time.LoadLocation("Europe/Moscow")
	require.NoError(t, err)

	// 06:02 UTC is 09:02 in Moscow (UTC+3, no DST).
	ref := time.Date(2025, 6, 10, 6, 2, 0, 0, time.UTC)
	due := LocalInstant(ref, 9, 0, moscow)

	assert.Equal(t, time.Date(2025, 6, 10, 6, 0, 0, 0, time.UTC), due.UTC())
}

func TestLocalDayBounds(t *testing.T) {
	moscow, err := time.LoadLocation("Europe/Moscow")
	require.NoError(t, err)

	// 22:30 UTC on June 10 is already June 11 in Moscow.
	ref := time.Date(2025, 6, 10, 22, 30, 0, 0, time.UTC)
	start, end := LocalDayBounds(ref, moscow)

	assert.Equal(t, time.Date(2025, 6, 10, 21, 0, 0, 0, time.UTC), start)
	assert.Equal(t, time.Date(2025, 6, 11, 21, 0, 0, 0, time.UTC), end)
	assert.Equal(t, 24*time.Hour, end.Sub(start))
}
