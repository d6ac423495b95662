// internal/app/timezone_service.go
package app

import (
	"context"
	"time"

	"team_challenge_bot/internal/domain/org"

	"github.com/sirupsen/logrus"
)

// TimezoneResolver maps organizations to their IANA timezone, falling back to
// a configured default when the registered zone is missing or unparseable.
type TimezoneResolver struct {
	orgs     org.Directory
	fallback *time.Location
	logger   *logrus.Entry
}

func NewTimezoneResolver(orgs org.Directory, fallback *time.Location, logger *logrus.Entry) *TimezoneResolver {
	return &TimezoneResolver{
		orgs:     orgs,
		fallback: fallback,
		logger:   logger,
	}
}

// Resolve returns the organization's location. It never fails: an unknown
// organization, an empty zone or an invalid identifier all produce the
// fallback location with a warning.
func (r *TimezoneResolver) Resolve(ctx context.Context, orgID int64) *time.Location {
	tzName, err := r.orgs.GetTimezone(ctx, orgID)
	if err != nil {
		r.logger.WithError(err).WithField("org_id", orgID).
			Warnf("Could not look up organization timezone, falling back to %s", r.fallback)
		return r.fallback
	}
	if tzName == "" {
		r.logger.WithField("org_id", orgID).
			Warnf("Organization has no timezone configured, falling back to %s", r.fallback)
		return r.fallback
	}
	loc, err := time.LoadLocation(tzName)
	if err != nil {
		r.logger.WithError(err).WithFields(logrus.Fields{"org_id": orgID, "timezone": tzName}).
			Warnf("Invalid organization timezone, falling back to %s", r.fallback)
		return r.fallback
	}
	return loc
}

// Fallback exposes the configured default location.
func (r *TimezoneResolver) Fallback() *time.Location {
	return r.fallback
}

// LocalInstant returns the instant for the given wall-clock time on the same
// local calendar day as ref, in loc.
func LocalInstant(ref time.Time, hour, minute int, loc *time.Location) time.Time {
	y, m, d := ref.In(loc).Date()
	return time.Date(y, m, d, hour, minute, 0, 0, loc)
}

// LocalDayBounds returns the [start, end) UTC bounds of the local calendar day
// containing ref. The end bound is computed in local time so DST transitions
// keep day boundaries aligned with the wall clock.
func LocalDayBounds(ref time.Time, loc *time.Location) (time.Time, time.Time) {
	y, m, d := ref.In(loc).Date()
	start := time.Date(y, m, d, 0, 0, 0, 0, loc)
	end := start.AddDate(0, 0, 1)
	return start.UTC(), end.UTC()
}

// ToUTC converts an instant to UTC.
func ToUTC(t time.Time) time.Time {
	return t.UTC()
}

// ToLocal converts an instant into the given location.
func ToLocal(t time.Time, loc *time.Location) time.Time {
	return t.In(loc)
}
