package rrule

import (
	"errors"
	"time"

	"github.com/teambition/rrule-go"

	appLog "gcalctl/internal/log"
	"gcalctl/internal/model"
)

const (
	defaultMaxOccurrences = 5000
	defaultHorizon        = 366 * 24 * time.Hour
)

// ExpandConfig controls how recurrence expansion is performed.
type ExpandConfig struct {
	// DisplayLocation is the timezone occurrences are converted to.
	// If nil, UTC is used.
	DisplayLocation *time.Location

	// RangeStart / RangeEnd define the inclusive window. A zero RangeStart
	// means the event start; a zero RangeEnd means one year after RangeStart.
	RangeStart time.Time
	RangeEnd   time.Time

	// MaxOccurrences caps the result. If zero, defaultMaxOccurrences is used.
	MaxOccurrences int
}

// ExpandResult wraps the occurrences and whether the cap cut them short.
type ExpandResult struct {
	Occurrences []model.Occurrence
	Truncated   bool
}

// Expand materializes the occurrences of rule anchored at ev's start, without
// contacting the remote service. Each occurrence keeps ev's duration; day-long
// events last at least one day.
func Expand(ev model.Event, rule *model.RecurrenceRule, cfg ExpandConfig) (ExpandResult, error) {
	var result ExpandResult

	if rule == nil {
		return result, errors.New("expand: no recurrence rule")
	}
	if err := rule.Validate(); err != nil {
		return result, err
	}
	if err := ev.Validate(); err != nil {
		return result, err
	}
	if cfg.DisplayLocation == nil {
		cfg.DisplayLocation = time.UTC
	}
	if cfg.MaxOccurrences <= 0 {
		cfg.MaxOccurrences = defaultMaxOccurrences
	}

	start := ev.Start.Time()
	if cfg.RangeStart.IsZero() {
		cfg.RangeStart = start
	}
	if cfg.RangeEnd.IsZero() {
		cfg.RangeEnd = cfg.RangeStart.Add(defaultHorizon)
	}
	if cfg.RangeEnd.Before(cfg.RangeStart) {
		return result, errors.New("expand: RangeEnd is before RangeStart")
	}

	r, err := rrule.StrToRRule(Format(rule))
	if err != nil {
		appLog.Error("expand: rrule engine rejected rule", err, "rrule", Format(rule))
		return result, err
	}
	r.DTStart(start)

	times := r.Between(cfg.RangeStart, cfg.RangeEnd, true)
	if len(times) > cfg.MaxOccurrences {
		times = times[:cfg.MaxOccurrences]
		result.Truncated = true
	}

	dur := ev.End.Time().Sub(start)
	allDay := ev.DayLong()
	if allDay && dur < 24*time.Hour {
		dur = 24 * time.Hour
	}

	// civil dates are not shifted into the display zone
	loc := cfg.DisplayLocation
	if allDay {
		loc = time.UTC
	}

	result.Occurrences = make([]model.Occurrence, 0, len(times))
	for _, occStart := range times {
		occ := model.Occurrence{
			Summary: ev.Title,
			AllDay:  allDay,
			Start:   occStart.In(loc),
			End:     occStart.Add(dur).In(loc),
		}
		occ.InstanceKey = occStart.UTC().Format(untilLayout)
		result.Occurrences = append(result.Occurrences, occ)
	}

	appLog.Debug("expand: occurrences computed", "rrule", Format(rule), "count", len(result.Occurrences), "truncated", result.Truncated)
	return result, nil
}
