package model

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"gcalctl/internal/apperr"
)

func TestNewRecurrenceRuleDefaults(t *testing.T) {
	r := NewRecurrenceRule("weekly")

	assert.Equal(t, Weekly, r.Freq)
	assert.Equal(t, 1, r.Interval)
	assert.Zero(t, r.Count)
	assert.True(t, r.Until.IsZero())
	assert.Nil(t, r.ByDay)
	assert.NoError(t, r.Validate())
}

func TestNewRecurrenceRuleOptions(t *testing.T) {
	until := time.Date(2024, 12, 31, 23, 59, 59, 500, time.FixedZone("X", 3600))
	r := NewRecurrenceRule(Monthly,
		WithInterval(2), WithCount(10), WithUntil(until),
		WithByDay("mo", "-1fr"), WithByMonth(1, 6), WithByYearDay(100), WithByHour(0, 23))

	assert.Equal(t, 2, r.Interval)
	assert.Equal(t, 10, r.Count)
	assert.Equal(t, time.Date(2024, 12, 31, 22, 59, 59, 0, time.UTC), r.Until)
	assert.Equal(t, []string{"MO", "-1FR"}, r.ByDay)
	assert.NoError(t, r.Validate())
}

func TestRecurrenceRuleValidate(t *testing.T) {
	tests := []struct {
		name string
		rule *RecurrenceRule
	}{
		{"unknown frequency", NewRecurrenceRule("HOURLY")},
		{"zero interval", NewRecurrenceRule(Daily, WithInterval(0))},
		{"bad weekday", NewRecurrenceRule(Weekly, WithByDay("XX"))},
		{"zero ordinal", NewRecurrenceRule(Monthly, WithByDay("0MO"))},
		{"month 13", NewRecurrenceRule(Yearly, WithByMonth(13))},
		{"year day 0", NewRecurrenceRule(Yearly, WithByYearDay(0))},
		{"hour 24", NewRecurrenceRule(Daily, WithByHour(24))},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.rule.Validate()
			assert.True(t, errors.Is(err, apperr.ErrInvalidRecurrenceRule), "got %v", err)
		})
	}
}

func TestValidWeekday(t *testing.T) {
	assert.True(t, ValidWeekday("SU"))
	assert.True(t, ValidWeekday("2mo"))
	assert.True(t, ValidWeekday("-53TH"))
	assert.False(t, ValidWeekday("54TH"))
	assert.False(t, ValidWeekday("M"))
	assert.False(t, ValidWeekday("+xMO"))
}

func TestDescribeListsConstrainedAxes(t *testing.T) {
	r := NewRecurrenceRule(Weekly, WithByDay(MO, WE))
	assert.Equal(t, "Frequency: WEEKLY, Interval: 1, By Day: MO,WE", r.Describe())

	var nilRule *RecurrenceRule
	assert.Equal(t, "", nilRule.Describe())
}

func TestEntryValidateChecksRule(t *testing.T) {
	day := Date(2024, 1, 1)
	en := NewRecurring(NewEvent("x", day, day), NewRecurrenceRule(Daily, WithInterval(-1)))
	assert.True(t, errors.Is(en.Validate(), apperr.ErrInvalidRecurrenceRule))

	en = NewRecurring(NewEvent("x", day, day), nil)
	assert.NoError(t, en.Validate())
	assert.True(t, en.IsRecurring())
	assert.False(t, NewPlain(en.Event).IsRecurring())
}
