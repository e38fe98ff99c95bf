package recurrence

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/grovert/zabbix-maintenance-assistant/internal/models"
)

func TestWeekdays(t *testing.T) {
	tests := []struct {
		mask int
		want []string
	}{
		{1, []string{"Monday"}},
		{8, []string{"Thursday"}},
		{24, []string{"Thursday", "Friday"}},
		{21, []string{"Monday", "Wednesday", "Friday"}},
		{96, []string{"Saturday", "Sunday"}},
		{127, []string{"Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday", "Sunday"}},
		// documented quirk: the empty mask renders as Monday, not as nothing
		{0, []string{"Monday"}},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("mask_%d", tt.mask), func(t *testing.T) {
			assert.Equal(t, tt.want, Weekdays(tt.mask))
		})
	}
}

func TestWeekdaysRoundTrip(t *testing.T) {
	// Every non-zero 7-bit mask decodes to exactly its set bits, in
	// Monday-to-Sunday order.
	all := []string{"Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday", "Sunday"}
	for mask := 1; mask < 128; mask++ {
		var want []string
		for i, name := range all {
			if mask&(1<<i) != 0 {
				want = append(want, name)
			}
		}
		require.Equal(t, want, Weekdays(mask), "mask %d", mask)
	}
}

func TestMonths(t *testing.T) {
	tests := []struct {
		mask int
		want []string
	}{
		{1, []string{"January"}},
		{389, []string{"January", "March", "August", "September"}},
		{3584, []string{"October", "November", "December"}},
		{0, []string{"every month"}},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("mask_%d", tt.mask), func(t *testing.T) {
			assert.Equal(t, tt.want, Months(tt.mask))
		})
	}
}

func TestWeekOrdinal(t *testing.T) {
	assert.Equal(t, "first", WeekOrdinal(1))
	assert.Equal(t, "second", WeekOrdinal(2))
	assert.Equal(t, "third", WeekOrdinal(3))
	assert.Equal(t, "fourth", WeekOrdinal(4))
	assert.Equal(t, "last", WeekOrdinal(5))
	// out of range defaults to first
	assert.Equal(t, "first", WeekOrdinal(0))
	assert.Equal(t, "first", WeekOrdinal(9))
}

func TestClockTime(t *testing.T) {
	assert.Equal(t, "00:00", ClockTime(0))
	assert.Equal(t, "02:05", ClockTime(7530))
	assert.Equal(t, "05:00", ClockTime(18000))
	assert.Equal(t, "23:59", ClockTime(86340))
}

func TestDescribeDaily(t *testing.T) {
	desc := Describe(models.RecurrenceDaily, &models.RecurrenceConfig{Every: 3, StartTime: 7530})
	assert.Contains(t, desc, "3")
	assert.Contains(t, desc, "02:05")

	// missing every defaults to 1, no time-of-day suffix without start_time
	desc = Describe(models.RecurrenceDaily, &models.RecurrenceConfig{})
	assert.Equal(t, "every 1 day(s)", desc)
}

func TestDescribeWeekly(t *testing.T) {
	desc := Describe(models.RecurrenceWeekly, &models.RecurrenceConfig{
		Every: 1, DayOfWeek: 24, StartTime: 18000,
	})
	assert.Equal(t, "every 1 week(s) on Thursday, Friday at 05:00", desc)

	// empty day mask falls back to Monday for display
	desc = Describe(models.RecurrenceWeekly, &models.RecurrenceConfig{Every: 2})
	assert.Equal(t, "every 2 week(s) on Monday", desc)
}

func TestDescribeMonthly(t *testing.T) {
	t.Run("by day of month", func(t *testing.T) {
		desc := Describe(models.RecurrenceMonthly, &models.RecurrenceConfig{
			Day: 5, Every: 1, Month: 4095,
		})
		assert.Equal(t, "day 5 every 1 month(s)", desc)
	})

	t.Run("by day of week", func(t *testing.T) {
		desc := Describe(models.RecurrenceMonthly, &models.RecurrenceConfig{
			DayOfWeek: 16, Every: 5, Month: 4095,
		})
		assert.Equal(t, "last week - Friday of every month", desc)
	})

	t.Run("all-months sentinel is never enumerated", func(t *testing.T) {
		desc := Describe(models.RecurrenceMonthly, &models.RecurrenceConfig{
			Day: 1, Month: AllMonths,
		})
		assert.NotContains(t, desc, "January")
		assert.NotContains(t, desc, "December")
	})

	t.Run("specific months are enumerated in order", func(t *testing.T) {
		desc := Describe(models.RecurrenceMonthly, &models.RecurrenceConfig{
			Day: 15, Month: 65,
		})
		assert.Contains(t, desc, "January, July")
	})
}

func TestDescribeUnknownType(t *testing.T) {
	assert.Equal(t, "custom schedule", Describe("fortnightly", &models.RecurrenceConfig{Every: 2}))
	assert.Equal(t, "custom schedule", Describe(models.RecurrenceMonthly, nil))
}

func TestPreviewLines(t *testing.T) {
	lines := PreviewLines(models.RecurrenceMonthly, &models.RecurrenceConfig{
		DayOfWeek: 1, Every: 1, Month: 585, StartTime: 32400, Duration: 3600,
	})
	joined := strings.Join(lines, "\n")
	assert.Contains(t, joined, "Days: Monday (bitmask: 1)")
	assert.Contains(t, joined, "Week: first")
	assert.Contains(t, joined, "Months: January, April, July, October (bitmask: 585)")
	assert.Contains(t, joined, "Start time: 09:00 (32400s)")
	assert.Contains(t, joined, "Duration: 1h 0m (3600s)")

	assert.Nil(t, PreviewLines(models.RecurrenceOnce, &models.RecurrenceConfig{}))
	assert.Nil(t, PreviewLines(models.RecurrenceDaily, nil))
}

func TestPreviewLinesAllMonths(t *testing.T) {
	lines := PreviewLines(models.RecurrenceMonthly, &models.RecurrenceConfig{
		Day: 31, Month: AllMonths,
	})
	assert.Contains(t, lines, "Months: every month")
}
