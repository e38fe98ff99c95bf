// Package recurrence converts the backend's compact schedule configuration
// (Zabbix timeperiod bitmasks) to and from operator-readable descriptions.
package recurrence

import (
	"fmt"
	"strings"

	"github.com/grovert/zabbix-maintenance-assistant/internal/models"
)

// AllMonths is the 12-bit sentinel meaning "every month". It is displayed as
// a phrase, never enumerated.
const AllMonths = 4095

var weekdayNames = []string{
	"Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday", "Sunday",
}

var monthNames = []string{
	"January", "February", "March", "April", "May", "June",
	"July", "August", "September", "October", "November", "December",
}

var weekOrdinals = map[int]string{
	1: "first",
	2: "second",
	3: "third",
	4: "fourth",
	5: "last",
}

// Weekdays decodes a 7-bit day-of-week mask (bit 0 = Monday) into names in
// Monday-to-Sunday order. An empty mask yields ["Monday"]; the widget always
// shows at least one day label, so the fallback is display-only and must not
// be "fixed" into an empty list.
func Weekdays(mask int) []string {
	var days []string
	for i, name := range weekdayNames {
		if mask&(1<<i) != 0 {
			days = append(days, name)
		}
	}
	if len(days) == 0 {
		return []string{"Monday"}
	}
	return days
}

// Months decodes a 12-bit month mask (bit 0 = January) into names in
// January-to-December order. An empty mask yields ["every month"], matching
// the weekday fallback quirk.
func Months(mask int) []string {
	var months []string
	for i, name := range monthNames {
		if mask&(1<<i) != 0 {
			months = append(months, name)
		}
	}
	if len(months) == 0 {
		return []string{"every month"}
	}
	return months
}

// WeekOrdinal maps the nth-week selector (1..5) to first/second/third/
// fourth/last, defaulting to "first" for anything out of range.
func WeekOrdinal(every int) string {
	if name, ok := weekOrdinals[every]; ok {
		return name
	}
	return "first"
}

// ClockTime renders seconds since local midnight as zero-padded HH:MM.
func ClockTime(seconds int) string {
	hours := seconds / 3600
	minutes := (seconds % 3600) / 60
	return fmt.Sprintf("%02d:%02d", hours, minutes)
}

// Duration renders a second count as "Hh Mm".
func Duration(seconds int) string {
	hours := seconds / 3600
	minutes := (seconds % 3600) / 60
	return fmt.Sprintf("%dh %dm", hours, minutes)
}

func every(cfg *models.RecurrenceConfig) int {
	if cfg == nil || cfg.Every < 1 {
		return 1
	}
	return cfg.Every
}

func withStartTime(desc string, cfg *models.RecurrenceConfig) string {
	if cfg != nil && cfg.StartTime > 0 {
		return desc + " at " + ClockTime(cfg.StartTime)
	}
	return desc
}

// Describe renders the operator-facing schedule summary for a recurrence
// type and config. It mirrors the bitmask semantics exactly: this string is
// the proof shown before confirmation that the compact config will schedule
// what the operator asked for.
func Describe(recurrenceType string, cfg *models.RecurrenceConfig) string {
	switch recurrenceType {
	case models.RecurrenceDaily:
		return withStartTime(fmt.Sprintf("every %d day(s)", every(cfg)), cfg)

	case models.RecurrenceWeekly:
		mask := 0
		if cfg != nil {
			mask = cfg.DayOfWeek
		}
		desc := fmt.Sprintf("every %d week(s) on %s", every(cfg), strings.Join(Weekdays(mask), ", "))
		return withStartTime(desc, cfg)

	case models.RecurrenceMonthly:
		return describeMonthly(cfg)

	default:
		return "custom schedule"
	}
}

func describeMonthly(cfg *models.RecurrenceConfig) string {
	if cfg == nil {
		return "custom schedule"
	}

	var desc string
	switch {
	case cfg.Day > 0:
		desc = fmt.Sprintf("day %d every %d month(s)", cfg.Day, every(cfg))
	case cfg.DayOfWeek > 0:
		desc = fmt.Sprintf("%s week - %s of every month",
			WeekOrdinal(cfg.Every), strings.Join(Weekdays(cfg.DayOfWeek), ", "))
	default:
		return "custom schedule"
	}

	if cfg.Month > 0 && cfg.Month != AllMonths {
		desc += " in " + strings.Join(Months(cfg.Month), ", ")
	}
	return withStartTime(desc, cfg)
}

// PreviewLines builds the exact technical breakdown rendered in the
// confirmation card for a routine schedule.
func PreviewLines(recurrenceType string, cfg *models.RecurrenceConfig) []string {
	if cfg == nil {
		return nil
	}

	var lines []string
	switch recurrenceType {
	case models.RecurrenceDaily:
		lines = append(lines, fmt.Sprintf("Every: %d day(s)", every(cfg)))

	case models.RecurrenceWeekly:
		lines = append(lines,
			fmt.Sprintf("Days: %s (bitmask: %d)", strings.Join(Weekdays(cfg.DayOfWeek), ", "), cfg.DayOfWeek),
			fmt.Sprintf("Every: %d week(s)", every(cfg)),
		)

	case models.RecurrenceMonthly:
		if cfg.Day > 0 {
			lines = append(lines, fmt.Sprintf("Day of month: %d", cfg.Day))
		} else if cfg.DayOfWeek > 0 {
			lines = append(lines,
				fmt.Sprintf("Days: %s (bitmask: %d)", strings.Join(Weekdays(cfg.DayOfWeek), ", "), cfg.DayOfWeek),
				fmt.Sprintf("Week: %s", WeekOrdinal(cfg.Every)),
			)
		}
		if cfg.Month > 0 {
			if cfg.Month == AllMonths {
				lines = append(lines, "Months: every month")
			} else {
				lines = append(lines, fmt.Sprintf("Months: %s (bitmask: %d)",
					strings.Join(Months(cfg.Month), ", "), cfg.Month))
			}
		}

	default:
		return nil
	}

	if cfg.StartTime > 0 {
		lines = append(lines, fmt.Sprintf("Start time: %s (%ds)", ClockTime(cfg.StartTime), cfg.StartTime))
	}
	if cfg.Duration > 0 {
		lines = append(lines, fmt.Sprintf("Duration: %s (%ds)", Duration(cfg.Duration), cfg.Duration))
	}
	return lines
}
