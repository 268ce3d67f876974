package logic

import "fmt"

const (
	secondsPerMinute = 60
	secondsPerHour   = 3600
	secondsPerDay    = 86400
)

// Format renders elapsed seconds. Without rollover the hours field grows
// past 24; with rollover whole days move to a separate label that is only
// shown when there is at least one.
func Format(elapsed int64, rollover bool) Display {
	if elapsed < 0 {
		elapsed = 0
	}

	var d Display

	rest := elapsed
	if rollover {
		d.Days = rest / secondsPerDay
		rest %= secondsPerDay

		if d.Days > 0 {
			d.ShowDays = true
			d.DaysLabel = DaysLabel(d.Days)
		}
	}

	hours := rest / secondsPerHour
	minutes := rest % secondsPerHour / secondsPerMinute
	seconds := rest % secondsPerMinute
	d.Time = fmt.Sprintf("%02d:%02d:%02d", hours, minutes, seconds)

	return d
}

// DaysLabel returns "1 day" or "N days".
func DaysLabel(days int64) string {
	if days == 1 {
		return "1 day"
	}

	return fmt.Sprintf("%d days", days)
}
