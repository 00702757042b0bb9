package reporting

import "time"

const dayFormat = "2006-01-02"

// FillDailySeries expands sparse per-day totals into a dense series with
// exactly one point per calendar day of the range, zero-filled where no
// sales happened.
func FillDailySeries(r DateRange, points []DailyPoint) []DailyPoint {
	byDay := make(map[string]DailyPoint, len(points))
	for _, p := range points {
		byDay[p.Date] = p
	}
	out := make([]DailyPoint, 0, r.Days())
	for d := r.From; !d.After(r.To); d = d.AddDate(0, 0, 1) {
		key := d.Format(dayFormat)
		if p, ok := byDay[key]; ok {
			out = append(out, p)
			continue
		}
		out = append(out, DailyPoint{Date: key})
	}
	return out
}

// DefaultRange is the last n days ending today, in UTC calendar days.
func DefaultRange(now time.Time, days int) DateRange {
	today := now.UTC().Truncate(24 * time.Hour)
	return DateRange{From: today.AddDate(0, 0, -(days - 1)), To: today}
}
