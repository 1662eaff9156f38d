package membership

import "time"

const dateLayout = "2006-01-02"

// ToDate returns the UTC calendar date of t as YYYY-MM-DD.
func ToDate(t time.Time) string {
	return t.UTC().Format(dateLayout)
}

// EarlierDateTime returns the earlier of two optional timestamps. A nil
// argument is ignored; nil is returned only when both are nil.
func EarlierDateTime(first, second *time.Time) *time.Time {
	switch {
	case first == nil:
		return second
	case second == nil:
		return first
	case second.Before(*first):
		return second
	default:
		return first
	}
}
