package tools

import "time"

func day(t time.Time) string {
	return t.Format("Jan 2, 2006")
}

func moment(t time.Time) string {
	if t.Hour() == 0 && t.Minute() == 0 {
		return day(t)
	}
	return t.Format("Jan 2, 2006 15:04")
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
