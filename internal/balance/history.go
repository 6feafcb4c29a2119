package balance

import "time"

// DailyBalance is a wallet's last recorded balance on a UTC day.
type DailyBalance struct {
	Day time.Time `json:"day"`
	WalletBalance
}

// Day truncates t to its UTC calendar day.
func Day(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
