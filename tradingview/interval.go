package tradingview

import "fmt"

// Interval is the duration of a candle, in the server's notation.
type Interval string

const (
	Minute1  Interval = "1"
	Minute3  Interval = "3"
	Minute5  Interval = "5"
	Minute15 Interval = "15"
	Minute30 Interval = "30"
	Minute45 Interval = "45"
	Hour1    Interval = "1H"
	Hour2    Interval = "2H"
	Hour3    Interval = "3H"
	Hour4    Interval = "4H"
	Daily    Interval = "1D"
	Weekly   Interval = "1W"
	Monthly  Interval = "1M"
)

// Intervals lists all valid intervals, shortest first.
var Intervals = []Interval{Minute1, Minute3, Minute5, Minute15, Minute30, Minute45, Hour1, Hour2, Hour3, Hour4, Daily, Weekly, Monthly}

// ParseInterval returns the interval named s.
func ParseInterval(s string) (Interval, error) {
	for _, i := range Intervals {
		if string(i) == s {
			return i, nil
		}
	}
	return "", fmt.Errorf("tradingview: unknown interval %q", s)
}
