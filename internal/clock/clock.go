// Package clock provides an injectable time source and an IST
// timestamp formatter. The logger package does not use it; it formats
// its own timestamps.
package clock

import "time"

var ist = time.FixedZone("IST", 5*3600+30*60)

// Clock is an injectable time source. Real wraps time.Now; Fixed
// always reports the same instant.
type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

// Real returns the wall-clock Clock used outside of tests.
func Real() Clock { return realClock{} }

// Fixed returns a Clock that always reports t, for tests.
func Fixed(t time.Time) Clock { return fixedClock{t} }

type fixedClock struct{ t time.Time }

func (f fixedClock) Now() time.Time { return f.t }

const LogTimeFormat = "2006-01-02 15:04:05.000"

// FormatIST renders t in the Indian Standard Time zone using
// LogTimeFormat (§6).
func FormatIST(t time.Time) string {
	return t.In(ist).Format(LogTimeFormat)
}
