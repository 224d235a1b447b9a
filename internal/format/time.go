package format

import (
	"math"
	"time"
)

const (
	filetimeOffset = 116444736000000000 // difference between FILETIME epoch and Unix epoch in 100ns units
	filetimeUnit   = 100                // FILETIME units are 100ns
)

// FiletimeToTime converts a Windows FILETIME value (little-endian) to time.Time.
func FiletimeToTime(v uint64) time.Time {
	if v <= filetimeOffset {
		return time.Unix(0, 0).UTC()
	}
	ns := int64((v - filetimeOffset) * filetimeUnit)
	sec := ns / int64(time.Second)
	nsec := ns % int64(time.Second)
	return time.Unix(sec, nsec).UTC()
}

// oleEpoch is the zero point of OLE automation dates: 1899-12-30 00:00 UTC.
var oleEpoch = time.Date(1899, time.December, 30, 0, 0, 0, 0, time.UTC)

// OADateToTime converts an OLE automation date (a float64 counting days since
// 1899-12-30, the encoding of the JET DateTime column type) to time.Time.
// Fractional days before the epoch count forward within the day, matching the
// OLE convention.
func OADateToTime(days float64) time.Time {
	if math.IsNaN(days) || math.IsInf(days, 0) {
		return time.Unix(0, 0).UTC()
	}
	whole := math.Trunc(days)
	frac := math.Abs(days - whole)
	d := time.Duration(whole) * 24 * time.Hour
	d += time.Duration(frac * 24 * float64(time.Hour))
	return oleEpoch.Add(d)
}
