package pipeline

import (
	"fmt"
	"time"
)

// Source systems deliver timestamps in four fixed-width layouts. The
// warehouse stores the converted text form; which layout applies is
// decided purely by input length.
//
//	 8 chars  YYYYMMDD              -> YYYY-MM-DD
//	12 chars  YYYYMMDDHHMM          -> YYYY-MM-DD HH:MM
//	14 chars  YYYYMMDDHHMMSS        -> YYYY-MM-DD HH:MM:SS
//	19 chars  DD.MM.YYYY HH:MM:SS   -> YYYY-MM-DD HH:MM:SS
//	          (falls back to an already ISO-formatted input)
//
// The 12-char form carries a quirk of one exporting system: hour "24"
// means end of day and is rewritten to 23:59 before parsing.
func ConvertDate(date string) (string, error) {
	switch len(date) {
	case 8:
		t, err := time.Parse("20060102", date)
		if err != nil {
			return "", fmt.Errorf("convert date %q: %w", date, err)
		}
		return t.Format("2006-01-02"), nil
	case 12:
		if date[8:10] == "24" {
			date = date[:8] + "2359"
		}
		t, err := time.Parse("200601021504", date)
		if err != nil {
			return "", fmt.Errorf("convert date %q: %w", date, err)
		}
		return t.Format("2006-01-02 15:04"), nil
	case 14:
		t, err := time.Parse("20060102150405", date)
		if err != nil {
			return "", fmt.Errorf("convert date %q: %w", date, err)
		}
		return t.Format("2006-01-02 15:04:05"), nil
	case 19:
		t, err := time.Parse("02.01.2006 15:04:05", date)
		if err != nil {
			t, err = time.Parse("2006-01-02 15:04:05", date)
			if err != nil {
				return "", fmt.Errorf("convert date %q: %w", date, err)
			}
		}
		return t.Format("2006-01-02 15:04:05"), nil
	default:
		return "", fmt.Errorf("convert date %q: unsupported length %d", date, len(date))
	}
}
