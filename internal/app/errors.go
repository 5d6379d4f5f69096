package app

import (
	"fmt"
	"time"
)

// InvalidRangeError reports a discovery request whose start is not strictly
// before its end.
type InvalidRangeError struct {
	From time.Time
	To   time.Time
}

func (e *InvalidRangeError) Error() string {
	return fmt.Sprintf("invalid range: start %s is not before end %s",
		e.From.Format(time.RFC3339), e.To.Format(time.RFC3339))
}
