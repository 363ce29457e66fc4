package netclock

import (
	"context"
	"time"

	"github.com/beevik/ntp"

	"envpanel-go/errcode"
)

const defaultQueryTimeout = 5 * time.Second

// QueryFunc matches ntp.QueryWithOptions.
type QueryFunc func(host string, opt ntp.QueryOptions) (*ntp.Response, error)

// NTPSource reads network time from one server.
type NTPSource struct {
	Server string
	Query  QueryFunc
	Local  func() time.Time // local clock the offset corrects
}

func NewNTPSource(server string) *NTPSource {
	return &NTPSource{Server: server, Query: ntp.QueryWithOptions, Local: time.Now}
}

// Now returns the corrected current time. The query timeout follows the
// ctx deadline.
func (s *NTPSource) Now(ctx context.Context) (time.Time, error) {
	if err := ctx.Err(); err != nil {
		return time.Time{}, err
	}
	timeout := defaultQueryTimeout
	if dl, ok := ctx.Deadline(); ok {
		timeout = time.Until(dl)
		if timeout <= 0 {
			return time.Time{}, errcode.Timeout
		}
	}

	resp, err := s.Query(s.Server, ntp.QueryOptions{Timeout: timeout})
	if err != nil {
		return time.Time{}, errcode.Wrap(errcode.NoTimeResponse, "ntp.query", err)
	}
	if err := resp.Validate(); err != nil {
		return time.Time{}, errcode.Wrap(errcode.NoTimeResponse, "ntp.validate", err)
	}
	local := s.Local
	if local == nil {
		local = time.Now
	}
	return local().Add(resp.ClockOffset), nil
}
