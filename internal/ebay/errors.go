package ebay

import "errors"

var (
	// ErrMissingCredentials means the app or cert id is not configured.
	ErrMissingCredentials = errors.New("ebay credentials not configured")

	// ErrInvalidCredentials means the token endpoint rejected the credentials.
	ErrInvalidCredentials = errors.New("ebay credentials rejected")

	// ErrRateLimited is returned for HTTP 429 and 403 responses. Callers
	// back off and retry later.
	ErrRateLimited = errors.New("ebay rate limited")

	// ErrUpstream covers every other failed call: non-2xx statuses, network
	// failures and undecodable bodies.
	ErrUpstream = errors.New("ebay upstream error")

	// ErrDailyLimitReached is returned when the daily API call limit has been exhausted.
	ErrDailyLimitReached = errors.New("daily API limit reached")
)

// IsConfigError reports whether err is a configuration problem that retrying
// cannot fix.
func IsConfigError(err error) bool {
	return errors.Is(err, ErrMissingCredentials) || errors.Is(err, ErrInvalidCredentials)
}

// errorKind labels an error for metrics.
func errorKind(err error) string {
	switch {
	case errors.Is(err, ErrRateLimited):
		return "rate_limited"
	case errors.Is(err, ErrDailyLimitReached):
		return "daily_limit"
	case IsConfigError(err):
		return "config"
	default:
		return "upstream"
	}
}
