package provider

import (
	"errors"
	"time"
)

// Failure taxonomy shared by all providers. Collectors match these with
// errors.Is; every one of them degrades to cached or synthetic data and
// never crosses the collector boundary.
var (
	// ErrUnconfigured means a required credential is missing. Treated
	// like a transient failure by collectors, logged once at startup.
	ErrUnconfigured = errors.New("provider not configured")
	// ErrRateLimited means the upstream rejected the call for quota.
	ErrRateLimited = errors.New("provider rate limited")
	// ErrUnavailable covers transport failures and non-2xx responses.
	ErrUnavailable = errors.New("provider unavailable")
)

type FearGreedPoint struct {
	Value          int
	Classification string
	Timestamp      time.Time
}

// RepoInfo is the repository-level slice of GitHub data the developer
// activity collector needs.
type RepoInfo struct {
	Stars    int
	LastPush time.Time
}
