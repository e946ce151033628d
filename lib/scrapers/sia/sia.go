// Package sia holds the types shared by the three scrapers of the
// university's legacy academic registry: the browser-driven form
// navigator and the two versioned JSON endpoints.
package sia

import (
	"errors"
	"fmt"

	"courseatlas-backend/lib/catalog"
)

// ErrUpstreamUnreachable means the registry could not be reached over
// the network. This is an expected steady-state condition under proxy
// churn: callers log it at debug level and return "no result", they do
// not surface it as a failure.
var ErrUpstreamUnreachable = errors.New("registry unreachable")

// ResolutionFailedError means a level/place/faculty/program could not be
// mapped onto a source's own vocabulary. Always logged and propagated:
// it signals bad input or an upstream layout change.
type ResolutionFailedError struct {
	What  string
	Label string
}

func (e ResolutionFailedError) Error() string {
	return fmt.Sprintf("could not resolve %s %q", e.What, e.Label)
}

// Filter is the already-validated search request handed down by the
// calling layer. Zero values mean "not filtered on".
type Filter struct {
	Level    catalog.Level
	Place    catalog.Place
	Faculty  string
	Program  string
	Typology catalog.Typology
	Code     string
	Name     string
}
