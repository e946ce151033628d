package browser

import (
	"context"
	"fmt"
)

// Option is one <option> of a <select>, as currently rendered. Only the
// label is stable: the registry rotates option values daily.
type Option struct {
	Label string
	Value string
}

// NoMatchingOptionError means a label was absent from a freshly rendered
// option list. This signals either bad input or an upstream layout
// change, never a transient condition.
type NoMatchingOptionError struct {
	Selector string
	Label    string
}

func (e NoMatchingOptionError) Error() string {
	return fmt.Sprintf("no option labeled %q in %q", e.Label, e.Selector)
}

// Driver abstracts the headless browser so the form navigator can be
// tested by state injection without a live Chrome.
type Driver interface {
	Goto(ctx context.Context, url string) error
	Click(ctx context.Context, selector string) error
	// SelectByLabel picks an option by its visible text, returning
	// NoMatchingOptionError when the label is absent.
	SelectByLabel(ctx context.Context, selector, label string) error
	WaitForSelector(ctx context.Context, selector string) error
	// Options returns the currently rendered options of a select.
	Options(ctx context.Context, selector string) ([]Option, error)
	InnerHTML(ctx context.Context, selector string) (string, error)
	// Close releases the page/process. Must be safe to call on every
	// exit path, including after an error.
	Close() error
}
