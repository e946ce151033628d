package browser

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"
)

// blocked static asset patterns, scraping never needs them
var blockedAssets = []string{
	"*.png", "*.jpg", "*.jpeg", "*.gif", "*.svg", "*.ico",
	"*.woff", "*.woff2", "*.ttf", "*.otf",
}

type ChromeOptions struct {
	// outbound proxy address (host:port), empty for a direct session
	Proxy string
	// per-operation timeout, defaults to 30s
	OpTimeout time.Duration
	// skip the static asset block list (debugging)
	LoadAssets bool
}

// Chrome drives a headless Chrome process through chromedp. One Chrome
// per scrape session; sessions never share a browser.
type Chrome struct {
	ctx       context.Context
	opTimeout time.Duration
	cancels   []context.CancelFunc
}

var _ Driver = (*Chrome)(nil)

func NewChrome(ctx context.Context, opts ChromeOptions) (*Chrome, error) {
	if opts.OpTimeout == 0 {
		opts.OpTimeout = time.Second * 30
	}

	allocOpts := chromedp.DefaultExecAllocatorOptions[:]
	if opts.Proxy != "" {
		allocOpts = append(allocOpts, chromedp.ProxyServer(fmt.Sprintf("http://%s", opts.Proxy)))
	}

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, allocOpts...)
	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx)

	c := &Chrome{
		ctx:       browserCtx,
		opTimeout: opts.OpTimeout,
		cancels:   []context.CancelFunc{cancelBrowser, cancelAlloc},
	}

	if !opts.LoadAssets {
		err := chromedp.Run(browserCtx,
			network.Enable(),
			network.SetBlockedURLS(blockedAssets),
		)
		if err != nil {
			c.Close()
			return nil, fmt.Errorf("failed to set up asset blocking: %w", err)
		}
	}

	return c, nil
}

// run executes actions under both the session context and the caller's
// context, bounded by the per-op timeout.
func (c *Chrome) run(ctx context.Context, actions ...chromedp.Action) error {
	opCtx, cancel := context.WithTimeout(c.ctx, c.opTimeout)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		done <- chromedp.Run(opCtx, actions...)
	}()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		cancel()
		return ctx.Err()
	}
}

func (c *Chrome) Goto(ctx context.Context, url string) error {
	return c.run(ctx, chromedp.Navigate(url))
}

func (c *Chrome) Click(ctx context.Context, selector string) error {
	return c.run(ctx, chromedp.Click(selector, chromedp.ByQuery))
}

func (c *Chrome) SelectByLabel(ctx context.Context, selector, label string) error {
	// match by visible text: values rotate, labels do not
	script := fmt.Sprintf(`(() => {
		const select = document.querySelector(%s);
		if (!select) return "missing";
		const target = %s.trim();
		for (const option of select.options) {
			if (option.label.trim() === target || option.text.trim() === target) {
				select.value = option.value;
				select.dispatchEvent(new Event("change", { bubbles: true }));
				return "ok";
			}
		}
		return "nomatch";
	})()`, strconv.Quote(selector), strconv.Quote(label))

	var result string
	err := c.run(ctx, chromedp.Evaluate(script, &result))
	if err != nil {
		return err
	}
	switch result {
	case "ok":
		return nil
	case "missing":
		return fmt.Errorf("select %q not found", selector)
	default:
		return NoMatchingOptionError{Selector: selector, Label: label}
	}
}

func (c *Chrome) WaitForSelector(ctx context.Context, selector string) error {
	return c.run(ctx, chromedp.WaitVisible(selector, chromedp.ByQuery))
}

func (c *Chrome) Options(ctx context.Context, selector string) ([]Option, error) {
	script := fmt.Sprintf(`(() => {
		const select = document.querySelector(%s);
		if (!select) return [];
		return Array.from(select.options).map(o => ({
			label: (o.label || o.text).trim(),
			value: o.value,
		}));
	})()`, strconv.Quote(selector))

	var raw []struct {
		Label string `json:"label"`
		Value string `json:"value"`
	}
	err := c.run(ctx, chromedp.Evaluate(script, &raw))
	if err != nil {
		return nil, err
	}

	out := make([]Option, len(raw))
	for i, o := range raw {
		out[i] = Option{Label: o.Label, Value: o.Value}
	}
	return out, nil
}

func (c *Chrome) InnerHTML(ctx context.Context, selector string) (string, error) {
	var html string
	err := c.run(ctx, chromedp.InnerHTML(selector, &html, chromedp.ByQuery))
	return html, err
}

func (c *Chrome) Close() error {
	for _, cancel := range c.cancels {
		cancel()
	}
	return nil
}
