package browser

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"
)

// Options configures the headless Chrome launcher.
type Options struct {
	// ExecPath points at a system Chrome/Chromium binary. Empty uses
	// chromedp's default lookup.
	ExecPath string
	// NavTimeout bounds a single Navigate call.
	NavTimeout time.Duration
	// CallTimeout bounds Evaluate/SetCookie/Location calls.
	CallTimeout time.Duration
}

// ChromeLauncher launches headless Chrome sessions via chromedp.
type ChromeLauncher struct {
	opts Options
}

// NewChromeLauncher returns a launcher with the given options. Zero timeouts
// fall back to 120s navigation and 30s per call.
func NewChromeLauncher(opts Options) *ChromeLauncher {
	if opts.NavTimeout <= 0 {
		opts.NavTimeout = 120 * time.Second
	}
	if opts.CallTimeout <= 0 {
		opts.CallTimeout = 30 * time.Second
	}
	return &ChromeLauncher{opts: opts}
}

// NewSession spawns a fresh browser. The session must be closed by the
// caller; Close tears down the whole Chrome process tree.
func (l *ChromeLauncher) NewSession(ctx context.Context) (Session, error) {
	allocOpts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-setuid-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.WindowSize(1280, 900),
	)
	if l.opts.ExecPath != "" {
		allocOpts = append(allocOpts, chromedp.ExecPath(l.opts.ExecPath))
		log.Printf("[browser] using system chromium: %s", l.opts.ExecPath)
	}

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, allocOpts...)
	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx)

	// Start the browser and enable the network domain up front so cookie
	// operations work before the first navigation.
	if err := chromedp.Run(browserCtx, network.Enable()); err != nil {
		cancelBrowser()
		cancelAlloc()
		return nil, fmt.Errorf("failed to launch browser: %w", err)
	}

	return &chromeSession{
		ctx:         browserCtx,
		cancels:     []context.CancelFunc{cancelBrowser, cancelAlloc},
		navTimeout:  l.opts.NavTimeout,
		callTimeout: l.opts.CallTimeout,
	}, nil
}

type chromeSession struct {
	ctx         context.Context
	cancels     []context.CancelFunc
	navTimeout  time.Duration
	callTimeout time.Duration
}

func (s *chromeSession) Navigate(ctx context.Context, url string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	runCtx, cancel := context.WithTimeout(s.ctx, s.navTimeout)
	defer cancel()

	err := chromedp.Run(runCtx,
		chromedp.Navigate(url),
		chromedp.WaitReady("body"),
	)
	if err != nil {
		return fmt.Errorf("navigation to %s failed: %w", url, err)
	}
	return nil
}

func (s *chromeSession) Evaluate(ctx context.Context, js string, out any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	runCtx, cancel := context.WithTimeout(s.ctx, s.callTimeout)
	defer cancel()

	if out == nil {
		// chromedp rejects a nil result pointer; discard explicitly.
		var discard any
		out = &discard
	}
	if err := chromedp.Run(runCtx, chromedp.Evaluate(js, out)); err != nil {
		return fmt.Errorf("evaluate failed: %w", err)
	}
	return nil
}

func (s *chromeSession) SetCookie(ctx context.Context, c Cookie) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	runCtx, cancel := context.WithTimeout(s.ctx, s.callTimeout)
	defer cancel()

	return chromedp.Run(runCtx, chromedp.ActionFunc(func(ctx context.Context) error {
		param := network.SetCookie(c.Name, c.Value).
			WithDomain(strings.TrimPrefix(c.Domain, ".")).
			WithPath(c.Path).
			WithSecure(c.Secure).
			WithHTTPOnly(c.HTTPOnly)

		if c.Expires > 0 {
			exp := time.Unix(int64(c.Expires), 0)
			if exp.After(time.Now()) {
				ts := cdp.TimeSinceEpoch(exp)
				param = param.WithExpires(&ts)
			}
		}
		switch strings.ToLower(c.SameSite) {
		case "strict":
			param = param.WithSameSite(network.CookieSameSiteStrict)
		case "lax":
			param = param.WithSameSite(network.CookieSameSiteLax)
		case "none":
			param = param.WithSameSite(network.CookieSameSiteNone)
		}

		return param.Do(ctx)
	}))
}

func (s *chromeSession) Location(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	runCtx, cancel := context.WithTimeout(s.ctx, s.callTimeout)
	defer cancel()

	var url string
	if err := chromedp.Run(runCtx, chromedp.Location(&url)); err != nil {
		return "", fmt.Errorf("location failed: %w", err)
	}
	return url, nil
}

func (s *chromeSession) Close() {
	for _, cancel := range s.cancels {
		cancel()
	}
}
