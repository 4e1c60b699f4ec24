package scraper

import (
	"context"
	"fmt"
	"log"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/daniel/group-extractor/internal/browser"
	"github.com/daniel/group-extractor/internal/events"
)

// Params describes one extraction run.
type Params struct {
	TargetURL   string
	ScrollLimit int
	Cookies     []browser.Cookie
}

// Config carries the engine's tunables. The defaults mirror the behavior the
// loop was tuned with; override them through the service configuration.
type Config struct {
	NavRetries     int           // navigation attempts before giving up
	NavBackoff     time.Duration // delay between navigation attempts
	PostNavSettle  time.Duration // wait after landing before the login check
	ScrollSettle   time.Duration // wait after each scroll
	ExpandSettle   time.Duration // wait after clicking expand buttons
	MaxNumbers     int           // stop early once this many values were found
	FingerprintLen int           // characters of block text used for dedup
}

// DefaultConfig returns the stock tunables.
func DefaultConfig() Config {
	return Config{
		NavRetries:     3,
		NavBackoff:     3 * time.Second,
		PostNavSettle:  3 * time.Second,
		ScrollSettle:   2500 * time.Millisecond,
		ExpandSettle:   1500 * time.Millisecond,
		MaxNumbers:     800,
		FingerprintLen: 200,
	}
}

// Engine runs the scroll/extract/dedup loop for one job at a time. It holds
// no per-run state; Run is safe to call concurrently for independent jobs.
type Engine struct {
	launcher browser.Launcher
	cfg      Config
}

// NewEngine wires an engine over a session launcher. Zero-valued config
// fields are filled from DefaultConfig.
func NewEngine(launcher browser.Launcher, cfg Config) *Engine {
	def := DefaultConfig()
	if cfg.NavRetries <= 0 {
		cfg.NavRetries = def.NavRetries
	}
	if cfg.NavBackoff <= 0 {
		cfg.NavBackoff = def.NavBackoff
	}
	if cfg.PostNavSettle <= 0 {
		cfg.PostNavSettle = def.PostNavSettle
	}
	if cfg.ScrollSettle <= 0 {
		cfg.ScrollSettle = def.ScrollSettle
	}
	if cfg.ExpandSettle <= 0 {
		cfg.ExpandSettle = def.ExpandSettle
	}
	if cfg.MaxNumbers <= 0 {
		cfg.MaxNumbers = def.MaxNumbers
	}
	if cfg.FingerprintLen <= 0 {
		cfg.FingerprintLen = def.FingerprintLen
	}
	return &Engine{launcher: launcher, cfg: cfg}
}

// Block is one content block pulled from the rendered page.
type Block struct {
	Text string `json:"text"`
	HTML string `json:"html"`
}

// runState is the per-run extraction state. It is owned exclusively by the
// loop and never shared.
type runState struct {
	seenBlocks map[string]struct{}
	seenPhones map[string]struct{}
	rows       []Row
	total      int
}

// Run executes one extraction against the target, publishing log and
// progress events on bus, and returns the accumulated artifact. All engine
// errors come back normalized; the rendering session is released regardless
// of outcome.
func (e *Engine) Run(ctx context.Context, p Params, bus *events.Bus) (*Artifact, error) {
	logf := func(format string, args ...any) {
		msg := fmt.Sprintf(format, args...)
		log.Printf("[scraper] %s", msg)
		bus.Publish(events.Log(msg))
	}

	logf("Launching browser...")
	session, err := e.launcher.NewSession(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to acquire rendering session: %w", err)
	}
	defer func() {
		session.Close()
		logf("Browser closed.")
	}()

	if err := e.applyCookies(ctx, session, p, logf); err != nil {
		return nil, err
	}

	logf("Opening target: %s", p.TargetURL)
	if err := e.navigateWithRetry(ctx, session, p.TargetURL); err != nil {
		return nil, err
	}
	if err := sleepCtx(ctx, e.cfg.PostNavSettle); err != nil {
		return nil, err
	}
	if err := e.verifyLogin(ctx, session); err != nil {
		return nil, err
	}

	state := &runState{
		seenBlocks: make(map[string]struct{}),
		seenPhones: make(map[string]struct{}),
	}

	logf("Scrolling %d times...", p.ScrollLimit)
	for i := 1; i <= p.ScrollLimit; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		if err := session.Evaluate(ctx, scrollScript, nil); err != nil {
			return nil, fmt.Errorf("scroll failed: %w", err)
		}
		if err := sleepCtx(ctx, e.cfg.ScrollSettle); err != nil {
			return nil, err
		}
		if err := session.Evaluate(ctx, expandScript, nil); err != nil {
			return nil, fmt.Errorf("expand failed: %w", err)
		}
		if err := sleepCtx(ctx, e.cfg.ExpandSettle); err != nil {
			return nil, err
		}

		var blocks []Block
		if err := session.Evaluate(ctx, collectScript, &blocks); err != nil {
			return nil, fmt.Errorf("content collection failed: %w", err)
		}

		e.ingest(state, blocks)

		bus.Publish(events.Progress(i, p.ScrollLimit, len(state.rows), state.total))
		logf("Scroll %d/%d — %d posts, %d total numbers.", i, p.ScrollLimit, len(state.rows), state.total)

		if state.total >= e.cfg.MaxNumbers {
			logf("Enough numbers found, stopping early.")
			break
		}
	}

	art, err := buildArtifact(state.rows, time.Now())
	if err != nil {
		return nil, err
	}
	logf("Finished: %d unique posts, %d phone numbers.", len(state.rows), state.total)
	return art, nil
}

// ingest folds one iteration's blocks into the run state: fingerprint dedup,
// value extraction, cross-iteration value dedup, row accumulation.
func (e *Engine) ingest(state *runState, blocks []Block) {
	for _, b := range blocks {
		fp := fingerprint(b.Text, e.cfg.FingerprintLen)
		if _, seen := state.seenBlocks[fp]; seen {
			continue
		}
		state.seenBlocks[fp] = struct{}{}

		phones := ExtractPhones(b.Text)
		if len(phones) == 0 {
			continue
		}

		var fresh []string
		for _, n := range phones {
			if _, seen := state.seenPhones[n]; seen {
				continue
			}
			state.seenPhones[n] = struct{}{}
			fresh = append(fresh, n)
		}
		if len(fresh) == 0 {
			continue
		}

		state.total += len(fresh)
		state.rows = append(state.rows, Row{
			Author: AuthorLabel(b.HTML, b.Text),
			Phones: strings.Join(fresh, ", "),
		})
	}
}

// applyCookies pushes the caller's session tokens into the browser. A single
// failing token is logged and skipped; only a sweeping failure aborts.
func (e *Engine) applyCookies(ctx context.Context, session browser.Session, p Params, logf func(string, ...any)) error {
	if len(p.Cookies) == 0 {
		return nil
	}
	logf("Applying %d cookies...", len(p.Cookies))

	defaultDomain := ""
	if u, err := url.Parse(p.TargetURL); err == nil {
		defaultDomain = u.Hostname()
	}

	for _, c := range p.Cookies {
		if c.Domain == "" {
			c.Domain = defaultDomain
		}
		if err := session.SetCookie(ctx, c); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			log.Printf("[scraper] failed to set cookie %q: %v", c.Name, err)
		}
	}
	logf("Cookies applied successfully.")
	return nil
}

func (e *Engine) navigateWithRetry(ctx context.Context, session browser.Session, target string) error {
	var last error
	for attempt := 1; attempt <= e.cfg.NavRetries; attempt++ {
		last = session.Navigate(ctx, target)
		if last == nil {
			return nil
		}
		if attempt < e.cfg.NavRetries {
			if err := sleepCtx(ctx, e.cfg.NavBackoff); err != nil {
				return err
			}
		}
	}
	return &NavigationError{URL: target, Attempts: e.cfg.NavRetries, Cause: last}
}

// verifyLogin checks that the session is still authenticated after landing:
// a login/checkpoint URL or login form markers mean the tokens expired.
func (e *Engine) verifyLogin(ctx context.Context, session browser.Session) error {
	loc, err := session.Location(ctx)
	if err != nil {
		return fmt.Errorf("failed to read landing location: %w", err)
	}
	if strings.Contains(loc, "login") || strings.Contains(loc, "checkpoint") {
		return &SessionExpiredError{Location: loc}
	}

	var hasMarkers bool
	if err := session.Evaluate(ctx, loginMarkerScript, &hasMarkers); err != nil {
		return fmt.Errorf("login check failed: %w", err)
	}
	if hasMarkers {
		return &SessionExpiredError{}
	}
	return nil
}

// fingerprint returns the dedup key for a block: the first n characters of
// its text.
func fingerprint(text string, n int) string {
	if utf8.RuneCountInString(text) <= n {
		return text
	}
	runes := []rune(text)
	return string(runes[:n])
}

// sleepCtx pauses for d or until ctx is cancelled, whichever comes first.
// Every suspend point in the loop goes through here so cancellation is
// observed promptly.
func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
