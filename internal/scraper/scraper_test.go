package scraper

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/daniel/group-extractor/internal/browser"
	"github.com/daniel/group-extractor/internal/events"
)

// fakeSession scripts the rendering session: per-attempt navigation errors,
// per-iteration content batches, and canned login-state answers.
type fakeSession struct {
	mu           sync.Mutex
	navErrs      []error
	navCalls     int
	location     string
	loginForm    bool
	batches      [][]Block
	collectCalls int
	onCollect    func(call int)
	cookieErr    map[string]error
	cookies      []browser.Cookie
	closed       bool
}

func (f *fakeSession) Navigate(ctx context.Context, url string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	i := f.navCalls
	f.navCalls++
	if i < len(f.navErrs) {
		return f.navErrs[i]
	}
	return nil
}

func (f *fakeSession) Evaluate(ctx context.Context, js string, out any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	switch js {
	case collectScript:
		call := f.collectCalls
		f.collectCalls++
		if f.onCollect != nil {
			f.onCollect(call)
		}
		var blocks []Block
		if call < len(f.batches) {
			blocks = f.batches[call]
		}
		*(out.(*[]Block)) = blocks
	case loginMarkerScript:
		*(out.(*bool)) = f.loginForm
	}
	return nil
}

func (f *fakeSession) SetCookie(ctx context.Context, c browser.Cookie) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err, ok := f.cookieErr[c.Name]; ok {
		return err
	}
	f.cookies = append(f.cookies, c)
	return nil
}

func (f *fakeSession) Location(ctx context.Context) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.location == "" {
		return "https://example.com/groups/42", nil
	}
	return f.location, nil
}

func (f *fakeSession) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
}

type fakeLauncher struct {
	session *fakeSession
	err     error
}

func (f *fakeLauncher) NewSession(ctx context.Context) (browser.Session, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.session, nil
}

func testEngine(launcher browser.Launcher) *Engine {
	return NewEngine(launcher, Config{
		NavRetries:    3,
		NavBackoff:    time.Millisecond,
		PostNavSettle: time.Millisecond,
		ScrollSettle:  time.Millisecond,
		ExpandSettle:  time.Millisecond,
		MaxNumbers:    800,
	})
}

// drainEvents captures everything published on bus until stop is called.
func drainEvents(bus *events.Bus) (stop func() []events.Event) {
	sub := bus.Subscribe()
	var (
		mu       sync.Mutex
		captured []events.Event
	)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for evt := range sub.C {
			mu.Lock()
			captured = append(captured, evt)
			mu.Unlock()
		}
	}()
	return func() []events.Event {
		sub.Cancel()
		<-done
		mu.Lock()
		defer mu.Unlock()
		return captured
	}
}

func TestRunCollectsAndDeduplicates(t *testing.T) {
	session := &fakeSession{
		batches: [][]Block{
			{
				{Text: "Jane Doe · 2h\ncall +1 (555) 123-4567", HTML: "<div></div>"},
				{Text: "no numbers in this one", HTML: "<div></div>"},
			},
			{
				// repeated block from the previous viewport
				{Text: "Jane Doe · 2h\ncall +1 (555) 123-4567", HTML: "<div></div>"},
				// new block repeating an already-seen value plus a fresh one
				{Text: "Sam Smith · 1h\n+1 (555) 123-4567 or 555.987.6543", HTML: "<div></div>"},
			},
		},
	}
	engine := testEngine(&fakeLauncher{session: session})
	bus := events.NewBus("running")
	collected := drainEvents(bus)

	art, err := engine.Run(context.Background(), Params{
		TargetURL:   "https://example.com/groups/42",
		ScrollLimit: 2,
	}, bus)
	require.NoError(t, err)
	require.NotNil(t, art)
	assert.True(t, session.closed)

	text := string(art.Data)
	assert.Contains(t, text, "postUser,postPhones")
	assert.Contains(t, text, "Jane Doe,+15551234567")
	assert.Contains(t, text, "Sam Smith,5559876543")
	// already-seen value never reappears in a later row
	assert.Equal(t, 1, strings.Count(text, "+15551234567"))

	var progress []events.Event
	for _, evt := range collected() {
		if evt.Type == events.TypeProgress {
			progress = append(progress, evt)
		}
	}
	require.Len(t, progress, 2)
	assert.Equal(t, 1, progress[0].Iteration)
	assert.Equal(t, 2, progress[0].Total)
	assert.Equal(t, 1, progress[0].FoundPosts)
	assert.Equal(t, 1, progress[0].FoundNums)
	assert.Equal(t, 2, progress[1].FoundPosts)
	assert.Equal(t, 2, progress[1].FoundNums)
	// counts never decrease across iterations
	assert.GreaterOrEqual(t, progress[1].FoundPosts, progress[0].FoundPosts)
	assert.GreaterOrEqual(t, progress[1].FoundNums, progress[0].FoundNums)
}

func TestRunStopsEarlyAtCeiling(t *testing.T) {
	session := &fakeSession{
		batches: [][]Block{
			{{Text: "a · 1h\n555 111 2222 and 555 111 3333", HTML: ""}},
			{{Text: "b · 1h\n555 111 4444", HTML: ""}},
			{{Text: "c · 1h\n555 111 5555", HTML: ""}},
		},
	}
	engine := NewEngine(&fakeLauncher{session: session}, Config{
		NavRetries:    1,
		NavBackoff:    time.Millisecond,
		PostNavSettle: time.Millisecond,
		ScrollSettle:  time.Millisecond,
		ExpandSettle:  time.Millisecond,
		MaxNumbers:    3,
	})
	bus := events.NewBus("running")
	collected := drainEvents(bus)

	art, err := engine.Run(context.Background(), Params{
		TargetURL:   "https://example.com/groups/42",
		ScrollLimit: 10,
	}, bus)
	require.NoError(t, err)
	require.NotNil(t, art)

	// the ceiling was crossed on iteration 2; iteration 3 never ran
	assert.Equal(t, 2, session.collectCalls)

	var last events.Event
	for _, evt := range collected() {
		if evt.Type == events.TypeProgress {
			last = evt
		}
	}
	assert.Equal(t, 3, last.FoundNums)
}

func TestRunSessionExpiredByLocation(t *testing.T) {
	session := &fakeSession{location: "https://example.com/login/?next=groups"}
	engine := testEngine(&fakeLauncher{session: session})

	_, err := engine.Run(context.Background(), Params{
		TargetURL:   "https://example.com/groups/42",
		ScrollLimit: 1,
	}, events.NewBus("running"))

	var expired *SessionExpiredError
	require.ErrorAs(t, err, &expired)
	assert.Equal(t, "https://example.com/login/?next=groups", expired.Location)
	assert.True(t, session.closed)
	assert.Equal(t, 0, session.collectCalls)
}

func TestRunSessionExpiredByLoginForm(t *testing.T) {
	session := &fakeSession{loginForm: true}
	engine := testEngine(&fakeLauncher{session: session})

	_, err := engine.Run(context.Background(), Params{
		TargetURL:   "https://example.com/groups/42",
		ScrollLimit: 1,
	}, events.NewBus("running"))

	var expired *SessionExpiredError
	require.ErrorAs(t, err, &expired)
}

func TestRunNavigationRetriesThenSucceeds(t *testing.T) {
	session := &fakeSession{
		navErrs: []error{errors.New("net timeout"), errors.New("net timeout")},
		batches: [][]Block{{{Text: "a · 1h\n555 111 2222", HTML: ""}}},
	}
	engine := testEngine(&fakeLauncher{session: session})

	art, err := engine.Run(context.Background(), Params{
		TargetURL:   "https://example.com/groups/42",
		ScrollLimit: 1,
	}, events.NewBus("running"))
	require.NoError(t, err)
	require.NotNil(t, art)
	assert.Equal(t, 3, session.navCalls)
}

func TestRunNavigationExhausted(t *testing.T) {
	cause := errors.New("net timeout")
	session := &fakeSession{navErrs: []error{cause, cause, cause}}
	engine := testEngine(&fakeLauncher{session: session})

	_, err := engine.Run(context.Background(), Params{
		TargetURL:   "https://example.com/groups/42",
		ScrollLimit: 1,
	}, events.NewBus("running"))

	var navErr *NavigationError
	require.ErrorAs(t, err, &navErr)
	assert.Equal(t, 3, navErr.Attempts)
	assert.ErrorIs(t, err, cause)
	assert.True(t, session.closed)
}

func TestRunLauncherFailure(t *testing.T) {
	engine := testEngine(&fakeLauncher{err: errors.New("no chrome binary")})

	_, err := engine.Run(context.Background(), Params{
		TargetURL:   "https://example.com/groups/42",
		ScrollLimit: 1,
	}, events.NewBus("running"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rendering session")
}

func TestRunCancelledMidLoop(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	session := &fakeSession{
		batches: [][]Block{
			{{Text: "a · 1h\n555 111 2222", HTML: ""}},
			{{Text: "b · 1h\n555 111 3333", HTML: ""}},
		},
	}
	session.onCollect = func(call int) {
		if call == 0 {
			cancel()
		}
	}
	engine := testEngine(&fakeLauncher{session: session})

	_, err := engine.Run(ctx, Params{
		TargetURL:   "https://example.com/groups/42",
		ScrollLimit: 5,
	}, events.NewBus("running"))

	require.ErrorIs(t, err, context.Canceled)
	assert.True(t, session.closed)
	assert.Equal(t, 1, session.collectCalls)
}

func TestRunAppliesCookiesWithDefaultDomain(t *testing.T) {
	session := &fakeSession{
		cookieErr: map[string]error{"broken": errors.New("rejected")},
	}
	engine := testEngine(&fakeLauncher{session: session})

	_, err := engine.Run(context.Background(), Params{
		TargetURL:   "https://example.com/groups/42",
		ScrollLimit: 1,
		Cookies: []browser.Cookie{
			{Name: "c_user", Value: "1"},
			{Name: "broken", Value: "x"},
			{Name: "xs", Value: "2", Domain: ".example.com"},
		},
	}, events.NewBus("running"))
	require.NoError(t, err)

	// the rejected token is skipped, the rest go through
	require.Len(t, session.cookies, 2)
	assert.Equal(t, "example.com", session.cookies[0].Domain)
	assert.Equal(t, ".example.com", session.cookies[1].Domain)
}

func TestFingerprintRuneSafe(t *testing.T) {
	assert.Equal(t, "héllo", fingerprint("héllo", 10))
	assert.Equal(t, "hél", fingerprint("héllo", 3))
}
