package browse

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"
)

const userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) " +
	"AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

// Asset types aborted in every session to cut page-load latency.
var blockedURLs = []string{
	"*.png", "*.jpg", "*.jpeg", "*.gif", "*.webp", "*.svg",
	"*.woff", "*.woff2", "*.mp4", "*.mp3",
}

// Selectors tried, in order, to dismiss a consent interstitial.
var consentSelectors = []string{
	"button[aria-label*='Accept']",
	"button[aria-label*='agree']",
	"button[aria-label*='Αποδοχή']",
	"button[jsname='b3VHJd']",
}

type chromeBrowser struct {
	browserCtx    context.Context
	browserCancel context.CancelFunc
	allocCancel   context.CancelFunc
}

// Launch starts a headless Chrome and verifies it is reachable. The
// returned Browser shares one exec allocator; each session is a tab.
func Launch(ctx context.Context, headless bool) (Browser, error) {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.DisableGPU,
		chromedp.NoSandbox,
		chromedp.UserAgent(userAgent),
		chromedp.Flag("headless", headless),
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
		chromedp.Flag("disable-notifications", true),
		chromedp.Flag("disable-popup-blocking", true),
		chromedp.Flag("disable-dev-shm-usage", true),
	)

	allocCtx, allocCancel := chromedp.NewExecAllocator(ctx, opts...)
	browserCtx, browserCancel := chromedp.NewContext(allocCtx)

	// Starts the browser process; this is the fatal check for a run.
	if err := chromedp.Run(browserCtx); err != nil {
		browserCancel()
		allocCancel()
		return nil, fmt.Errorf("launch browser: %w", err)
	}

	return &chromeBrowser{
		browserCtx:    browserCtx,
		browserCancel: browserCancel,
		allocCancel:   allocCancel,
	}, nil
}

func (b *chromeBrowser) NewSession(ctx context.Context) (Session, error) {
	tabCtx, cancel := chromedp.NewContext(b.browserCtx)
	s := &chromeSession{ctx: tabCtx, cancel: cancel}

	if err := s.run(ctx,
		network.Enable(),
		network.SetBlockedURLS(blockedURLs),
	); err != nil {
		cancel()
		return nil, fmt.Errorf("open tab: %w", err)
	}
	return s, nil
}

func (b *chromeBrowser) Close() error {
	b.browserCancel()
	b.allocCancel()
	return nil
}

type chromeSession struct {
	ctx    context.Context
	cancel context.CancelFunc
}

// run executes actions on the tab context while honoring the caller's
// deadline and cancellation.
func (s *chromeSession) run(ctx context.Context, actions ...chromedp.Action) error {
	runCtx, cancel := context.WithCancel(s.ctx)
	defer cancel()
	if d, ok := ctx.Deadline(); ok {
		var dc context.CancelFunc
		runCtx, dc = context.WithDeadline(runCtx, d)
		defer dc()
	}
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	if err := chromedp.Run(runCtx, actions...); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return err
	}
	return nil
}

func (s *chromeSession) Navigate(ctx context.Context, url string) error {
	err := s.run(ctx,
		chromedp.Navigate(url),
		chromedp.WaitReady("body", chromedp.ByQuery),
	)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrNavigation, url, err)
	}
	return nil
}

func (s *chromeSession) Location(ctx context.Context) (string, error) {
	var u string
	if err := s.run(ctx, chromedp.Location(&u)); err != nil {
		return "", err
	}
	return u, nil
}

func (s *chromeSession) Text(ctx context.Context, selector string) (string, error) {
	sel, _ := json.Marshal(selector)
	js := fmt.Sprintf(`(() => {
		const el = document.querySelector(%s);
		return el ? el.innerText : '';
	})()`, sel)

	var out string
	if err := s.run(ctx, chromedp.Evaluate(js, &out)); err != nil {
		return "", err
	}
	return out, nil
}

func (s *chromeSession) Elements(ctx context.Context, selector string) ([]Element, error) {
	sel, _ := json.Marshal(selector)
	js := fmt.Sprintf(`Array.from(document.querySelectorAll(%s)).map(el => ({
		text: el.innerText || '',
		href: el.href || el.getAttribute('href') || '',
	}))`, sel)

	var out []Element
	if err := s.run(ctx, chromedp.Evaluate(js, &out)); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *chromeSession) HTML(ctx context.Context) (string, error) {
	var html string
	if err := s.run(ctx, chromedp.OuterHTML("html", &html, chromedp.ByQuery)); err != nil {
		return "", err
	}
	return html, nil
}

func (s *chromeSession) ScrollToBottom(ctx context.Context) error {
	// The result feed scrolls inside its own panel; fall back to the
	// window for ordinary pages.
	const js = `(() => {
		const feed = document.querySelector("div[role='feed']");
		if (feed) {
			feed.scrollTop = feed.scrollHeight;
		} else {
			window.scrollTo(0, document.body.scrollHeight);
		}
		return true;
	})()`

	var ok bool
	return s.run(ctx, chromedp.Evaluate(js, &ok))
}

func (s *chromeSession) DismissConsent(ctx context.Context) error {
	for _, selector := range consentSelectors {
		sel, _ := json.Marshal(selector)
		js := fmt.Sprintf(`(() => {
			const btn = document.querySelector(%s);
			if (btn) { btn.click(); return true; }
			return false;
		})()`, sel)

		var clicked bool
		if err := s.run(ctx, chromedp.Evaluate(js, &clicked)); err != nil {
			return err
		}
		if clicked {
			return nil
		}
	}
	return nil
}

func (s *chromeSession) Close() error {
	s.cancel()
	return nil
}
