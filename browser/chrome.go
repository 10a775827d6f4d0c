package browser

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"time"

	"github.com/chromedp/chromedp"

	"dentist-scraper/config"
	"dentist-scraper/utils"
)

var _ Driver = (*ChromeDriver)(nil)

// ChromeDriver drives a single headless Chrome tab through chromedp. Element
// handles are re-resolved by path on every call, so a re-rendered DOM shows
// up as ErrStale rather than as a dangling node id.
type ChromeDriver struct {
	tab    context.Context
	cancel context.CancelFunc
	view   View
	retry  *utils.RetryConfig
	logger *utils.Logger
}

// NewChromeDriver starts a Chrome process and opens one tab.
func NewChromeDriver(cfg *config.Config, logger *utils.Logger) (*ChromeDriver, error) {
	chromeBin := findChromeBinary(cfg.ChromeBin)
	logger.Info("[browser] Using browser binary: %s", chromeBin)

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", cfg.Headless),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-setuid-sandbox", true),
		chromedp.WindowSize(1920, 1080),
		chromedp.UserAgent("Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 "+
			"(KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"),
	)
	if chromeBin != "" {
		opts = append(opts, chromedp.ExecPath(chromeBin))
	}

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(context.Background(), opts...)

	// Suppress chromedp log noise
	tab, cancelTab := chromedp.NewContext(allocCtx, chromedp.WithLogf(func(string, ...interface{}) {}))

	if err := chromedp.Run(tab); err != nil {
		cancelTab()
		cancelAlloc()
		return nil, fmt.Errorf("browser: start chrome: %w", err)
	}

	return &ChromeDriver{
		tab: tab,
		cancel: func() {
			cancelTab()
			cancelAlloc()
		},
		retry: &utils.RetryConfig{
			MaxAttempts: cfg.MaxRetries,
			BaseDelay:   2 * time.Second,
			Logger:      logger,
		},
		logger: logger,
	}, nil
}

// Close shuts the tab and the browser process down.
func (d *ChromeDriver) Close() {
	d.cancel()
}

func (d *ChromeDriver) Navigate(ctx context.Context, url string) error {
	err := d.retry.Do(ctx, "navigate", func() error {
		return d.run(ctx, chromedp.Navigate(url))
	})
	d.view++
	if err != nil {
		return err
	}

	var dismissed bool
	if err := d.run(ctx, chromedp.Evaluate(consentScript, &dismissed)); err != nil {
		d.logger.Debug("[browser] consent check failed: %v", err)
	} else if dismissed {
		d.logger.Debug("[browser] consent dialog dismissed")
		d.view++
	}
	return nil
}

func (d *ChromeDriver) Back(ctx context.Context) error {
	d.view++
	return d.run(ctx, chromedp.Evaluate(`window.history.go(-1)`, nil))
}

func (d *ChromeDriver) CurrentURL(ctx context.Context) (string, error) {
	var u string
	if err := d.run(ctx, chromedp.Location(&u)); err != nil {
		return "", err
	}
	return u, nil
}

func (d *ChromeDriver) View() View {
	return d.view
}

func (d *ChromeDriver) WaitFor(ctx context.Context, sel string, timeout time.Duration) (Element, error) {
	waitCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if err := d.run(waitCtx, chromedp.WaitReady(sel, chromedp.ByQuery)); err != nil {
		if errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
			return Element{}, fmt.Errorf("%w: %s after %v", ErrTimeout, sel, timeout)
		}
		return Element{}, err
	}
	return Element{View: d.view}.child(sel, 0), nil
}

func (d *ChromeDriver) Find(ctx context.Context, scope *Element, sel string) (Element, error) {
	base, err := d.base(scope)
	if err != nil {
		return Element{}, err
	}
	n, err := d.Count(ctx, base, sel)
	if err != nil {
		return Element{}, err
	}
	if n == 0 {
		return Element{}, fmt.Errorf("%w: %s", ErrNotFound, sel)
	}
	return base.child(sel, 0), nil
}

func (d *ChromeDriver) FindAll(ctx context.Context, scope *Element, sel string) ([]Element, error) {
	base, err := d.base(scope)
	if err != nil {
		return nil, err
	}
	n, err := d.Count(ctx, base, sel)
	if err != nil {
		return nil, err
	}
	els := make([]Element, 0, n)
	for i := 0; i < n; i++ {
		els = append(els, base.child(sel, i))
	}
	return els, nil
}

func (d *ChromeDriver) Count(ctx context.Context, scope Element, sel string) (int, error) {
	res, err := d.eval(ctx, scope, sel, `return {found: true, count: el.querySelectorAll(arg).length};`)
	if err != nil {
		return 0, err
	}
	return res.Count, nil
}

func (d *ChromeDriver) Text(ctx context.Context, el Element) (string, error) {
	res, err := d.eval(ctx, el, "", `return {found: true, value: (el.innerText || el.textContent || '').trim()};`)
	if err != nil {
		return "", err
	}
	return res.Value, nil
}

func (d *ChromeDriver) Attribute(ctx context.Context, el Element, name string) (string, error) {
	res, err := d.eval(ctx, el, name, `const v = el.getAttribute(arg);
		return v === null ? {found: false} : {found: true, value: v};`)
	if err != nil {
		return "", err
	}
	if !res.Found {
		return "", fmt.Errorf("%w: attribute %s on %s", ErrNotFound, name, el)
	}
	return res.Value, nil
}

func (d *ChromeDriver) HTML(ctx context.Context, el Element) (string, error) {
	res, err := d.eval(ctx, el, "", `const node = el.documentElement || el;
		return {found: true, value: node.outerHTML || ''};`)
	if err != nil {
		return "", err
	}
	return res.Value, nil
}

func (d *ChromeDriver) Click(ctx context.Context, el Element) error {
	if _, err := d.eval(ctx, el, "", `el.click(); return {found: true};`); err != nil {
		return err
	}
	d.view++
	return nil
}

func (d *ChromeDriver) ScrollToBottom(ctx context.Context, el Element) error {
	_, err := d.eval(ctx, el, "", `el.scrollTop = el.scrollHeight; return {found: true};`)
	return err
}

type evalResult struct {
	Stale bool   `json:"stale"`
	Found bool   `json:"found"`
	Value string `json:"value"`
	Count int    `json:"count"`
}

// eval resolves el in the page and runs body with `el` bound to the node and
// `arg` to the given string.
func (d *ChromeDriver) eval(ctx context.Context, el Element, arg, body string) (evalResult, error) {
	if el.View != d.view {
		return evalResult{}, fmt.Errorf("%w: %s (view %d, now %d)", ErrStale, el, el.View, d.view)
	}

	path, err := json.Marshal(el.Path)
	if err != nil {
		return evalResult{}, fmt.Errorf("browser: encode path: %w", err)
	}
	argJSON, err := json.Marshal(arg)
	if err != nil {
		return evalResult{}, fmt.Errorf("browser: encode arg: %w", err)
	}

	script := fmt.Sprintf(resolveScript, string(path), string(argJSON), body)

	var res evalResult
	if err := d.run(ctx, chromedp.Evaluate(script, &res)); err != nil {
		return evalResult{}, err
	}
	if res.Stale {
		return evalResult{}, fmt.Errorf("%w: %s", ErrStale, el)
	}
	return res, nil
}

func (d *ChromeDriver) base(scope *Element) (Element, error) {
	if scope == nil {
		return Element{View: d.view}, nil
	}
	if scope.View != d.view {
		return Element{}, fmt.Errorf("%w: %s (view %d, now %d)", ErrStale, scope, scope.View, d.view)
	}
	return *scope, nil
}

// run executes actions on the tab while honouring ctx's deadline and
// cancellation.
func (d *ChromeDriver) run(ctx context.Context, actions ...chromedp.Action) error {
	runCtx, cancel := context.WithCancel(d.tab)
	defer cancel()
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	if deadline, ok := ctx.Deadline(); ok {
		var cancelDeadline context.CancelFunc
		runCtx, cancelDeadline = context.WithDeadline(runCtx, deadline)
		defer cancelDeadline()
	}
	return chromedp.Run(runCtx, actions...)
}

// findChromeBinary locates Chrome/Chromium binary.
func findChromeBinary(configured string) string {
	if configured != "" {
		return configured
	}
	if bin := os.Getenv("CHROME_BIN"); bin != "" {
		return bin
	}

	names := []string{"google-chrome-stable", "google-chrome", "chromium", "chromium-browser"}
	for _, name := range names {
		if path, err := exec.LookPath(name); err == nil {
			return path
		}
	}

	paths := []string{
		"/usr/bin/google-chrome-stable",
		"/usr/bin/google-chrome",
		"/usr/bin/chromium-browser",
		"/usr/bin/chromium",
		"/snap/bin/chromium",
		"/opt/google/chrome/google-chrome",
	}
	for _, p := range paths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}

	return ""
}

const resolveScript = `(function () {
  const path = %s;
  const arg = %s;
  let el = document;
  for (const step of path) {
    const all = el.querySelectorAll(step.sel);
    if (step.idx >= all.length) {
      return {stale: true};
    }
    el = all[step.idx];
  }
  %s
})()`

const consentScript = `(function () {
  const selectors = [
    'button[aria-label="Accept all"]',
    'button[aria-label="I agree"]',
    'form[action*="consent"] button'
  ];
  for (const sel of selectors) {
    const btn = document.querySelector(sel);
    if (btn) {
      btn.click();
      return true;
    }
  }
  return false;
})()`
