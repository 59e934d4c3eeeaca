// Package scrape drives the booking application in Chromium via chromedp
// and hands each event's detail panel to the caller as assemble.Fragments.
package scrape

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/chromedp/chromedp"

	"roomops/internal/assemble"
	appLog "roomops/internal/log"
)

// Default scrape parameters.
const (
	DefaultNavTimeout   = 30 * time.Second
	DefaultFieldTimeout = 1 * time.Second
	DefaultSettleDelay  = 300 * time.Millisecond
)

// Page selectors of the booking application.
const (
	selUserName       = "#userName"
	selPassword       = "#password"
	selLoginButton    = "#loginButton"
	selLocationColumn = "#locationColumnWrapper"
	selOverlay        = "#ngplus-overlay-container"
	selRoom           = ".roomDesc"
	selHeader         = "h3"
	selTimes          = ".groupDetails > dl"

	eventBarClass = "eventBarText"

	// closeGlyph is the decoded form of the &times; close button label.
	closeGlyph = "\u00d7"
)

// accessTimeJS finds the "Access Time" label and returns the markup of the
// element that follows it.
const accessTimeJS = `(() => {
  const hit = document.evaluate("//*[contains(text(), 'Access Time')]", document, null,
    XPathResult.FIRST_ORDERED_NODE_TYPE, null).singleNodeValue;
  if (!hit) return {found: false, html: ""};
  const next = hit.nextElementSibling || (hit.parentElement && hit.parentElement.nextElementSibling);
  return {found: true, html: next ? next.outerHTML : ""};
})()`

const countEventsJS = `document.querySelectorAll(".` + eventBarClass + `").length`

// Options configures a Scraper.
type Options struct {
	// BaseURL is the booking site root, e.g. "https://www.7pointops.com".
	BaseURL  string
	Username string
	Password string

	// Headless runs Chromium without a window.
	Headless bool

	// NavTimeout bounds login and schedule navigation. FieldTimeout bounds
	// each detail-panel field read; a field that does not appear within it
	// is treated as absent.
	NavTimeout   time.Duration
	FieldTimeout time.Duration

	// SettleDelay is slept after opening a panel before reading it.
	SettleDelay time.Duration
}

// Scraper implements ops.Source against the live booking site.
type Scraper struct {
	opts Options
}

// New returns a Scraper with defaults applied to zero-valued options.
func New(opts Options) *Scraper {
	opts.BaseURL = strings.TrimRight(opts.BaseURL, "/")
	if opts.NavTimeout <= 0 {
		opts.NavTimeout = DefaultNavTimeout
	}
	if opts.FieldTimeout <= 0 {
		opts.FieldTimeout = DefaultFieldTimeout
	}
	if opts.SettleDelay < 0 {
		opts.SettleDelay = 0
	}
	return &Scraper{opts: opts}
}

// Visit logs in, opens the day's schedule and calls fn once per event, in
// on-screen order. Each panel is closed before the next one is opened.
func (s *Scraper) Visit(parentCtx context.Context, fn func(assemble.DetailView)) error {
	if s.opts.BaseURL == "" {
		return errors.New("scrape: BaseURL is required")
	}
	if s.opts.Username == "" || s.opts.Password == "" {
		return errors.New("scrape: credentials are required")
	}

	allocOpts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", s.opts.Headless),
	)
	allocCtx, allocCancel := chromedp.NewExecAllocator(parentCtx, allocOpts...)
	defer allocCancel()

	ctx, cancel := chromedp.NewContext(allocCtx)
	defer cancel()

	if err := s.login(ctx); err != nil {
		return err
	}
	count, err := s.openSchedule(ctx)
	if err != nil {
		return err
	}
	appLog.Info("schedule loaded", "events", count)

	for i := 0; i < count; i++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		frags, err := s.readEvent(ctx, i)
		if err != nil {
			// Navigation trouble with one panel does not stop the day.
			appLog.Error("event panel unavailable", err, "index", i)
			continue
		}
		fn(frags)

		if err := s.closePanel(ctx); err != nil {
			appLog.Error("closing event panel failed", err, "index", i)
		}
	}
	return nil
}

func (s *Scraper) login(ctx context.Context) error {
	tctx, cancel := context.WithTimeout(ctx, s.opts.NavTimeout)
	defer cancel()

	appLog.Info("booking login start", "url", s.opts.BaseURL+"/login")
	err := chromedp.Run(tctx,
		chromedp.Navigate(s.opts.BaseURL+"/login"),
		chromedp.WaitVisible(selUserName, chromedp.ByQuery),
		chromedp.SendKeys(selUserName, s.opts.Username, chromedp.ByQuery),
		chromedp.SendKeys(selPassword, s.opts.Password, chromedp.ByQuery),
		chromedp.Click(selLoginButton, chromedp.ByQuery),
		chromedp.WaitNotPresent(selLoginButton, chromedp.ByQuery),
	)
	if err != nil {
		return fmt.Errorf("scrape: login failed: %w", err)
	}
	return nil
}

func (s *Scraper) openSchedule(ctx context.Context) (int, error) {
	tctx, cancel := context.WithTimeout(ctx, s.opts.NavTimeout)
	defer cancel()

	var count int
	err := chromedp.Run(tctx,
		chromedp.Navigate(s.opts.BaseURL+"/book"),
		chromedp.WaitVisible(selLocationColumn, chromedp.ByQuery),
		chromedp.Sleep(s.opts.SettleDelay),
		chromedp.Evaluate(countEventsJS, &count),
	)
	if err != nil {
		return 0, fmt.Errorf("scrape: opening schedule failed: %w", err)
	}
	return count, nil
}

// readEvent opens the i-th event bar and captures its panel fields.
func (s *Scraper) readEvent(ctx context.Context, i int) (assemble.Fragments, error) {
	var frags assemble.Fragments

	bar := fmt.Sprintf(`(//*[contains(concat(" ", normalize-space(@class), " "), " %s ")])[%d]`, eventBarClass, i+1)
	tctx, cancel := context.WithTimeout(ctx, s.opts.NavTimeout)
	err := chromedp.Run(tctx,
		chromedp.Click(bar, chromedp.BySearch),
		chromedp.Sleep(s.opts.SettleDelay),
	)
	cancel()
	if err != nil {
		return frags, fmt.Errorf("scrape: open event %d: %w", i, err)
	}
	s.waitOverlayHidden(ctx)

	frags.RoomText = s.text(ctx, selRoom)
	frags.HeaderText = s.text(ctx, selHeader)
	frags.TimesHTML = s.innerHTML(ctx, selTimes)
	frags.HasAccessTime, frags.AccessHTML = s.accessTime(ctx)

	appLog.Debug("event panel captured",
		"index", i,
		"room", frags.RoomText,
		"has_access_time", frags.HasAccessTime,
	)
	return frags, nil
}

func (s *Scraper) waitOverlayHidden(ctx context.Context) {
	tctx, cancel := context.WithTimeout(ctx, s.opts.NavTimeout)
	defer cancel()
	if err := chromedp.Run(tctx, chromedp.WaitNotVisible(selOverlay, chromedp.ByQuery)); err != nil {
		appLog.Debug("loading overlay wait ended", "err", err)
	}
}

func (s *Scraper) text(ctx context.Context, sel string) string {
	tctx, cancel := context.WithTimeout(ctx, s.opts.FieldTimeout)
	defer cancel()
	var out string
	if err := chromedp.Run(tctx, chromedp.Text(sel, &out, chromedp.ByQuery)); err != nil {
		return ""
	}
	return strings.TrimSpace(out)
}

func (s *Scraper) innerHTML(ctx context.Context, sel string) string {
	tctx, cancel := context.WithTimeout(ctx, s.opts.FieldTimeout)
	defer cancel()
	var out string
	if err := chromedp.Run(tctx, chromedp.InnerHTML(sel, &out, chromedp.ByQuery)); err != nil {
		return ""
	}
	return out
}

func (s *Scraper) accessTime(ctx context.Context) (bool, string) {
	tctx, cancel := context.WithTimeout(ctx, s.opts.FieldTimeout)
	defer cancel()
	var res struct {
		Found bool   `json:"found"`
		HTML  string `json:"html"`
	}
	if err := chromedp.Run(tctx, chromedp.Evaluate(accessTimeJS, &res)); err != nil {
		appLog.Debug("access time lookup failed", "err", err)
		return false, ""
	}
	return res.Found, res.HTML
}

func (s *Scraper) closePanel(ctx context.Context) error {
	tctx, cancel := context.WithTimeout(ctx, s.opts.NavTimeout)
	defer cancel()
	return chromedp.Run(tctx,
		chromedp.Click(CloseButtonXPath(), chromedp.BySearch),
		chromedp.Sleep(s.opts.SettleDelay),
	)
}

// CloseButtonXPath matches the panel's close button. The booking markup
// encodes the glyph as &times;, which the DOM exposes as U+00D7.
func CloseButtonXPath() string {
	return fmt.Sprintf(`//button[contains(normalize-space(.), "%s")]`, NormalizeGlyphs("&times;"))
}

// NormalizeGlyphs replaces encoded punctuation that the booking markup uses
// with the decoded characters the DOM reports.
func NormalizeGlyphs(s string) string {
	r := strings.NewReplacer(
		"&times;", closeGlyph,
		"&#215;", closeGlyph,
		"&nbsp;", " ",
	)
	return r.Replace(s)
}
