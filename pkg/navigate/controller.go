package navigate

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"strings"
	"sync"

	"golang.org/x/time/rate"

	perrors "github.com/vango-go/pageload/internal/errors"
	"github.com/vango-go/pageload/pkg/client"
	"github.com/vango-go/pageload/pkg/load"
	"github.com/vango-go/pageload/pkg/page"
	"github.com/vango-go/pageload/pkg/routepath"
	"github.com/vango-go/pageload/pkg/router"
	"github.com/vango-go/pageload/pkg/swr"
)

// MaxRedirects bounds a chain of Redirect results followed by one
// navigation.
const MaxRedirects = 10

// ErrTooManyRedirects is returned when a navigation keeps redirecting.
var ErrTooManyRedirects = errors.New("navigate: too many redirects")

// Screen is where the mounted view renders. Reset clears it before each
// render.
type Screen interface {
	io.Writer
	Reset()
}

// Modifiers describe how a link was activated.
type Modifiers struct {
	Meta, Ctrl, Shift, Alt bool

	// Button is the mouse button; 0 is the primary button.
	Button int

	// Target is the link's target attribute.
	Target string
}

// handledByBrowser reports whether the activation opens a new context
// rather than navigating in place.
func (m Modifiers) handledByBrowser() bool {
	if m.Meta || m.Ctrl || m.Shift || m.Alt || m.Button != 0 {
		return true
	}
	return m.Target != "" && m.Target != "_self"
}

// Controller performs client-side navigations for one session.
type Controller struct {
	router  *router.Router
	store   *swr.Store[load.Result]
	screen  Screen
	history History
	head    page.HeadUpdater
	origin  *url.URL
	limiter *rate.Limiter
	onError func(href string, err error)
	logger  *slog.Logger

	mu   sync.Mutex
	view *page.View

	wg sync.WaitGroup
}

// New creates a Controller.
func New(rt *router.Router, store *swr.Store[load.Result], screen Screen, opts ...Option) *Controller {
	c := &Controller{
		router:  rt,
		store:   store,
		screen:  screen,
		history: NewMemoryHistory(""),
		limiter: rate.NewLimiter(10, 5),
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Start mounts the first view of a server-rendered page. initial is the
// payload the server embedded; it seeds the store so the view renders
// without fetching and without touching the head.
func (c *Controller) Start(ctx context.Context, href string, initial load.Result) (page.Outcome, error) {
	u, err := c.resolve(href)
	if err != nil {
		return page.OutcomeNone, err
	}
	key := client.Key(u)
	if initial != nil {
		c.store.Seed(key, initial)
	}
	c.history.Replace(u.String())
	return c.mount(ctx, u, key, 0, page.Initial())
}

// Navigate moves to href, pushing a history entry unless WithReplace is
// given. The new view renders the cached value for href at once, if any,
// and revalidates it.
func (c *Controller) Navigate(ctx context.Context, href string, opts ...NavigateOption) (page.Outcome, error) {
	var o NavigateOptions
	for _, opt := range opts {
		opt(&o)
	}
	return c.navigate(ctx, href, o, 0)
}

// Push navigates to href. It lets the Controller act as a page.Navigator.
func (c *Controller) Push(href string) error {
	_, err := c.Navigate(context.Background(), href)
	return err
}

// Back returns to the previous history entry.
func (c *Controller) Back(ctx context.Context) (page.Outcome, error) {
	href, ok := c.history.Back()
	if !ok {
		return page.OutcomeNone, nil
	}
	u, err := c.resolve(href)
	if err != nil {
		return page.OutcomeNone, err
	}
	return c.mount(ctx, u, client.Key(u), 0)
}

// Click handles activation of a link to href. It reports whether the
// Controller took over the navigation; when it did not, the browser's
// default behaviour applies.
func (c *Controller) Click(ctx context.Context, href string, mods Modifiers) (bool, error) {
	if mods.handledByBrowser() || !c.IsLocalURL(href) {
		return false, nil
	}
	_, err := c.Navigate(ctx, href)
	return true, err
}

// navigate moves to href. depth counts the redirects that led here.
func (c *Controller) navigate(ctx context.Context, href string, o NavigateOptions, depth int) (page.Outcome, error) {
	u, err := c.resolve(href)
	if err != nil {
		return page.OutcomeNone, err
	}
	o.buildURL(u)

	if o.Replace {
		c.history.Replace(u.String())
	} else {
		c.history.Push(u.String())
	}
	return c.mount(ctx, u, client.Key(u), depth)
}

// redirect follows a Redirect result, replacing the redirecting entry.
// depth is the length of the chain including this redirect.
func (c *Controller) redirect(ctx context.Context, to string, depth int) error {
	if depth > MaxRedirects {
		return ErrTooManyRedirects
	}

	target, err := routepath.CanonicalizeAndValidateNavPath(to)
	if err != nil {
		return fmt.Errorf("navigate: redirect target %q: %w", to, err)
	}
	_, err = c.navigate(ctx, target, NavigateOptions{Replace: true}, depth)
	return err
}

// mount replaces the current view with one for u. A Redirect the view
// presents, now or on a later revalidation, continues the chain at depth+1.
func (c *Controller) mount(ctx context.Context, u *url.URL, key string, depth int, vopts ...page.ViewOption) (page.Outcome, error) {
	c.store.SetActive(key)

	m, ok := c.router.ResolvePage(u)
	if !ok {
		c.swap(nil)
		return page.Present(ctx, c.screen, load.NotFound{}, page.Target{Fallback: c.onScreen(c.router.NotFound())})
	}

	href := u.String()
	target := page.Target{
		Component: c.onScreen(m.Page),
		Fallback:  c.onScreen(c.router.NotFound()),
		Params:    m.Params,
		Head:      c.head,
		Navigator: page.NavigatorFunc(func(to string) error { return c.redirect(ctx, to, depth+1) }),
	}
	v := page.NewView(ctx, c.store, key, target, vopts...)
	c.swap(v)
	v.Watch(c.screen, func(err error) { c.report(href, err) })
	return v.Show(c.screen)
}

func (c *Controller) swap(v *page.View) {
	c.mu.Lock()
	prev := c.view
	c.view = v
	c.mu.Unlock()
	if prev != nil {
		prev.Unmount()
	}
}

func (c *Controller) onScreen(comp page.Component) page.Component {
	if comp == nil {
		comp = page.DefaultFallback
	}
	return page.ComponentFunc(func(ctx context.Context, w io.Writer, p page.Props) error {
		c.screen.Reset()
		return comp.Render(ctx, w, p)
	})
}

// Current returns the current history entry.
func (c *Controller) Current() string {
	return c.history.Current()
}

// IsLocalURL reports whether href stays on this site: relative references
// always do, absolute ones when they match the configured origin.
func (c *Controller) IsLocalURL(href string) bool {
	u, err := url.Parse(href)
	if err != nil {
		return false
	}
	if u.Scheme == "" && u.Host == "" {
		return u.Opaque == ""
	}
	return c.origin != nil &&
		strings.EqualFold(u.Scheme, c.origin.Scheme) &&
		strings.EqualFold(u.Host, c.origin.Host)
}

// resolve turns a local href into a site-relative URL, resolving relative
// references against the current entry.
func (c *Controller) resolve(href string) (*url.URL, error) {
	if !c.IsLocalURL(href) {
		return nil, fmt.Errorf("navigate: %q is not a local URL", href)
	}
	u, err := url.Parse(href)
	if err != nil {
		return nil, err
	}
	if !strings.HasPrefix(u.Path, "/") {
		base, err := url.Parse(c.history.Current())
		if err != nil || c.history.Current() == "" {
			base = &url.URL{Path: "/"}
		}
		u = base.ResolveReference(u)
	}
	return &url.URL{Path: u.Path, RawPath: u.RawPath, RawQuery: u.RawQuery}, nil
}

// Prefetch warms the cache for href and waits for the fetch. Hrefs that
// match no route are ignored. Failures are reported to OnError and
// returned coded E112.
func (c *Controller) Prefetch(ctx context.Context, href string, priority bool) error {
	u, err := c.resolve(href)
	if err != nil {
		return err
	}
	if _, ok := c.router.ResolvePage(u); !ok {
		return nil
	}
	if err := c.store.Prefetch(ctx, client.Key(u), priority); err != nil {
		perr := perrors.New("E112").WithRoute(href).Wrap(err)
		c.report(href, perr)
		return perr
	}
	return nil
}

// LinkVisible prefetches href in the background when the visibility rate
// limit allows. It reports whether a prefetch was started.
func (c *Controller) LinkVisible(ctx context.Context, href string) bool {
	if !c.IsLocalURL(href) || !c.limiter.Allow() {
		return false
	}
	c.background(ctx, href, false)
	return true
}

// LinkHovered prefetches href in the background with priority.
func (c *Controller) LinkHovered(ctx context.Context, href string) bool {
	if !c.IsLocalURL(href) {
		return false
	}
	c.background(ctx, href, true)
	return true
}

func (c *Controller) background(ctx context.Context, href string, priority bool) {
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		_ = c.Prefetch(ctx, href, priority) // reported through OnError
	}()
}

// Focus forwards a focus event to the store.
func (c *Controller) Focus() bool { return c.store.Focus() }

// Reconnect forwards a network reconnect to the store.
func (c *Controller) Reconnect() bool { return c.store.Reconnect() }

// Wait blocks until background prefetches finish.
func (c *Controller) Wait() {
	c.wg.Wait()
}

// Close unmounts the current view and waits for background prefetches.
func (c *Controller) Close() {
	c.swap(nil)
	c.Wait()
}

func (c *Controller) report(href string, err error) {
	c.logger.Warn("navigation diagnostic", "path", href, "err", err)
	if c.onError != nil {
		c.onError(href, err)
	}
}
