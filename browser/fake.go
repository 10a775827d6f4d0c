package browser

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
)

var _ Driver = (*FakeDriver)(nil)

// FakeDriver serves a fixed set of HTML pages from memory. It backs the
// scraper's tests.
//
// Clicking an element with a data-nav attribute navigates to that URL.
// Elements marked data-lazy="N" stay hidden until the N-th scroll of their
// container, which mimics a lazily rendered feed.
type FakeDriver struct {
	// Pages maps a URL to its HTML. Unknown URLs render an empty page.
	Pages map[string]string
	// BeforeClick, when set, can veto a click by returning an error.
	BeforeClick func(el Element) error

	docs    map[string]*goquery.Document
	history []string
	view    View
	scrolls map[string]int

	Clicks int
}

// NewFakeDriver returns a driver serving pages.
func NewFakeDriver(pages map[string]string) *FakeDriver {
	return &FakeDriver{
		Pages:   pages,
		docs:    make(map[string]*goquery.Document),
		scrolls: make(map[string]int),
	}
}

func (f *FakeDriver) Navigate(ctx context.Context, url string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	f.history = append(f.history, url)
	f.view++
	return nil
}

func (f *FakeDriver) Back(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if len(f.history) > 1 {
		f.history = f.history[:len(f.history)-1]
	}
	f.view++
	return nil
}

func (f *FakeDriver) CurrentURL(_ context.Context) (string, error) {
	if len(f.history) == 0 {
		return "about:blank", nil
	}
	return f.history[len(f.history)-1], nil
}

func (f *FakeDriver) View() View {
	return f.view
}

func (f *FakeDriver) WaitFor(ctx context.Context, sel string, _ time.Duration) (Element, error) {
	if err := ctx.Err(); err != nil {
		return Element{}, err
	}
	el, err := f.Find(ctx, nil, sel)
	if err != nil {
		return Element{}, fmt.Errorf("%w: %s", ErrTimeout, sel)
	}
	return el, nil
}

func (f *FakeDriver) Find(ctx context.Context, scope *Element, sel string) (Element, error) {
	els, err := f.FindAll(ctx, scope, sel)
	if err != nil {
		return Element{}, err
	}
	if len(els) == 0 {
		return Element{}, fmt.Errorf("%w: %s", ErrNotFound, sel)
	}
	return els[0], nil
}

func (f *FakeDriver) FindAll(_ context.Context, scope *Element, sel string) ([]Element, error) {
	base := Element{View: f.view}
	if scope != nil {
		base = *scope
	}
	root, err := f.resolve(base)
	if err != nil {
		return nil, err
	}
	n := visible(root.Find(sel)).Length()
	els := make([]Element, 0, n)
	for i := 0; i < n; i++ {
		els = append(els, base.child(sel, i))
	}
	return els, nil
}

func (f *FakeDriver) Count(_ context.Context, scope Element, sel string) (int, error) {
	root, err := f.resolve(scope)
	if err != nil {
		return 0, err
	}
	return visible(root.Find(sel)).Length(), nil
}

func (f *FakeDriver) Text(_ context.Context, el Element) (string, error) {
	s, err := f.resolve(el)
	if err != nil {
		return "", err
	}
	return strings.Join(strings.Fields(s.Text()), " "), nil
}

func (f *FakeDriver) Attribute(_ context.Context, el Element, name string) (string, error) {
	s, err := f.resolve(el)
	if err != nil {
		return "", err
	}
	v, ok := s.Attr(name)
	if !ok {
		return "", fmt.Errorf("%w: attribute %s on %s", ErrNotFound, name, el)
	}
	return v, nil
}

func (f *FakeDriver) HTML(_ context.Context, el Element) (string, error) {
	s, err := f.resolve(el)
	if err != nil {
		return "", err
	}
	return goquery.OuterHtml(s)
}

func (f *FakeDriver) Click(ctx context.Context, el Element) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s, err := f.resolve(el)
	if err != nil {
		return err
	}
	if f.BeforeClick != nil {
		if err := f.BeforeClick(el); err != nil {
			return err
		}
	}
	f.Clicks++
	if target, ok := s.Attr("data-nav"); ok {
		f.history = append(f.history, target)
	}
	f.view++
	return nil
}

func (f *FakeDriver) ScrollToBottom(_ context.Context, el Element) error {
	s, err := f.resolve(el)
	if err != nil {
		return err
	}
	url, _ := f.CurrentURL(context.Background())
	key := url + "|" + el.String()
	f.scrolls[key]++
	wave := fmt.Sprint(f.scrolls[key])
	s.Find(`[data-lazy="` + wave + `"]`).RemoveAttr("data-lazy")
	return nil
}

// resolve walks el's path from the current document root.
func (f *FakeDriver) resolve(el Element) (*goquery.Selection, error) {
	if el.View != f.view {
		return nil, fmt.Errorf("%w: %s (view %d, now %d)", ErrStale, el, el.View, f.view)
	}
	cur := f.document().Selection
	for _, st := range el.Path {
		all := visible(cur.Find(st.Selector))
		if st.Index >= all.Length() {
			return nil, fmt.Errorf("%w: %s", ErrStale, el)
		}
		cur = all.Eq(st.Index)
	}
	return cur, nil
}

func (f *FakeDriver) document() *goquery.Document {
	url, _ := f.CurrentURL(context.Background())
	if doc, ok := f.docs[url]; ok {
		return doc
	}
	raw, ok := f.Pages[url]
	if !ok {
		raw = "<html><body></body></html>"
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(raw))
	if err != nil {
		doc, _ = goquery.NewDocumentFromReader(strings.NewReader("<html><body></body></html>"))
	}
	f.docs[url] = doc
	return doc
}

// visible drops nodes that sit inside a still-lazy subtree.
func visible(s *goquery.Selection) *goquery.Selection {
	return s.FilterFunction(func(_ int, n *goquery.Selection) bool {
		return n.Closest("[data-lazy]").Length() == 0
	})
}
