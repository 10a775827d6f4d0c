// Package browser abstracts the handful of browser capabilities the scraper
// needs so the extraction logic can run against Chrome or an in-memory page
// set.
package browser

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"
)

var (
	// ErrNotFound means a selector matched nothing.
	ErrNotFound = errors.New("element not found")
	// ErrTimeout means a bounded wait expired.
	ErrTimeout = errors.New("wait timed out")
	// ErrStale means an element handle no longer refers to the current page.
	ErrStale = errors.New("stale element reference")
)

// View identifies one state of the browser viewport. Navigate, Back and Click
// each move the driver to a new View.
type View int

// Step is one hop of an element path: the Index-th match of Selector within
// the previous hop.
type Step struct {
	Selector string `json:"sel"`
	Index    int    `json:"idx"`
}

// Element is a handle to a node, valid only while the driver is still in the
// View it was found in.
type Element struct {
	Path []Step
	View View
}

func (e Element) child(sel string, idx int) Element {
	path := make([]Step, len(e.Path), len(e.Path)+1)
	copy(path, e.Path)
	return Element{Path: append(path, Step{Selector: sel, Index: idx}), View: e.View}
}

// String renders the element path for log messages.
func (e Element) String() string {
	var b strings.Builder
	for i, st := range e.Path {
		if i > 0 {
			b.WriteString(" > ")
		}
		b.WriteString(st.Selector)
		if st.Index > 0 {
			b.WriteString("[" + strconv.Itoa(st.Index) + "]")
		}
	}
	return b.String()
}

// Driver is the browser surface used by the scraper. A nil scope means the
// whole document.
type Driver interface {
	Navigate(ctx context.Context, url string) error
	Back(ctx context.Context) error
	CurrentURL(ctx context.Context) (string, error)
	View() View

	WaitFor(ctx context.Context, sel string, timeout time.Duration) (Element, error)
	Find(ctx context.Context, scope *Element, sel string) (Element, error)
	FindAll(ctx context.Context, scope *Element, sel string) ([]Element, error)
	Count(ctx context.Context, scope Element, sel string) (int, error)

	Text(ctx context.Context, el Element) (string, error)
	Attribute(ctx context.Context, el Element, name string) (string, error)
	HTML(ctx context.Context, el Element) (string, error)

	Click(ctx context.Context, el Element) error
	ScrollToBottom(ctx context.Context, el Element) error
}
