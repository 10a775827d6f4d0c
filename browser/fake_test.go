package browser

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const listPage = `<html><body>
<ul id="feed">
  <li data-nav="detail">One</li>
  <li>Two</li>
  <div data-lazy="1"><li>Three</li></div>
</ul>
</body></html>`

func newListDriver(t *testing.T) *FakeDriver {
	t.Helper()
	f := NewFakeDriver(map[string]string{
		"list":   listPage,
		"detail": `<html><body><h1 title="x">Detail</h1></body></html>`,
	})
	require.NoError(t, f.Navigate(context.Background(), "list"))
	return f
}

func TestFakeDriverFindAndText(t *testing.T) {
	ctx := context.Background()
	f := newListDriver(t)

	feed, err := f.Find(ctx, nil, "#feed")
	require.NoError(t, err)
	items, err := f.FindAll(ctx, &feed, "li")
	require.NoError(t, err)
	require.Len(t, items, 2)

	text, err := f.Text(ctx, items[1])
	require.NoError(t, err)
	assert.Equal(t, "Two", text)
	assert.Equal(t, "#feed > li[1]", items[1].String())

	_, err = f.Find(ctx, nil, "table")
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestFakeDriverScrollRevealsLazyItems(t *testing.T) {
	ctx := context.Background()
	f := newListDriver(t)
	feed, err := f.Find(ctx, nil, "#feed")
	require.NoError(t, err)

	n, err := f.Count(ctx, feed, "li")
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	require.NoError(t, f.ScrollToBottom(ctx, feed))
	n, err = f.Count(ctx, feed, "li")
	require.NoError(t, err)
	assert.Equal(t, 3, n)
}

func TestFakeDriverClickMakesOldHandlesStale(t *testing.T) {
	ctx := context.Background()
	f := newListDriver(t)
	first, err := f.Find(ctx, nil, "li")
	require.NoError(t, err)

	require.NoError(t, f.Click(ctx, first))
	url, _ := f.CurrentURL(ctx)
	assert.Equal(t, "detail", url)

	_, err = f.Text(ctx, first)
	assert.True(t, errors.Is(err, ErrStale))

	h1, err := f.WaitFor(ctx, "h1", 0)
	require.NoError(t, err)
	title, err := f.Attribute(ctx, h1, "title")
	require.NoError(t, err)
	assert.Equal(t, "x", title)
	_, err = f.Attribute(ctx, h1, "href")
	assert.True(t, errors.Is(err, ErrNotFound))

	require.NoError(t, f.Back(ctx))
	url, _ = f.CurrentURL(ctx)
	assert.Equal(t, "list", url)
	assert.Equal(t, 1, f.Clicks)
}

func TestFakeDriverWaitForTimesOut(t *testing.T) {
	f := newListDriver(t)

	_, err := f.WaitFor(context.Background(), "h1", 0)

	assert.True(t, errors.Is(err, ErrTimeout))
}

func TestFakeDriverBeforeClickVeto(t *testing.T) {
	ctx := context.Background()
	f := newListDriver(t)
	f.BeforeClick = func(Element) error { return ErrStale }
	first, err := f.Find(ctx, nil, "li")
	require.NoError(t, err)

	err = f.Click(ctx, first)

	assert.True(t, errors.Is(err, ErrStale))
	assert.Zero(t, f.Clicks)
	assert.Equal(t, first.View, f.View())
}
