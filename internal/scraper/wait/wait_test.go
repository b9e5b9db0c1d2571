package wait_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"obamixscraper/internal/scraper/browser/browsertest"
	"obamixscraper/internal/scraper/wait"
)

func TestUntilSucceedsOnceConditionHolds(t *testing.T) {
	calls := 0
	err := wait.Until(func() bool {
		calls++
		return calls >= 3
	}, time.Millisecond, time.Second)

	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestUntilTimesOut(t *testing.T) {
	err := wait.Until(func() bool { return false }, time.Millisecond, 10*time.Millisecond)
	assert.ErrorIs(t, err, wait.ErrTimeout)
}

func TestTableReady(t *testing.T) {
	page := &browsertest.Page{}
	page.Set("tbody tr", &browsertest.Element{TextVal: "row"})
	spinner := &browsertest.Element{Attrs: map[string]string{"class": "loadding-table"}}
	page.Set(".loadding-table", spinner)

	ready := wait.TableReady(page, "tbody tr", ".loadding-table")
	assert.False(t, ready(), "visible spinner means not ready")

	spinner.Attrs["class"] = "loadding-table hidden"
	assert.True(t, ready())

	page.Set("tbody tr")
	assert.False(t, ready(), "no rows means not ready")
}

func TestModalReady(t *testing.T) {
	title := &browsertest.Element{TextVal: ""}
	spinner := &browsertest.Element{Attrs: map[string]string{"class": "loadingModal"}}
	modal := &browsertest.Element{Hidden: true}
	modal.Set("#modal-name", title)
	modal.Set(".loadingModal", spinner)
	page := (&browsertest.Page{}).Set("#viewProduct", modal)

	ready := wait.ModalReady(page, "#viewProduct", "#modal-name", ".loadingModal")
	assert.False(t, ready(), "hidden modal is not ready")

	modal.Hidden = false
	assert.False(t, ready(), "empty title means async fill pending")

	title.TextVal = "Produto"
	assert.False(t, ready(), "spinner still visible")

	spinner.Attrs["class"] = "loadingModal hidden"
	assert.True(t, ready())
}

func TestGone(t *testing.T) {
	modal := &browsertest.Element{}
	page := (&browsertest.Page{}).Set("#viewProduct", modal)

	gone := wait.Gone(page, "#viewProduct")
	assert.False(t, gone())

	modal.Hidden = true
	assert.True(t, gone())

	page.Set("#viewProduct")
	assert.True(t, gone(), "removed element counts as gone")
}
