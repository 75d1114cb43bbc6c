package window_test

import (
	"net/url"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SIVIRA/unwallet-provider-js/pkg/window"
)

type openCall struct {
	url      string
	target   string
	features string
}

type fakeUI struct {
	mu       sync.Mutex
	allow    []bool // results of successive Open calls; true once exhausted
	opens    []openCall
	prompt   *window.Prompt
	hides    int
	language string
}

func (u *fakeUI) Open(url, target, features string) bool {
	u.mu.Lock()
	defer u.mu.Unlock()

	u.opens = append(u.opens, openCall{url: url, target: target, features: features})
	if len(u.allow) == 0 {
		return true
	}
	ok := u.allow[0]
	u.allow = u.allow[1:]
	return ok
}

func (u *fakeUI) ScreenSize() (int, int) { return 1920, 1080 }
func (u *fakeUI) Language() string       { return u.language }

func (u *fakeUI) ShowPrompt(p window.Prompt) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.prompt = &p
}

func (u *fakeUI) HidePrompt() {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.prompt = nil
	u.hides++
}

func (u *fakeUI) currentPrompt() *window.Prompt {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.prompt
}

func TestFeatures(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "width=960,height=1080,left=480,top=0", window.Features(1920, 1080))
	assert.Equal(t, "width=640,height=800,left=320,top=0", window.Features(1281, 800))
}

func TestLauncher_OpenSignerWindow(t *testing.T) {
	t.Parallel()

	ui := &fakeUI{}
	l := window.NewLauncher(ui, nil)

	u, err := url.Parse("https://id.dauth.world/x/eth/sign?connectionID=abc&message=0x00")
	require.NoError(t, err)

	assert.True(t, l.OpenSignerWindow(u))
	require.Len(t, ui.opens, 1)
	assert.Equal(t, openCall{
		url:      "https://id.dauth.world/x/eth/sign?connectionID=abc&message=0x00",
		target:   "_blank",
		features: "width=960,height=1080,left=480,top=0",
	}, ui.opens[0])
	assert.Nil(t, ui.currentPrompt())
	assert.False(t, l.Blocked())
}

func TestLauncher_BlockedThenContinue(t *testing.T) {
	t.Parallel()

	ui := &fakeUI{allow: []bool{false}}
	l := window.NewLauncher(ui, nil)

	assert.False(t, l.Open("https://example.com/a", "_blank", "width=1"))
	assert.True(t, l.Blocked())

	prompt := ui.currentPrompt()
	require.NotNil(t, prompt)
	assert.Equal(t, "Authentication required", prompt.Text.Title)
	assert.Equal(t, "Continue", prompt.Text.ContinueLabel)

	prompt.OnContinue()

	require.Len(t, ui.opens, 2)
	assert.Equal(t, ui.opens[0], ui.opens[1])
	assert.Nil(t, ui.currentPrompt())
	assert.False(t, l.Blocked())
}

func TestLauncher_ContinueStillBlocked(t *testing.T) {
	t.Parallel()

	ui := &fakeUI{allow: []bool{false, false}}
	l := window.NewLauncher(ui, nil)

	l.Open("https://example.com/a", "_blank", "")
	ui.currentPrompt().OnContinue()

	// Blocked again: the prompt is back for another try.
	require.NotNil(t, ui.currentPrompt())
	assert.True(t, l.Blocked())

	ui.currentPrompt().OnContinue()
	assert.Len(t, ui.opens, 3)
	assert.Nil(t, ui.currentPrompt())
}

func TestLauncher_Cancel(t *testing.T) {
	t.Parallel()

	ui := &fakeUI{allow: []bool{false}, language: "ja-JP"}
	l := window.NewLauncher(ui, nil)

	l.Open("https://example.com/a", "_blank", "")
	prompt := ui.currentPrompt()
	require.NotNil(t, prompt)
	assert.Equal(t, "認証が必要です", prompt.Text.Title)
	assert.Equal(t, "キャンセル", prompt.Text.CancelLabel)

	prompt.OnCancel()
	assert.Nil(t, ui.currentPrompt())
	assert.False(t, l.Blocked())
	assert.Len(t, ui.opens, 1)

	// A stale Continue after cancelling does nothing.
	prompt.OnContinue()
	assert.Len(t, ui.opens, 1)
}

func TestLauncher_NewerOpenReplacesPrompt(t *testing.T) {
	t.Parallel()

	ui := &fakeUI{allow: []bool{false, false}}
	l := window.NewLauncher(ui, nil)

	l.Open("https://example.com/a", "_blank", "")
	first := ui.currentPrompt()
	l.Open("https://example.com/b", "_blank", "")

	first.OnContinue()
	assert.Len(t, ui.opens, 2)

	ui.currentPrompt().OnContinue()
	require.Len(t, ui.opens, 3)
	assert.Equal(t, "https://example.com/b", ui.opens[2].url)
}

func TestPromptTextFor(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "Authentication required", window.PromptTextFor("en-US").Title)
	assert.Equal(t, "Authentication required", window.PromptTextFor("").Title)
	assert.Equal(t, "認証が必要です", window.PromptTextFor("ja").Title)
	assert.Len(t, window.PromptTextFor("ja").Description, 2)
}
