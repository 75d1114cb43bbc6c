package window

import (
	"fmt"
	"net/url"
	"sync"

	"github.com/SIVIRA/unwallet-provider-js/pkg/log"
)

// TargetBlank opens the destination in a new top-level browsing context.
const TargetBlank = "_blank"

// destination is the last open that the host blocked
type destination struct {
	url      string
	target   string
	features string
}

// Launcher opens signer windows through a UI, falling back to a prompt.
type Launcher struct {
	ui UI
	lg log.Logger

	mu      sync.Mutex
	blocked *destination
}

// NewLauncher creates a Launcher. A nil logger discards output.
func NewLauncher(ui UI, lg log.Logger) *Launcher {
	if lg == nil {
		lg = log.NewNoopLogger()
	}

	return &Launcher{
		ui: ui,
		lg: lg.WithName("window"),
	}
}

// Features returns the window features for a signer window on a screen of
// the given size: half the width, full height, a quarter-width left offset.
func Features(screenWidth, screenHeight int) string {
	return fmt.Sprintf("width=%d,height=%d,left=%d,top=0", screenWidth/2, screenHeight, screenWidth/4)
}

// OpenSignerWindow opens u as a new signer window sized to the screen.
func (l *Launcher) OpenSignerWindow(u *url.URL) bool {
	width, height := l.ui.ScreenSize()
	return l.Open(u.String(), TargetBlank, Features(width, height))
}

// Open tries to open the destination directly. If the host blocks it, a
// prompt is shown whose Continue action retries the same destination and
// whose Cancel action only hides the prompt. It reports whether the window
// opened on this attempt.
func (l *Launcher) Open(rawURL, target, features string) bool {
	if l.ui.Open(rawURL, target, features) {
		l.mu.Lock()
		l.blocked = nil
		l.mu.Unlock()

		l.lg.Debug("signer window opened", "url", rawURL)
		return true
	}

	dest := &destination{url: rawURL, target: target, features: features}

	l.mu.Lock()
	l.blocked = dest
	l.mu.Unlock()

	l.lg.Info("signer window blocked, prompting user", "url", rawURL)

	l.ui.ShowPrompt(Prompt{
		Text:       PromptTextFor(l.ui.Language()),
		OnContinue: func() { l.retry(dest) },
		OnCancel:   l.dismiss,
	})
	return false
}

// Blocked reports whether a blocked destination is awaiting the user.
func (l *Launcher) Blocked() bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	return l.blocked != nil
}

func (l *Launcher) retry(dest *destination) {
	l.mu.Lock()
	current := l.blocked == dest
	l.mu.Unlock()

	// A newer open or a cancel replaced this prompt.
	if !current {
		return
	}

	l.ui.HidePrompt()
	l.Open(dest.url, dest.target, dest.features)
}

func (l *Launcher) dismiss() {
	l.mu.Lock()
	l.blocked = nil
	l.mu.Unlock()

	l.ui.HidePrompt()
	l.lg.Debug("signer window prompt dismissed")
}
