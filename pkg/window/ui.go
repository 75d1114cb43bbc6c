package window

import (
	"strings"
)

// UI is the host environment the signer window is opened in.
type UI interface {
	// Open opens url in a new browsing context. It returns false when the
	// host blocked the attempt.
	Open(url, target, features string) bool

	// ScreenSize returns the available screen size in pixels.
	ScreenSize() (width, height int)

	// Language returns the preferred language tag, e.g. "en-US" or "ja".
	Language() string

	// ShowPrompt displays p until HidePrompt is called or one of its
	// actions runs. Showing a new prompt replaces the current one.
	ShowPrompt(p Prompt)

	// HidePrompt removes the prompt if one is shown.
	HidePrompt()
}

// Prompt asks the user to continue an open the host blocked.
type Prompt struct {
	Text PromptText

	// OnContinue retries the blocked open.
	OnContinue func()
	// OnCancel dismisses the prompt.
	OnCancel func()
}

// PromptText is the localized copy of a Prompt.
type PromptText struct {
	Title         string
	Description   []string
	ContinueLabel string
	CancelLabel   string
}

var (
	promptTextEN = PromptText{
		Title: "Authentication required",
		Description: []string{
			`Press the "Continue" button below`,
			"to continue authentication with unWallet.",
		},
		ContinueLabel: "Continue",
		CancelLabel:   "Cancel",
	}
	promptTextJA = PromptText{
		Title: "認証が必要です",
		Description: []string{
			"下の「続行」ボタンを押して、unWallet",
			"による認証を続行してください。",
		},
		ContinueLabel: "続行",
		CancelLabel:   "キャンセル",
	}
)

// PromptTextFor returns the prompt copy for a language tag. Any tag
// containing "ja" selects Japanese, everything else English.
func PromptTextFor(language string) PromptText {
	if strings.Contains(strings.ToLower(language), "ja") {
		return promptTextJA
	}
	return promptTextEN
}
