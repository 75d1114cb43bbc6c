package main

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/SIVIRA/unwallet-provider-js/pkg/window"
)

// Nominal screen size used for window features; a terminal has no pixel size.
const (
	screenWidth  = 1440
	screenHeight = 900
)

// TerminalUI opens signer windows in the system browser. When the browser
// cannot be started the prompt is printed and answered with the continue
// and cancel commands.
type TerminalUI struct {
	out      io.Writer
	open     func(url string) error
	language string

	mu     sync.Mutex
	prompt *window.Prompt
}

var _ window.UI = (*TerminalUI)(nil)

// NewTerminalUI creates a TerminalUI writing to out. open defaults to
// window.OpenBrowser.
func NewTerminalUI(out io.Writer, open func(url string) error) *TerminalUI {
	if open == nil {
		open = window.OpenBrowser
	}
	return &TerminalUI{
		out:      out,
		open:     open,
		language: os.Getenv("LANG"),
	}
}

func (t *TerminalUI) Open(url, target, features string) bool {
	if err := t.open(url); err != nil {
		return false
	}
	fmt.Fprintf(t.out, "Signer window opened: %s\n", url)
	return true
}

func (t *TerminalUI) ScreenSize() (int, int) {
	return screenWidth, screenHeight
}

func (t *TerminalUI) Language() string {
	return t.language
}

func (t *TerminalUI) ShowPrompt(p window.Prompt) {
	t.mu.Lock()
	t.prompt = &p
	t.mu.Unlock()

	fmt.Fprintf(t.out, "\n%s\n%s\n", p.Text.Title, strings.Join(p.Text.Description, " "))
	fmt.Fprintf(t.out, "Type 'continue' (%s) or 'cancel' (%s).\n", p.Text.ContinueLabel, p.Text.CancelLabel)
}

func (t *TerminalUI) HidePrompt() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.prompt = nil
}

// Prompting reports whether a prompt is waiting for an answer.
func (t *TerminalUI) Prompting() bool {
	return t.current() != nil
}

// Continue runs the Continue action of the shown prompt.
func (t *TerminalUI) Continue() bool {
	p := t.current()
	if p == nil || p.OnContinue == nil {
		return false
	}
	p.OnContinue()
	return true
}

// Cancel runs the Cancel action of the shown prompt.
func (t *TerminalUI) Cancel() bool {
	p := t.current()
	if p == nil || p.OnCancel == nil {
		return false
	}
	p.OnCancel()
	return true
}

func (t *TerminalUI) current() *window.Prompt {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.prompt
}
