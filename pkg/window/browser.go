package window

import (
	"os/exec"
	"runtime"
)

// OpenBrowser starts the platform's default browser on url:
//   - Windows: rundll32 url.dll,FileProtocolHandler
//   - macOS: open
//   - everything else: xdg-open
//
// It does not wait for the browser. A non-nil error means the launcher
// command could not be started, which callers treat as a blocked open.
func OpenBrowser(url string) error {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", url)
	case "darwin":
		cmd = exec.Command("open", url)
	default:
		cmd = exec.Command("xdg-open", url)
	}

	if err := cmd.Start(); err != nil {
		return err
	}
	go func() { _ = cmd.Wait() }()
	return nil
}
