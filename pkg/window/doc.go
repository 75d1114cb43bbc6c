// Package window opens the remote signer UI.
//
// The host environment is reached through the UI port, so the same Launcher
// drives a desktop browser, a terminal session or a test double. When the
// host refuses to open a window, the Launcher falls back to a prompt whose
// Continue action retries the open. Dismissing the prompt only hides it.
package window
