package input

import "github.com/atotto/clipboard"

// Clipboard is the system clipboard.
type Clipboard struct{}

// Read returns the clipboard text.
func (Clipboard) Read() (string, error) {
	return clipboard.ReadAll()
}

// Write replaces the clipboard text.
func (Clipboard) Write(text string) error {
	return clipboard.WriteAll(text)
}
