package widgets

import (
	"log/slog"

	"github.com/atotto/clipboard"
)

// ClipboardWriter writes text to a clipboard.
type ClipboardWriter func(text string) error

// SystemClipboard writes through the OS clipboard.
func SystemClipboard(text string) error {
	return clipboard.WriteAll(text)
}

// Copy writes text to the clipboard. Empty text is ignored. Failures are
// logged only; the caller shows nothing to the user.
func Copy(text string, write ClipboardWriter, logger *slog.Logger) bool {
	if text == "" {
		return false
	}
	if write == nil {
		write = SystemClipboard
	}
	if err := write(text); err != nil {
		if logger != nil {
			logger.Error("failed to copy text", "error", err)
		}
		return false
	}
	return true
}
