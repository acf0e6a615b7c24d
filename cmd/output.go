package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/atotto/clipboard"
)

// writeClipboard is swapped out in tests.
var writeClipboard = clipboard.WriteAll

// printJSON writes v as indented JSON.
func printJSON(w io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal output: %w", err)
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}

// emit prints text, or copies it to the clipboard when toClipboard is set.
func emit(w, status io.Writer, text string, toClipboard bool) error {
	if !toClipboard {
		_, err := io.WriteString(w, text)
		return err
	}
	if clipboard.Unsupported {
		return errors.New("no clipboard utility available (install xclip, xsel or wl-clipboard)")
	}
	if err := writeClipboard(text); err != nil {
		return fmt.Errorf("failed to copy to clipboard: %w", err)
	}
	fmt.Fprintln(status, "Copied to clipboard.")
	return nil
}
