package tui

import (
	"context"
	"errors"
	"os/exec"
	"strings"
	"time"
)

var errNoClipboard = errors.New("no clipboard command available")

// copyText pipes text into the clipboard command.
func copyText(text, command string) error {
	if command == "" {
		command = detectClipboardCommand()
	}
	parts := strings.Fields(command)
	if len(parts) == 0 {
		return errNoClipboard
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	c := exec.CommandContext(ctx, parts[0], parts[1:]...)
	c.Stdin = strings.NewReader(text)
	return c.Run()
}

// detectClipboardCommand returns the first clipboard tool found on PATH.
func detectClipboardCommand() string {
	candidates := []struct {
		bin     string
		command string
	}{
		{"wl-copy", "wl-copy"},
		{"xclip", "xclip -selection clipboard"},
		{"xsel", "xsel --clipboard --input"},
	}
	for _, c := range candidates {
		if _, err := exec.LookPath(c.bin); err == nil {
			return c.command
		}
	}
	return ""
}
