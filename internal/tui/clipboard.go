package tui

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/aymanbagabas/go-osc52/v2"
)

type clipboardCommand struct {
	name string
	args []string
}

// clipboardCommands lists the copy commands to try for the current session,
// Wayland first when both displays are set.
func clipboardCommands(getenv func(string) string) []clipboardCommand {
	var cmds []clipboardCommand
	if getenv("WAYLAND_DISPLAY") != "" {
		cmds = append(cmds, clipboardCommand{name: "wl-copy"})
	}
	if getenv("DISPLAY") != "" {
		cmds = append(cmds,
			clipboardCommand{name: "xclip", args: []string{"-selection", "clipboard"}},
			clipboardCommand{name: "xsel", args: []string{"--clipboard", "--input"}},
		)
	}
	return cmds
}

// copyText copies text to the system clipboard. Without a usable clipboard
// command it asks the terminal to do it with an OSC 52 sequence.
func copyText(text string) error {
	for _, c := range clipboardCommands(os.Getenv) {
		if _, err := exec.LookPath(c.name); err != nil {
			continue
		}
		return runClipboardCommand(c, text)
	}
	return copyOSC52(os.Stderr, text, os.Getenv("TMUX") != "")
}

func runClipboardCommand(c clipboardCommand, text string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	cmd := exec.CommandContext(ctx, c.name, c.args...)
	cmd.Stdin = strings.NewReader(text)
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("%s: %w", c.name, err)
	}
	return nil
}

func copyOSC52(w io.Writer, text string, tmux bool) error {
	seq := osc52.New(text)
	if tmux {
		seq = seq.Tmux()
	}
	_, err := seq.WriteTo(w)
	return err
}
