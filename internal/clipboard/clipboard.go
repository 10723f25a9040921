// Package clipboard copies text to the Wayland clipboard with wl-copy.
package clipboard

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

var ErrEmptyText = errors.New("nothing to copy")

const DefaultTimeout = 3 * time.Second

type Writer interface {
	Copy(ctx context.Context, text string) error
}

// WlCopy runs wl-copy with the text on stdin.
type WlCopy struct {
	Timeout time.Duration
	command string
}

func NewWlCopy() *WlCopy {
	return &WlCopy{Timeout: DefaultTimeout, command: "wl-copy"}
}

func (w *WlCopy) Copy(ctx context.Context, text string) error {
	if strings.TrimSpace(text) == "" {
		return ErrEmptyText
	}

	timeout := w.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, w.command)
	cmd.Stdin = strings.NewReader(text)

	if err := cmd.Run(); err != nil {
		return fmt.Errorf("%s failed: %w", w.command, err)
	}
	return nil
}

func CheckAvailable() error {
	if _, err := exec.LookPath("wl-copy"); err != nil {
		return fmt.Errorf("wl-copy not found: %w (install wl-clipboard)", err)
	}
	return nil
}
