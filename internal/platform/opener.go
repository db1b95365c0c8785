package platform

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"runtime"
)

// opener builds the command that hands a path to the OS default handler.
var opener = func(ctx context.Context, path string) *exec.Cmd {
	switch runtime.GOOS {
	case "windows":
		return exec.CommandContext(ctx, "cmd", "/C", "start", "", path)
	case "darwin":
		return exec.CommandContext(ctx, "open", path)
	default:
		return exec.CommandContext(ctx, "xdg-open", path)
	}
}

// OpenFile opens path with the OS default application and returns a
// confirmation message. The handler is started, not waited for.
func OpenFile(ctx context.Context, path string) (string, error) {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return "", fmt.Errorf("User data file does not exist at: %s", path)
	} else if err != nil {
		return "", err
	}

	cmd := opener(ctx, path)
	if err := cmd.Start(); err != nil {
		return "", fmt.Errorf("Failed to open file: %s. Error: %w", path, err)
	}
	go func() { _ = cmd.Wait() }()
	return fmt.Sprintf("Attempted to open file: %s", path), nil
}
