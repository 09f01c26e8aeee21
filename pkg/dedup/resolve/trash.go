package resolve

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"time"
)

// trashTimeout is the maximum time to wait for system trash commands.
const trashTimeout = 30 * time.Second

// moveToTrash moves a file to the system trash.
// On macOS: uses AppleScript to move to Trash.
// On Linux: uses gio trash or trash-cli.
// Falls back to permanent removal if no trash support is detected.
func moveToTrash(path string) error {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("cannot resolve absolute path for %q: %w", path, err)
	}

	switch runtime.GOOS {
	case "darwin":
		return trashMacOS(absPath)
	case "linux":
		return trashLinux(absPath)
	default:
		return os.Remove(absPath)
	}
}

// trashMacOS moves a file to Trash on macOS using AppleScript, which
// integrates with Finder's "Put Back".
func trashMacOS(path string) error {
	ctx, cancel := context.WithTimeout(context.Background(), trashTimeout)
	defer cancel()

	script := fmt.Sprintf(`tell application "Finder" to delete POSIX file %q`, path)
	cmd := exec.CommandContext(ctx, "osascript", "-e", script)
	if err := cmd.Run(); err != nil {
		return os.Remove(path)
	}
	return nil
}

// trashLinux moves a file to trash on Linux using available tools.
func trashLinux(path string) error {
	ctx, cancel := context.WithTimeout(context.Background(), trashTimeout)
	defer cancel()

	// Try gio first (GNOME/GTK desktop environments)
	if gioPath, err := exec.LookPath("gio"); err == nil {
		if err := exec.CommandContext(ctx, gioPath, "trash", path).Run(); err == nil {
			return nil
		}
	}

	// Try trash-cli (cross-desktop, XDG compliant)
	if trashPath, err := exec.LookPath("trash-put"); err == nil {
		if err := exec.CommandContext(ctx, trashPath, path).Run(); err == nil {
			return nil
		}
	}

	return os.Remove(path)
}
