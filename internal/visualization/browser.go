package visualization

import (
	"fmt"
	"os"
	"os/exec"
	"runtime"
)

// OpenBrowser opens url with $BROWSER when set, otherwise the platform's
// opener: xdg-open on Linux, open on macOS, start on Windows.
func OpenBrowser(url string) error {
	cmd, err := browserCommand(runtime.GOOS, os.Getenv("BROWSER"), url)
	if err != nil {
		return err
	}
	return cmd.Start()
}

func browserCommand(goos, override, url string) (*exec.Cmd, error) {
	if override != "" {
		return exec.Command(override, url), nil
	}
	switch goos {
	case "linux", "freebsd", "openbsd":
		return exec.Command("xdg-open", url), nil
	case "darwin":
		return exec.Command("open", url), nil
	case "windows":
		return exec.Command("cmd", "/c", "start", url), nil
	}
	return nil, fmt.Errorf("unsupported platform: %s", goos)
}
