package devserver

import (
	"os/exec"
	"runtime"
)

// OpenBrowser opens url in the default browser. Failures are returned, not fatal.
func OpenBrowser(url string) error {
	var cmd *exec.Cmd

	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", url) //nolint:noctx
	case "linux":
		cmd = exec.Command("xdg-open", url) //nolint:noctx
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", url) //nolint:noctx
	default:
		return nil
	}

	return cmd.Start()
}
