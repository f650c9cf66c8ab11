package launcher

import (
	"fmt"
	"os/exec"
	"runtime"
)

// openBrowser asks the desktop to open url with its default browser.
// Best-effort: a headless machine or missing opener is not a launch failure.
func openBrowser(url string) error {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", url)
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", url)
	case "linux":
		cmd = exec.Command("xdg-open", url)
	default:
		return fmt.Errorf("no browser opener for %s", runtime.GOOS)
	}
	return cmd.Start()
}
