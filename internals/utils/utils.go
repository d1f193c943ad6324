// Package utils contains a few small helpers shared by the cli
package utils

import (
	"context"
	"fmt"
	"os/exec"
	"runtime"
	"time"
)

// OpenBrowser opens the given url in a browser
func OpenBrowser(url string) {
	var err error

	// 15 seconds timeout to open the browser
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	switch runtime.GOOS {
	case "linux":
		err = exec.CommandContext(ctx, "xdg-open", url).Run()
	case "windows":
		err = exec.CommandContext(ctx, "rundll32", "url.dll,FileProtocolHandler", url).Run()
	case "darwin":
		err = exec.CommandContext(ctx, "open", url).Run()
	default:
		err = fmt.Errorf("unsupported platform")
	}
	if err != nil {
		fmt.Println("Could not open browser, please open the following url manually:")
		fmt.Println("  " + url)
	}
}
