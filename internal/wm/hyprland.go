package wm

import (
	"encoding/json"
	"io"
	"net"
	"os"
	"path/filepath"
	"time"

	"github.com/xremap-go/xremap/internal/logger"
)

// HyprlandClient queries the Hyprland compositor's IPC socket for the
// active window, mirroring the `hyprctl activewindow -j` query the
// `hyprland` Rust crate performs internally.
type HyprlandClient struct {
	socketPath string
	disabled   bool
	failures   int
}

// maxConsecutiveFailures disables the client for the session once
// reached, per spec.md §7 ("repeated failures may disable the client").
const maxConsecutiveFailures = 5

func NewHyprlandClient() *HyprlandClient {
	return &HyprlandClient{socketPath: hyprlandSocketPath()}
}

func hyprlandSocketPath() string {
	sig := os.Getenv("HYPRLAND_INSTANCE_SIGNATURE")
	if sig == "" {
		return ""
	}
	runtimeDir := os.Getenv("XDG_RUNTIME_DIR")
	if runtimeDir == "" {
		runtimeDir = "/tmp"
	}
	return filepath.Join(runtimeDir, "hypr", sig, ".socket.sock")
}

func (c *HyprlandClient) Supported() bool {
	return !c.disabled && c.socketPath != ""
}

type hyprActiveWindow struct {
	Class string `json:"class"`
}

// CurrentApplication sends the "j/activewindow" IPC request and parses
// the JSON reply's "class" field. Any failure (dial, write, decode) is
// treated as "no application", never surfaced as an error, per spec.md
// §7's WM client error taxonomy.
func (c *HyprlandClient) CurrentApplication() (string, bool) {
	if !c.Supported() {
		return "", false
	}

	conn, err := net.DialTimeout("unix", c.socketPath, 500*time.Millisecond)
	if err != nil {
		c.recordFailure(err)
		return "", false
	}
	defer conn.Close()

	_ = conn.SetDeadline(time.Now().Add(500 * time.Millisecond))
	if _, err := conn.Write([]byte("j/activewindow")); err != nil {
		c.recordFailure(err)
		return "", false
	}

	body, err := io.ReadAll(conn)
	if err != nil {
		c.recordFailure(err)
		return "", false
	}

	var win hyprActiveWindow
	if err := json.Unmarshal(body, &win); err != nil {
		c.recordFailure(err)
		return "", false
	}
	c.failures = 0
	if win.Class == "" {
		return "", false
	}
	return win.Class, true
}

func (c *HyprlandClient) recordFailure(err error) {
	c.failures++
	logger.Debugf("hyprland IPC query failed: %v", err)
	if c.failures >= maxConsecutiveFailures {
		logger.Warn("disabling hyprland WM client after repeated IPC failures")
		c.disabled = true
	}
}
