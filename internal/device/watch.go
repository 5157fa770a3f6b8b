package device

import (
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/xremap-go/xremap/internal/logger"
)

// settleDelay absorbs the burst of inotify events udev fires while it's
// still chown'ing/chmod'ing a freshly-created device node.
const settleDelay = 200 * time.Millisecond

// WatchDevices watches /dev/input for node creation, used for --watch=device
// per spec.md §4.8's hot-plug contract. It emits the new device's path once
// IsReady reports the kernel has settled its capabilities; stop closes the
// returned channel and the underlying watcher.
func WatchDevices() (<-chan string, func() error, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, nil, err
	}
	if err := watcher.Add("/dev/input"); err != nil {
		watcher.Close()
		return nil, nil, err
	}

	out := make(chan string)
	go func() {
		defer close(out)
		for {
			select {
			case ev, ok := <-watcher.Events:
				if !ok {
					return
				}
				if ev.Op&(fsnotify.Create) == 0 {
					continue
				}
				if !strings.HasPrefix(filepath.Base(ev.Name), "event") {
					continue
				}
				path := ev.Name
				go func() {
					time.Sleep(settleDelay)
					if IsReady(path) {
						out <- path
					}
				}()
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				logger.Warnf("device watcher error: %v", err)
			}
		}
	}()

	return out, watcher.Close, nil
}

// WatchConfig watches configPath's directory for writes/renames to the
// config file itself, used for --watch=config per spec.md §4.8. Editors
// commonly replace a file via rename-into-place rather than an in-place
// write, so both Write and Create/Rename events naming configPath trigger
// a signal.
func WatchConfig(configPath string) (<-chan struct{}, func() error, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, nil, err
	}
	dir := filepath.Dir(configPath)
	if err := watcher.Add(dir); err != nil {
		watcher.Close()
		return nil, nil, err
	}

	name := filepath.Base(configPath)
	out := make(chan struct{}, 1)
	go func() {
		defer close(out)
		for {
			select {
			case ev, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Base(ev.Name) != name {
					continue
				}
				if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
					continue
				}
				select {
				case out <- struct{}{}:
				default:
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				logger.Warnf("config watcher error: %v", err)
			}
		}
	}()

	return out, watcher.Close, nil
}
