package device

import (
	"errors"
	"fmt"
	"time"

	"github.com/xremap-go/xremap/internal/config"
	"github.com/xremap-go/xremap/internal/handler"
	"github.com/xremap-go/xremap/internal/logger"
	"github.com/xremap-go/xremap/internal/output"
	"github.com/xremap-go/xremap/internal/uinputdevice"
)

// pollInterval is how often the override-timeout check runs; spec.md §4.4(e)
// only needs second-granularity expiry, but polling more often keeps the
// replayed trigger key's latency low.
const pollInterval = 50 * time.Millisecond

// Options configures a Loop run, mirroring spec.md §6's CLI surface.
type Options struct {
	ConfigPath  string
	DeviceOpts  []string
	IgnoreOpts  []string
	Mouse       bool
	WatchDevice bool
	WatchConfig bool
}

// rawEvent pairs a device's raw read with which Source produced it, so a
// read error can be attributed to the right device for reselect handling.
type rawEvent struct {
	events []handler.Event
	err    error
	src    *Source
}

// Loop owns the set of grabbed Sources, the translation Handler, and the
// output Dispatcher, and drives them from one select loop per spec.md §4.10
// and §5's single-consumer concurrency model: every Handler/Dispatcher call
// happens on this one goroutine, so neither needs internal locking. Each
// grabbed Source is read from its own goroutine (mirroring the teacher's
// per-device capture goroutines) that feeds this loop's shared channel.
type Loop struct {
	opts Options
	h    *handler.Handler
	disp *output.Dispatcher

	sources   map[string]*Source
	events    chan rawEvent
	stop      chan struct{}
	tabletDev *uinputdevice.TabletDevice
}

// New builds a Loop. dev is the already-opened synthetic output device
// (*internal/uinputdevice.Device satisfies output.Device); the caller owns
// opening and closing it, and keeps ownership of wiring config/wm into h.
func New(opts Options, dev output.Device, h *handler.Handler) *Loop {
	return &Loop{
		opts:    opts,
		h:       h,
		disp:    output.New(dev),
		sources: make(map[string]*Source),
		events:  make(chan rawEvent, 64),
		stop:    make(chan struct{}),
	}
}

// Run grabs the selected devices and processes events until Stop is called
// or a fatal error occurs. It returns nil on clean shutdown.
func (l *Loop) Run() error {
	if err := l.selectAndGrab(); err != nil {
		return err
	}
	defer l.closeAllSources()
	defer l.releaseHeldKeys()
	defer l.closeTabletDevice()

	var deviceWatch <-chan string
	var deviceWatchClose func() error
	if l.opts.WatchDevice {
		var err error
		deviceWatch, deviceWatchClose, err = WatchDevices()
		if err != nil {
			return fmt.Errorf("starting device watcher: %w", err)
		}
		defer deviceWatchClose()
	}

	var configWatch <-chan struct{}
	var configWatchClose func() error
	if l.opts.WatchConfig {
		var err error
		configWatch, configWatchClose, err = WatchConfig(l.opts.ConfigPath)
		if err != nil {
			return fmt.Errorf("starting config watcher: %w", err)
		}
		defer configWatchClose()
	}

	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-l.stop:
			return nil

		case re := <-l.events:
			if re.err != nil {
				if err := l.handleSourceError(re.src, re.err); err != nil {
					return err
				}
				continue
			}
			if err := l.disp.Dispatch(l.h.HandleEvents(re.events)); err != nil {
				return fmt.Errorf("dispatching output: %w", err)
			}

		case <-ticker.C:
			if actions := l.h.TimeoutOverride(); len(actions) > 0 {
				if err := l.disp.Dispatch(actions); err != nil {
					return fmt.Errorf("dispatching override timeout: %w", err)
				}
			}

		case path, ok := <-deviceWatch:
			if !ok {
				deviceWatch = nil
				continue
			}
			l.maybeGrabHotplugged(path)

		case _, ok := <-configWatch:
			if !ok {
				configWatch = nil
				continue
			}
			l.reloadConfig()
		}
	}
}

// Stop requests a clean shutdown; Run returns nil once it observes this.
func (l *Loop) Stop() {
	close(l.stop)
}

func (l *Loop) selectAndGrab() error {
	candidates, err := Enumerate()
	if err != nil {
		return err
	}
	PrintList(candidates)

	selected := Select(candidates, l.opts.DeviceOpts, l.opts.IgnoreOpts, l.opts.Mouse)
	if len(selected) == 0 {
		return errors.New("no input devices matched selection")
	}

	for _, c := range selected {
		l.grab(c.Path, c.isTablet())
	}
	if len(l.sources) == 0 {
		return errors.New("failed to grab any selected input device")
	}
	return nil
}

func (l *Loop) grab(path string, tablet bool) {
	src, err := Open(path)
	if err != nil {
		logger.Warnf("skipping %s: %v", path, err)
		return
	}
	l.sources[path] = src
	logger.Infof("grabbed %s (%s)", src.Path, src.Name)
	if tablet {
		l.ensureTabletDevice()
	}
	go l.readLoop(src)
}

// ensureTabletDevice opens the second, EV_ABS-capable uinput device the
// first time a tablet source is grabbed, per spec.md §6's second virtual
// device identity ("xremap tablet pid=<pid>"). A failure here is logged
// rather than fatal: the tablet's KEY/REL stream still flows through the
// combined device normally, it just loses ABS passthrough.
func (l *Loop) ensureTabletDevice() {
	if l.tabletDev != nil {
		return
	}
	dev, err := uinputdevice.OpenTablet(uinputdevice.DefaultBusType)
	if err != nil {
		logger.Warnf("opening tablet output device: %v", err)
		return
	}
	l.tabletDev = dev
	l.disp.SetTabletDevice(dev)
	logger.Info("opened tablet output device")
}

func (l *Loop) closeTabletDevice() {
	if l.tabletDev == nil {
		return
	}
	if err := l.tabletDev.Close(); err != nil {
		logger.Warnf("closing tablet output device: %v", err)
	}
}

// readLoop is the per-device goroutine that blocks on Source.Read and
// forwards every batch (or error) onto the loop's shared channel, matching
// the teacher's one-goroutine-per-device capture pattern.
func (l *Loop) readLoop(src *Source) {
	for {
		events, err := src.Read()
		select {
		case l.events <- rawEvent{events: events, err: err, src: src}:
		case <-l.stop:
			return
		}
		if err != nil {
			return
		}
	}
}

// handleSourceError implements spec.md §7's device-error taxonomy: a
// physically removed device (ErrDeviceGone) is dropped and triggers a
// reselect pass that grabs every selected device not already held, so a
// device that has already reappeared is picked back up (later arrivals
// are grabbed by the --watch=device watcher); anything else is fatal.
func (l *Loop) handleSourceError(src *Source, err error) error {
	if !errors.Is(err, ErrDeviceGone) {
		return fmt.Errorf("fatal device error on %s: %w", src.Path, err)
	}

	logger.Warnf("device %s disappeared", src.Path)
	src.Close()
	delete(l.sources, src.Path)

	candidates, err := Enumerate()
	if err != nil {
		logger.Warnf("re-enumerating devices after removal: %v", err)
		return nil
	}
	for _, c := range Select(candidates, l.opts.DeviceOpts, l.opts.IgnoreOpts, l.opts.Mouse) {
		if _, already := l.sources[c.Path]; !already {
			l.grab(c.Path, c.isTablet())
		}
	}
	return nil
}

// maybeGrabHotplugged grabs a newly-appeared device if device selection
// would have picked it, per spec.md §4.8's --watch=device contract.
func (l *Loop) maybeGrabHotplugged(path string) {
	if _, already := l.sources[path]; already {
		return
	}
	candidates, err := Enumerate()
	if err != nil {
		logger.Warnf("re-enumerating devices after hotplug: %v", err)
		return
	}
	for _, c := range Select(candidates, l.opts.DeviceOpts, l.opts.IgnoreOpts, l.opts.Mouse) {
		if c.Path == path {
			l.grab(path, c.isTablet())
			return
		}
	}
}

// reloadConfig re-parses the config file and installs it on the handler,
// per spec.md §4.8's --watch=config contract. A parse error is logged and
// the previous config stays active rather than crashing the process.
func (l *Loop) reloadConfig() {
	cfg, err := config.Load(l.opts.ConfigPath)
	if err != nil {
		logger.Errorf("config reload failed, keeping previous config: %v", err)
		return
	}
	l.releaseHeldKeys()
	l.h.Reload(cfg)
	logger.Info("config reloaded")
}

// releaseHeldKeys synthesizes a release for every key the dispatcher
// believes is still held downstream, per spec.md §4.6's terminal-releases
// invariant. Called before a config reload takes effect and deferred
// from Run so process shutdown never leaves a key stuck down on the
// synthetic device.
func (l *Loop) releaseHeldKeys() {
	if err := l.disp.ReleaseAll(); err != nil {
		logger.Warnf("releasing held keys: %v", err)
	}
}

func (l *Loop) closeAllSources() {
	for _, src := range l.sources {
		src.Close()
	}
}
