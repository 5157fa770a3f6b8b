package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/xremap-go/xremap/internal/config"
	"github.com/xremap-go/xremap/internal/device"
	"github.com/xremap-go/xremap/internal/handler"
	"github.com/xremap-go/xremap/internal/logger"
	"github.com/xremap-go/xremap/internal/uinputdevice"
	"github.com/xremap-go/xremap/internal/wm"
)

// runRemap is rootCmd's RunE: it implements spec.md §6's CLI contract —
// grab the selected devices, translate through the given config, and
// republish on a synthetic uinput device until a signal or a fatal error,
// per spec.md's exit-code contract (0 clean shutdown, non-zero fatal).
func runRemap(cmd *cobra.Command, args []string) error {
	if runFlags.completions != "" {
		return printCompletions(runFlags.completions)
	}

	if runFlags.daemon {
		logFile, err := logger.SetupFileLogging()
		if err != nil {
			return fmt.Errorf("setting up daemon logging: %w", err)
		}
		defer logFile.Close()
	}

	configPath := args[0]
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	client := wm.Detect()
	h := handler.New(cfg, client)

	out, err := uinputdevice.Open()
	if err != nil {
		return fmt.Errorf("opening virtual output device: %w", err)
	}
	defer out.Close()

	watchDevice, watchConfig := parseWatch(runFlags.watch)
	loop := device.New(device.Options{
		ConfigPath:  configPath,
		DeviceOpts:  runFlags.devices,
		IgnoreOpts:  runFlags.ignore,
		Mouse:       runFlags.mouse,
		WatchDevice: watchDevice,
		WatchConfig: watchConfig,
	}, out, h)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		logger.Info("received shutdown signal")
		loop.Stop()
	}()

	return loop.Run()
}

// parseWatch splits --watch's value ("device", "config", or
// "device,config") into the two independent toggles device.Options needs.
func parseWatch(raw string) (watchDevice, watchConfig bool) {
	if raw == "" {
		return false, false
	}
	for _, part := range strings.Split(raw, ",") {
		switch strings.TrimSpace(part) {
		case "device":
			watchDevice = true
		case "config":
			watchConfig = true
		}
	}
	return watchDevice, watchConfig
}

func printCompletions(shell string) error {
	switch shell {
	case "bash":
		return rootCmd.GenBashCompletionV2(os.Stdout, true)
	case "zsh":
		return rootCmd.GenZshCompletion(os.Stdout)
	case "fish":
		return rootCmd.GenFishCompletion(os.Stdout, true)
	case "powershell":
		return rootCmd.GenPowerShellCompletionWithDesc(os.Stdout)
	default:
		return fmt.Errorf("unsupported shell %q (want bash, zsh, fish, or powershell)", shell)
	}
}
