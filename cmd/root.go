package cmd

import (
	"github.com/spf13/cobra"
)

// Version is overridden at build time via -ldflags -X.
var Version = "0.1.0-dev"

var rootCmd = &cobra.Command{
	Use:   "xremap [flags] <config.yaml>",
	Short: "A Linux input-event remapper",
	Long: `xremap grabs evdev character devices, translates their events through
a declarative modmap/keymap configuration, and republishes the result on a
synthetic uinput device.`,
	Args:         cobra.MatchAll(cobra.MaximumNArgs(1), requireConfigArgUnlessCompletions),
	SilenceUsage: true,
	RunE:         runRemap,
}

// requireConfigArgUnlessCompletions allows --completions to run without a
// config path, since it only prints a script and exits.
func requireConfigArgUnlessCompletions(cmd *cobra.Command, args []string) error {
	if runFlags.completions != "" {
		return nil
	}
	return cobra.ExactArgs(1)(cmd, args)
}

var runFlags struct {
	devices     []string
	ignore      []string
	watch       string
	mouse       bool
	daemon      bool
	completions string
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.Version = Version
	rootCmd.SetVersionTemplate(`{{with .Name}}{{printf "%s " .}}{{end}}{{printf "version %s\n" .Version}}`)

	flags := rootCmd.Flags()
	flags.StringArrayVar(&runFlags.devices, "device", nil, "device name or path to remap (repeatable); default: auto-detect keyboards")
	flags.StringArrayVar(&runFlags.ignore, "ignore", nil, "device name or path to exclude from selection, auto-detected or explicit (repeatable)")
	flags.Var(&watchValue{}, "watch", "enable hot-plug/reload watching: device, config, or both (bare --watch means both)")
	flags.Lookup("watch").NoOptDefVal = "device,config"
	flags.BoolVar(&runFlags.mouse, "mouse", false, "also grab auto-detected mouse devices")
	flags.BoolVar(&runFlags.daemon, "daemon", false, "log to a file instead of stderr and detach-friendly output")
	flags.StringVar(&runFlags.completions, "completions", "", "print a shell completion script (bash, zsh, fish, powershell) and exit")

	rootCmd.AddCommand(versionCmd)
}

// watchValue implements pflag.Value so --watch, --watch=device,
// --watch=config, and --watch=device,config are all accepted, per spec.md
// §4's "--watch[=device|config]" grammar.
type watchValue struct{}

func (w *watchValue) String() string {
	return runFlags.watch
}

func (w *watchValue) Set(s string) error {
	if s == "" {
		s = "device,config"
	}
	runFlags.watch = s
	return nil
}

func (w *watchValue) Type() string { return "string" }
