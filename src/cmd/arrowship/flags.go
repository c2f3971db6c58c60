// FILE: src/cmd/arrowship/flags.go
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"arrowship/src/internal/config"
)

// FlagConfig carries command-line state needed before the config loads
type FlagConfig struct {
	ConfigFile  string
	ShowVersion bool
	Quiet       bool
	Verbose     bool

	// Logging overrides applied on top of the loaded config
	LogOutput  string
	LogLevel   string
	LogDir     string
	LogConsole string
}

// ParseFlags splits os.Args style arguments into named flags and dotted
// configuration overrides. Dotted arguments (--upload.url=...) bypass the
// flag set and feed the config loader as CLI-source values.
func ParseFlags(args []string) (*FlagConfig, []string, error) {
	var flagArgs, configArgs []string

	for i := 0; i < len(args); i++ {
		arg := args[i]
		name, hasValue := flagName(arg)
		if strings.Contains(name, ".") {
			configArgs = append(configArgs, arg)
			// Space-separated value belongs to the override
			if !hasValue && i+1 < len(args) && !strings.HasPrefix(args[i+1], "-") {
				i++
				configArgs = append(configArgs, args[i])
			}
			continue
		}
		flagArgs = append(flagArgs, arg)
	}

	flagCfg := &FlagConfig{}

	fs := flag.NewFlagSet("arrowship", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.Usage = func() {}

	// General flags, short aliases share the destination
	fs.StringVar(&flagCfg.ConfigFile, "config", "", "Config file path")
	fs.StringVar(&flagCfg.ConfigFile, "c", "", "Config file path")
	fs.BoolVar(&flagCfg.ShowVersion, "version", false, "Show version information")
	fs.BoolVar(&flagCfg.ShowVersion, "v", false, "Show version information")
	fs.BoolVar(&flagCfg.Quiet, "quiet", false, "Suppress all console output")
	fs.BoolVar(&flagCfg.Quiet, "q", false, "Suppress all console output")
	fs.BoolVar(&flagCfg.Verbose, "verbose", false, "Enable per-row debug diagnostics")

	// Logging flags
	fs.StringVar(&flagCfg.LogOutput, "log-output", "", "Log output: file, stdout, stderr, both, none (overrides config)")
	fs.StringVar(&flagCfg.LogLevel, "log-level", "", "Log level: debug, info, warn, error (overrides config)")
	fs.StringVar(&flagCfg.LogDir, "log-dir", "", "Log directory (when using file output)")
	fs.StringVar(&flagCfg.LogConsole, "log-console", "", "Console target: stdout, stderr, split (overrides config)")

	if err := fs.Parse(flagArgs); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			customUsage()
			return nil, nil, err
		}
		return nil, nil, err
	}

	if len(fs.Args()) > 0 {
		return nil, nil, fmt.Errorf("unexpected argument: %s", fs.Args()[0])
	}

	// Validate log-output flag if provided
	if flagCfg.LogOutput != "" {
		validOutputs := map[string]bool{
			"file": true, "stdout": true, "stderr": true,
			"both": true, "none": true,
		}
		if !validOutputs[flagCfg.LogOutput] {
			return nil, nil, fmt.Errorf("invalid log-output: %s (valid: file, stdout, stderr, both, none)", flagCfg.LogOutput)
		}
	}

	// Validate log-level flag if provided
	if flagCfg.LogLevel != "" {
		if _, err := parseLogLevel(flagCfg.LogLevel); err != nil {
			return nil, nil, fmt.Errorf("invalid log-level: %s (valid: debug, info, warn, error)", flagCfg.LogLevel)
		}
	}

	// Validate log-console flag if provided
	if flagCfg.LogConsole != "" {
		validTargets := map[string]bool{
			"stdout": true, "stderr": true, "split": true,
		}
		if !validTargets[flagCfg.LogConsole] {
			return nil, nil, fmt.Errorf("invalid log-console: %s (valid: stdout, stderr, split)", flagCfg.LogConsole)
		}
	}

	return flagCfg, configArgs, nil
}

func customUsage() {
	fmt.Fprintf(os.Stderr, "Arrowship - Columnar Log Batch Exporter\n\n")
	fmt.Fprintf(os.Stderr, "Usage: %s [options] [--section.key=value ...]\n\n", os.Args[0])
	fmt.Fprintf(os.Stderr, "Options:\n")

	// General options
	fmt.Fprintf(os.Stderr, "\nGeneral:\n")
	fmt.Fprintf(os.Stderr, "  -config string\n\tConfig file path\n")
	fmt.Fprintf(os.Stderr, "  -version\n\tShow version information\n")
	fmt.Fprintf(os.Stderr, "  -quiet\n\tSuppress all console output\n")
	fmt.Fprintf(os.Stderr, "  -verbose\n\tEnable per-row debug diagnostics\n")

	// Logging options
	fmt.Fprintf(os.Stderr, "\nLogging:\n")
	fmt.Fprintf(os.Stderr, "  -log-output string\n\tLog output: file, stdout, stderr, both, none (overrides config)\n")
	fmt.Fprintf(os.Stderr, "  -log-level string\n\tLog level: debug, info, warn, error (overrides config)\n")
	fmt.Fprintf(os.Stderr, "  -log-dir string\n\tLog directory (when using file output)\n")
	fmt.Fprintf(os.Stderr, "  -log-console string\n\tConsole target: stdout, stderr, split (overrides config)\n")

	fmt.Fprintf(os.Stderr, "\nConfig Overrides:\n")
	fmt.Fprintf(os.Stderr, "  Any configuration key can be set with a dotted flag:\n")
	fmt.Fprintf(os.Stderr, "  --upload.url=https://ingest.example.com/v1/logs --export.compression=false\n")

	fmt.Fprintf(os.Stderr, "\nExamples:\n")
	fmt.Fprintf(os.Stderr, "  # Replay an Arrow IPC capture against a local directory\n")
	fmt.Fprintf(os.Stderr, "  %s --source.type=ipc --source.ipc.logs_file=logs.arrows --upload.transport=file\n\n", os.Args[0])

	fmt.Fprintf(os.Stderr, "  # Generate synthetic batches and upload over HTTP\n")
	fmt.Fprintf(os.Stderr, "  %s --source.type=gen --upload.transport=http --upload.url=https://ingest.example.com/v1/logs\n\n", os.Args[0])

	fmt.Fprintf(os.Stderr, "  # Run with custom config and override log level\n")
	fmt.Fprintf(os.Stderr, "  %s --config /etc/arrowship.toml --log-level warn\n\n", os.Args[0])

	fmt.Fprintf(os.Stderr, "Environment Variables:\n")
	fmt.Fprintf(os.Stderr, "  ARROWSHIP_CONFIG_FILE   Config file path\n")
	fmt.Fprintf(os.Stderr, "  ARROWSHIP_CONFIG_DIR    Config directory\n")
	fmt.Fprintf(os.Stderr, "  ARROWSHIP_<SECTION>_<KEY>  Any configuration key (e.g. ARROWSHIP_UPLOAD_URL)\n")
}

// flagName strips leading dashes and reports whether the argument
// carries an inline =value.
func flagName(arg string) (string, bool) {
	if !strings.HasPrefix(arg, "-") {
		return "", false
	}
	name := strings.TrimLeft(arg, "-")
	if eq := strings.IndexByte(name, '='); eq >= 0 {
		return name[:eq], true
	}
	return name, false
}

// applyFlagOverrides layers named flags on top of the loaded config.
// Flags outrank every other configuration source.
func applyFlagOverrides(cfg *config.Config, flagCfg *FlagConfig) {
	if flagCfg.Quiet {
		cfg.Quiet = true
	}
	if flagCfg.Verbose {
		cfg.Verbose = true
	}

	if cfg.Logging == nil {
		cfg.Logging = config.DefaultLogConfig()
	}
	if flagCfg.LogOutput != "" {
		cfg.Logging.Output = flagCfg.LogOutput
	}
	if flagCfg.LogLevel != "" {
		cfg.Logging.Level = flagCfg.LogLevel
	}
	if flagCfg.LogDir != "" {
		if cfg.Logging.File == nil {
			cfg.Logging.File = config.DefaultLogConfig().File
		}
		cfg.Logging.File.Directory = flagCfg.LogDir
	}
	if flagCfg.LogConsole != "" {
		if cfg.Logging.Console == nil {
			cfg.Logging.Console = config.DefaultLogConfig().Console
		}
		cfg.Logging.Console.Target = flagCfg.LogConsole
	}
}
