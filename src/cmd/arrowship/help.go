// FILE: src/cmd/arrowship/help.go
package main

const helpText = `Arrowship: A columnar log batch exporter.

Usage:
  arrowship [command] [options]
  arrowship [options]

Commands:
  version                  Display version information

Application Control:
  -c, --config <path>      Path to configuration file (default: arrowship.toml)
  -h, --help               Display this help message and exit
  -v, --version            Display version information and exit
  -q, --quiet              Suppress all console output, including errors
      --verbose            Enable per-row debug diagnostics

Configuration Sources (Precedence: CLI > Env > File > Defaults):
  - CLI flags and dotted overrides (--upload.url=...) win over everything
  - ARROWSHIP_* environment variables override file settings
  - TOML configuration file is the primary method

Examples:
  # Replay an Arrow IPC capture into a local frame directory
  arrowship --source.type=ipc --source.ipc.logs_file=logs.arrows

  # Stress the upload path with synthetic batches
  arrowship --source.type=gen --source.gen.batches=1000 --upload.transport=http

  # Start with a custom config
  arrowship -c /etc/arrowship/prod.toml

For detailed configuration options, please refer to the documentation.
`
