// FILE: src/cmd/arrowship/commands.go
package main

import (
	"fmt"
	"os"

	"arrowship/src/internal/version"
)

// Handles subcommand routing before main app initialization
type CommandRouter struct {
	commands map[string]CommandHandler
}

// Defines the interface for subcommands
type CommandHandler interface {
	Execute(args []string) error
	Description() string
}

// Creates and initializes the command router
func NewCommandRouter() *CommandRouter {
	router := &CommandRouter{
		commands: make(map[string]CommandHandler),
	}

	// Register available commands
	router.commands["version"] = &versionCommand{}
	router.commands["help"] = &helpCommand{}

	return router
}

// Checks for and executes subcommands
func (r *CommandRouter) Route(args []string) error {
	if len(args) < 1 {
		return nil
	}

	// Check for help flags anywhere in args
	for _, arg := range args[1:] { // Skip program name
		if arg == "-h" || arg == "--help" || arg == "help" {
			// Show main help and exit regardless of other flags
			r.commands["help"].Execute(nil)
			os.Exit(0)
		}
	}

	// Check for commands
	if len(args) > 1 {
		cmdName := args[1]

		if handler, exists := r.commands[cmdName]; exists {
			if err := handler.Execute(args[2:]); err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
				os.Exit(1)
			}
			os.Exit(0)
		}

		// Check if it looks like a mistyped command (not a flag)
		if cmdName[0] != '-' {
			fmt.Fprintf(os.Stderr, "Unknown command: %s\n", cmdName)
			fmt.Fprintln(os.Stderr, "\nAvailable commands:")
			r.ShowCommands()
			os.Exit(1)
		}
	}

	return nil
}

// Displays available subcommands
func (r *CommandRouter) ShowCommands() {
	fmt.Fprintln(os.Stderr, "  version    Show version information")
	fmt.Fprintln(os.Stderr, "  help       Display help information")
}

type helpCommand struct{}

func (c *helpCommand) Execute(args []string) error {
	fmt.Print(helpText)
	return nil
}

func (c *helpCommand) Description() string {
	return "Display help information"
}

// versionCommand wrapper
type versionCommand struct{}

func (c *versionCommand) Execute(args []string) error {
	fmt.Println(version.String())
	return nil
}

func (c *versionCommand) Description() string {
	return "Show version information"
}
