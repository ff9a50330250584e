// replayd CLI - Command-line interface for the replayd record/replay proxy
package main

import (
	"fmt"
	"os"

	"github.com/getmockd/replayd/pkg/cli"
)

// Build-time variables set via ldflags
var (
	Version   = "dev"
	Commit    = "none"
	BuildDate = "unknown"
)

// Command represents a registered CLI command.
type Command struct {
	Name     string
	Short    string
	Category string
	Run      func(args []string) error
	Hidden   bool
}

// Registry holds all registered commands.
type Registry struct {
	commands map[string]*Command
	ordered  []*Command
}

func newRegistry() *Registry {
	return &Registry{commands: make(map[string]*Command)}
}

func (r *Registry) register(cmd *Command) {
	r.commands[cmd.Name] = cmd
	r.ordered = append(r.ordered, cmd)
}

func (r *Registry) lookup(name string) (*Command, bool) {
	cmd, ok := r.commands[name]
	return cmd, ok
}

func (r *Registry) isCommand(name string) bool {
	_, ok := r.commands[name]
	return ok
}

// buildRegistry creates the command registry with all CLI commands.
func buildRegistry() *Registry {
	reg := newRegistry()

	// Core
	reg.register(&Command{Name: "record", Short: "Run a recording proxy and capture traffic to a cassette", Category: "Core", Run: cli.RunRecord})
	reg.register(&Command{Name: "play", Short: "Serve recorded responses from a cassette", Category: "Core", Run: cli.RunPlay})
	reg.register(&Command{Name: "init", Short: "Create a starter config file", Category: "Core", Run: cli.RunInit})
	reg.register(&Command{Name: "validate", Short: "Validate cassette files without serving them", Category: "Core", Run: cli.RunValidate})

	// Cassettes
	reg.register(&Command{Name: "cassette", Short: "Inspect and convert cassette files", Category: "Cassettes", Run: cli.RunCassette})

	// Utilities
	reg.register(&Command{
		Name: "version", Short: "Show version information", Category: "Utilities",
		Run: func(args []string) error {
			return cli.RunVersion(cli.BuildInfo{Version: Version, Commit: Commit, BuildDate: BuildDate}, args)
		},
	})

	return reg
}

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	reg := buildRegistry()

	// Determine command and args
	command := ""
	var cmdArgs []string

	switch {
	case len(args) == 0:
		printUsage(reg)
		return nil
	case args[0] == "" || args[0][0] == '-':
		first := args[0]
		switch first {
		case "--help", "-h":
			printUsage(reg)
			return nil
		case "--version", "-v":
			return cli.RunVersion(cli.BuildInfo{
				Version:   Version,
				Commit:    Commit,
				BuildDate: BuildDate,
			}, nil)
		default:
			// Other flags go to record, the primary entry point
			command = "record"
			cmdArgs = args
		}
	case reg.isCommand(args[0]):
		command = args[0]
		cmdArgs = args[1:]
	default:
		return fmt.Errorf("unknown command: %s\n\nRun 'replayd --help' for usage", args[0])
	}

	cmd, ok := reg.lookup(command)
	if !ok {
		return fmt.Errorf("unknown command: %s\n\nRun 'replayd --help' for usage", command)
	}
	return cmd.Run(cmdArgs)
}

func printUsage(reg *Registry) {
	fmt.Print("replayd - Record and replay HTTP traffic for deterministic tests\n\n")
	fmt.Print("Usage:\n")
	fmt.Print("  replayd <command> [flags]      Run a specific command\n")
	fmt.Print("  replayd --help                 Show this help message\n\n")

	// Group commands by category in display order.
	categories := []string{"Core", "Cassettes", "Utilities"}

	groups := make(map[string][]*Command)
	for _, cmd := range reg.ordered {
		if !cmd.Hidden {
			groups[cmd.Category] = append(groups[cmd.Category], cmd)
		}
	}

	for _, cat := range categories {
		cmds := groups[cat]
		if len(cmds) == 0 {
			continue
		}
		fmt.Printf("%s:\n", cat)
		for _, cmd := range cmds {
			fmt.Printf("  %-24s %s\n", cmd.Name, cmd.Short)
		}
		fmt.Println()
	}

	fmt.Print(`Global Flags:
  -h, --help      Show this help message
  -v, --version   Show version information

Examples:
  # Create a starter config
  replayd init

  # Record a session against a live API
  replayd record --target https://api.example.com --cassette session.yaml
  curl http://localhost:8080/users

  # Replay the session without touching the network
  replayd play --cassette session.yaml

  # Fall back to the live API for unrecorded requests
  replayd play --cassette session.yaml --policy fallback --target https://api.example.com

  # Inspect what was captured
  replayd cassette list session.yaml
  replayd cassette show session.yaml 1

  # Check cassettes in CI
  replayd validate session.yaml fixtures/*.yaml

Run 'replayd <command> --help' for more information on a command.
`)
}
