package cli

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/huh"
	"gopkg.in/yaml.v3"

	"github.com/getmockd/replayd/pkg/config"
)

// RunInit handles the init command for creating a starter config file.
func RunInit(args []string) error {
	fs := flag.NewFlagSet("init", flag.ContinueOnError)

	force := fs.Bool("force", false, "Overwrite existing config file")
	outPath := fs.String("output", "replayd.yaml", "Output filename")
	fs.StringVar(outPath, "o", "replayd.yaml", "Output filename (shorthand)")
	interactive := fs.Bool("interactive", false, "Interactive mode - prompts for configuration")
	fs.BoolVar(interactive, "i", false, "Interactive mode (shorthand)")

	mode := fs.String("mode", "", "Mode: passthrough, record, or playback")
	target := fs.String("target", "", "Upstream origin")
	cassettePath := fs.String("cassette", "", "Cassette file path")
	policy := fs.String("policy", "", "Unmatched request policy: exception, null, or fallback")
	listen := fs.String("listen", "", "Address to listen on")

	fs.Usage = func() {
		fmt.Fprint(os.Stderr, `Usage: replayd init [flags]

Create a starter replayd configuration file.

Flags:
      --force         Overwrite existing config file
  -o, --output        Output filename (default: replayd.yaml)
  -i, --interactive   Interactive mode - prompts for configuration
      --mode          Mode: passthrough, record, or playback
      --target        Upstream origin
      --cassette      Cassette file path
      --policy        Unmatched request policy
      --listen        Address to listen on

Examples:
  # Create default replayd.yaml
  replayd init

  # Interactive setup
  replayd init -i

  # Preconfigure a recording session
  replayd init --mode record --target https://api.example.com --cassette session.yaml

  # Create JSON config
  replayd init -o replayd.json

  # Overwrite existing config
  replayd init --force
`)
	}

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil
		}
		return err
	}

	if _, err := os.Stat(*outPath); err == nil && !*force {
		return fmt.Errorf("file already exists: %s\n\nUse --force to overwrite", *outPath)
	}

	cfg := config.Default()
	if *interactive {
		if err := promptConfig(cfg); err != nil {
			return err
		}
	} else {
		if *mode != "" {
			cfg.Mode = *mode
		}
		cfg.Target = *target
		cfg.Cassette = *cassettePath
		if *policy != "" {
			cfg.Policy = *policy
		}
		if *listen != "" {
			cfg.Listen = *listen
		}
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	var data []byte
	var err error
	if strings.ToLower(filepath.Ext(*outPath)) == ".json" {
		data, err = json.MarshalIndent(cfg, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to generate JSON: %w", err)
		}
		data = append(data, '\n')
	} else {
		data, err = generateYAMLWithComments(cfg)
		if err != nil {
			return fmt.Errorf("failed to generate YAML: %w", err)
		}
	}

	if err := os.WriteFile(*outPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}

	fmt.Printf("Created %s\n", *outPath)
	fmt.Println()
	fmt.Println("Next steps:")
	switch cfg.Mode {
	case "record":
		fmt.Println("  replayd record")
		fmt.Println("  curl http://localhost:8080/<path>   # traffic is forwarded and captured")
	case "playback":
		fmt.Println("  replayd play")
		fmt.Println("  curl http://localhost:8080/<path>   # answered from the cassette")
	default:
		fmt.Printf("  replayd record --target https://api.example.com --cassette session.yaml\n")
		fmt.Printf("  replayd play --cassette session.yaml\n")
	}
	return nil
}

// generateYAMLWithComments generates YAML output with header comments.
func generateYAMLWithComments(cfg *config.Config) ([]byte, error) {
	yamlData, err := yaml.Marshal(cfg)
	if err != nil {
		return nil, err
	}

	header := `# replayd.yaml
# Generated by: replayd init
#
# Record a session:  replayd record
# Replay it:         replayd play
# Inspect it:        replayd cassette list <file>

`
	return append([]byte(header), yamlData...), nil
}

// promptConfig fills cfg from an interactive form.
func promptConfig(cfg *config.Config) error {
	mode := cfg.Mode
	target := cfg.Target
	cassettePath := cfg.Cassette
	policy := cfg.Policy

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("What should replayd do?").
				Options(
					huh.NewOption("Record live traffic into a cassette", "record"),
					huh.NewOption("Replay a recorded cassette", "playback"),
					huh.NewOption("Pass traffic through untouched", "passthrough"),
				).
				Value(&mode),
			huh.NewInput().
				Title("Upstream target URL").
				Placeholder("https://api.example.com").
				Value(&target).
				Validate(func(s string) error {
					if s == "" {
						return nil
					}
					u, err := url.Parse(s)
					if err != nil || u.Scheme == "" || u.Host == "" {
						return errors.New("must be an absolute URL")
					}
					return nil
				}),
			huh.NewInput().
				Title("Cassette file").
				Placeholder("session.yaml").
				Value(&cassettePath),
			huh.NewSelect[string]().
				Title("What should playback do with unmatched requests?").
				Options(
					huh.NewOption("Fail with a 404 error (exception)", "exception"),
					huh.NewOption("Answer 200 with an empty body (null)", "null"),
					huh.NewOption("Forward to the live target (fallback)", "fallback"),
				).
				Value(&policy),
		),
	)

	if err := form.Run(); err != nil {
		return err
	}

	if cassettePath == "" && mode != "passthrough" {
		cassettePath = "session.yaml"
	}
	cfg.Mode = mode
	cfg.Target = target
	cfg.Cassette = cassettePath
	cfg.Policy = policy
	return nil
}
