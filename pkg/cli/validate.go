package cli

import (
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/getmockd/replayd/pkg/cli/internal/output"
	"github.com/getmockd/replayd/pkg/validation"
)

// RunValidate checks cassette files against the cassette schema
// without serving them.
func RunValidate(args []string) error {
	fs := flag.NewFlagSet("validate", flag.ContinueOnError)

	jsonOut := fs.Bool("json", false, "Output results as JSON")
	quiet := fs.Bool("quiet", false, "Only report failures")
	fs.BoolVar(quiet, "q", false, "Only report failures (shorthand)")

	fs.Usage = func() {
		fmt.Fprint(os.Stderr, `Usage: replayd validate <cassette> [<cassette>...]

Validate cassette files without serving them.

This command checks:
  - JSON or YAML syntax (format detected from the file extension)
  - Schema validation (required fields, valid values)
  - Per-transaction integrity (parseable URLs, sane status codes)

Flags:
      --json    Output results as JSON
  -q, --quiet   Only report failures

Examples:
  # Validate a recorded session
  replayd validate session.yaml

  # Validate everything in a directory
  replayd validate cassettes/*.yaml
`)
	}

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil
		}
		return err
	}

	paths := fs.Args()
	if len(paths) == 0 {
		fs.Usage()
		return errors.New("at least one cassette file is required")
	}

	type fileResult struct {
		File string `json:"file"`
		*validation.Result
	}

	results := make([]fileResult, 0, len(paths))
	invalid := 0
	for _, path := range paths {
		result, err := validation.ValidateFile(path)
		if err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
		results = append(results, fileResult{File: path, Result: result})
		if !result.Valid {
			invalid++
		}
	}

	if *jsonOut {
		if err := output.JSON(results); err != nil {
			return err
		}
	} else {
		for _, r := range results {
			if r.Valid {
				if !*quiet {
					fmt.Printf("%s: valid (%d transactions)\n", r.File, r.Transactions)
				}
				continue
			}
			fmt.Printf("%s: %d issue(s)\n", r.File, len(r.Issues))
			for _, issue := range r.Issues {
				fmt.Printf("  - %s\n", issue.Error())
			}
		}
	}

	if invalid > 0 {
		return fmt.Errorf("validation failed for %d of %d file(s)", invalid, len(paths))
	}
	return nil
}
