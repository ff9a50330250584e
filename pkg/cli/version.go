package cli

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"runtime"
	"runtime/debug"

	"github.com/getmockd/replayd/pkg/cli/internal/output"
)

// BuildInfo carries the version identifiers injected via ldflags.
type BuildInfo struct {
	Version   string
	Commit    string
	BuildDate string
}

// VersionOutput represents JSON output format
type VersionOutput struct {
	Version string `json:"version"`
	Commit  string `json:"commit"`
	Date    string `json:"date"`
	Go      string `json:"go"`
	OS      string `json:"os"`
	Arch    string `json:"arch"`
}

// RunVersion handles the version command.
func RunVersion(info BuildInfo, args []string) error {
	fs := flag.NewFlagSet("version", flag.ContinueOnError)

	jsonOut := fs.Bool("json", false, "Output as JSON")

	fs.Usage = func() {
		fmt.Fprint(os.Stderr, `Usage: replayd version [flags]

Show version information.

Flags:
      --json   Output as JSON
`)
	}

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil
		}
		return err
	}

	out := resolveVersion(info)

	if *jsonOut {
		return output.JSON(out)
	}

	v := out.Version
	if len(v) > 0 && v[0] != 'v' && v != "dev" && v != "(devel)" {
		v = "v" + v
	}
	fmt.Printf("replayd %s (%s, %s)\n", v, out.Commit, out.Date)
	fmt.Printf("%s %s/%s\n", out.Go, out.OS, out.Arch)
	return nil
}

// resolveVersion fills identifiers the build left at their defaults
// from the binary's embedded build info.
func resolveVersion(info BuildInfo) VersionOutput {
	version := info.Version
	commit := info.Commit
	date := info.BuildDate

	if bi, ok := debug.ReadBuildInfo(); ok {
		if version == "dev" {
			version = bi.Main.Version
		}
		for _, setting := range bi.Settings {
			switch setting.Key {
			case "vcs.revision":
				if commit == "none" {
					commit = setting.Value
				}
			case "vcs.time":
				if date == "unknown" {
					date = setting.Value
				}
			case "vcs.modified":
				if setting.Value == "true" {
					commit += "-dirty"
				}
			}
		}
	}

	return VersionOutput{
		Version: version,
		Commit:  commit,
		Date:    date,
		Go:      runtime.Version(),
		OS:      runtime.GOOS,
		Arch:    runtime.GOARCH,
	}
}
