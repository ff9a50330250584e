package cli

import (
	"errors"
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/ohler55/ojg/oj"
	"github.com/spf13/cobra"

	"github.com/getmockd/replayd/pkg/cassette"
	"github.com/getmockd/replayd/pkg/cli/internal/output"
)

// RunCassette dispatches the cassette command family. It bridges the
// plain-args registry in cmd/replayd to the cobra tree below.
func RunCassette(args []string) error {
	cassetteCmd.SetArgs(args)
	return cassetteCmd.Execute()
}

var cassetteCmd = &cobra.Command{
	Use:   "cassette",
	Short: "Inspect and convert cassette files",
	Long: `Inspect and convert cassette files.

Cassettes are read as YAML (.yaml, .yml) or JSON (any other extension),
the same detection the record and play commands use.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// cassetteJSON switches the family to JSON output.
var cassetteJSON bool

var casConvertOutput string

var cassetteListCmd = &cobra.Command{
	Use:     "list <file>",
	Aliases: []string{"ls"},
	Short:   "List the transactions in a cassette",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		txns, err := cassette.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("failed to read cassette: %w", err)
		}

		if cassetteJSON {
			return output.JSON(txns)
		}

		if len(txns) == 0 {
			fmt.Printf("No transactions in %s\n", args[0])
			return nil
		}

		w := output.Table()
		_, _ = fmt.Fprintln(w, "#\tID\tMETHOD\tURL\tSTATUS\tDURATION\tRECORDED")
		for i, txn := range txns {
			_, _ = fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%d\t%s\t%s\n",
				i+1, txn.ID, txn.Request.Method, truncateURL(txn.Request.URL, 48),
				txn.Response.StatusCode, formatDuration(txn.Duration),
				txn.RecordedAt.Format(time.RFC3339))
		}
		_ = w.Flush()

		return nil
	},
}

var cassetteShowCmd = &cobra.Command{
	Use:     "show <file> <index|id>",
	Aliases: []string{"get"},
	Short:   "Show one transaction in full",
	Long: `Show one transaction in full.

The transaction is selected by its position in the cassette (1-based,
as printed by 'cassette list') or by its ID. JSON bodies are
pretty-printed; binary bodies are summarized.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		txns, err := cassette.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("failed to read cassette: %w", err)
		}

		txn, err := findTransaction(txns, args[1])
		if err != nil {
			return err
		}

		if cassetteJSON {
			return output.JSON(txn)
		}

		fmt.Printf("ID:         %s\n", txn.ID)
		fmt.Printf("Recorded:   %s\n", txn.RecordedAt.Format(time.RFC3339))
		if txn.Duration > 0 {
			fmt.Printf("Duration:   %s\n", formatDuration(txn.Duration))
		}

		fmt.Printf("\nRequest:\n")
		fmt.Printf("  %s %s\n", txn.Request.Method, txn.Request.URL)
		printHeaders(txn.Request.Headers)
		printBody(txn.Request.Body)

		fmt.Printf("\nResponse:\n")
		status := txn.Response.Status
		if status == "" {
			status = strconv.Itoa(txn.Response.StatusCode)
		}
		fmt.Printf("  %s\n", status)
		printHeaders(txn.Response.Headers)
		printBody(txn.Response.Body)

		return nil
	},
}

var cassetteConvertCmd = &cobra.Command{
	Use:   "convert <file>",
	Short: "Convert a cassette between YAML and JSON",
	Long: `Convert a cassette between YAML and JSON.

The output format is chosen by the output filename extension. Transaction
order, IDs, and bodies are preserved byte for byte.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if casConvertOutput == "" {
			return errors.New("--output is required")
		}

		txns, err := cassette.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("failed to read cassette: %w", err)
		}

		if err := cassette.WriteFile(casConvertOutput, txns); err != nil {
			return fmt.Errorf("failed to write cassette: %w", err)
		}

		fmt.Printf("Converted %d transactions: %s -> %s\n", len(txns), args[0], casConvertOutput)
		return nil
	},
}

// cassetteStats summarizes a cassette for the stats subcommand.
type cassetteStats struct {
	File          string         `json:"file"`
	Transactions  int            `json:"transactions"`
	Methods       map[string]int `json:"methods,omitempty"`
	StatusCodes   map[int]int    `json:"statusCodes,omitempty"`
	Hosts         map[string]int `json:"hosts,omitempty"`
	RequestBytes  int64          `json:"requestBytes"`
	ResponseBytes int64          `json:"responseBytes"`
	TotalDuration time.Duration  `json:"totalDuration,omitempty"`
	FirstRecorded *time.Time     `json:"firstRecorded,omitempty"`
	LastRecorded  *time.Time     `json:"lastRecorded,omitempty"`
}

var cassetteStatsCmd = &cobra.Command{
	Use:   "stats <file>",
	Short: "Show summary statistics for a cassette",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		txns, err := cassette.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("failed to read cassette: %w", err)
		}

		stats := collectStats(args[0], txns)

		if cassetteJSON {
			return output.JSON(stats)
		}

		fmt.Printf("Cassette: %s\n", stats.File)
		fmt.Printf("  Transactions:    %d\n", stats.Transactions)
		if len(stats.Methods) > 0 {
			fmt.Printf("  Methods:\n")
			for _, m := range sortedKeys(stats.Methods) {
				fmt.Printf("    %-8s %d\n", m, stats.Methods[m])
			}
		}
		if len(stats.StatusCodes) > 0 {
			codes := make([]int, 0, len(stats.StatusCodes))
			for c := range stats.StatusCodes {
				codes = append(codes, c)
			}
			sort.Ints(codes)
			fmt.Printf("  Status codes:\n")
			for _, c := range codes {
				fmt.Printf("    %-8d %d\n", c, stats.StatusCodes[c])
			}
		}
		if len(stats.Hosts) > 0 {
			fmt.Printf("  Hosts:\n")
			for _, h := range sortedKeys(stats.Hosts) {
				fmt.Printf("    %-24s %d\n", h, stats.Hosts[h])
			}
		}
		fmt.Printf("  Request bodies:  %s\n", formatBytes(stats.RequestBytes))
		fmt.Printf("  Response bodies: %s\n", formatBytes(stats.ResponseBytes))
		if stats.TotalDuration > 0 && stats.Transactions > 0 {
			avg := stats.TotalDuration / time.Duration(stats.Transactions)
			fmt.Printf("  Total duration:  %s (avg %s)\n", formatDuration(stats.TotalDuration), formatDuration(avg))
		}
		if stats.FirstRecorded != nil && stats.LastRecorded != nil {
			fmt.Printf("  Recorded:        %s - %s\n",
				stats.FirstRecorded.Format(time.RFC3339), stats.LastRecorded.Format(time.RFC3339))
		}

		return nil
	},
}

// findTransaction resolves a selector that is either a 1-based index or
// a transaction ID. Numeric selectors are tried as an index first.
func findTransaction(txns []*cassette.Transaction, selector string) (*cassette.Transaction, error) {
	if n, err := strconv.Atoi(selector); err == nil {
		if n < 1 || n > len(txns) {
			return nil, fmt.Errorf("index %d out of range (cassette has %d transactions)", n, len(txns))
		}
		return txns[n-1], nil
	}
	for _, txn := range txns {
		if txn.ID == selector {
			return txn, nil
		}
	}
	return nil, fmt.Errorf("transaction not found: %s", selector)
}

func collectStats(file string, txns []*cassette.Transaction) *cassetteStats {
	stats := &cassetteStats{
		File:         file,
		Transactions: len(txns),
		Methods:      make(map[string]int),
		StatusCodes:  make(map[int]int),
		Hosts:        make(map[string]int),
	}
	for _, txn := range txns {
		stats.Methods[txn.Request.Method]++
		stats.StatusCodes[txn.Response.StatusCode]++
		if u, err := url.Parse(txn.Request.URL); err == nil && u.Host != "" {
			stats.Hosts[u.Host]++
		}
		stats.RequestBytes += int64(len(txn.Request.Body))
		stats.ResponseBytes += int64(len(txn.Response.Body))
		stats.TotalDuration += txn.Duration

		t := txn.RecordedAt
		if stats.FirstRecorded == nil || t.Before(*stats.FirstRecorded) {
			tt := t
			stats.FirstRecorded = &tt
		}
		if stats.LastRecorded == nil || t.After(*stats.LastRecorded) {
			tt := t
			stats.LastRecorded = &tt
		}
	}
	return stats
}

func printHeaders(headers map[string][]string) {
	if len(headers) == 0 {
		return
	}
	fmt.Printf("  Headers:\n")
	keys := make([]string, 0, len(headers))
	for k := range headers {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Printf("    %s: %s\n", k, strings.Join(headers[k], ", "))
	}
}

func printBody(body cassette.Body) {
	if len(body) == 0 {
		return
	}
	fmt.Printf("  Body:\n")
	fmt.Println(indentLines(renderBody(body), "    "))
}

// renderBody formats a body for display: pretty-printed when it is
// JSON, raw when it is text, summarized when it is binary.
func renderBody(body cassette.Body) string {
	var v interface{}
	if err := oj.Unmarshal(body, &v); err == nil {
		return oj.JSON(v, 2)
	}
	if utf8.Valid(body) {
		return strings.TrimRight(string(body), "\n")
	}
	return fmt.Sprintf("(%d bytes binary)", len(body))
}

func indentLines(s, prefix string) string {
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		if line != "" {
			lines[i] = prefix + line
		}
	}
	return strings.Join(lines, "\n")
}

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Helper functions

func formatDuration(d time.Duration) string {
	if d == 0 {
		return "-"
	}
	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
	if d < time.Minute {
		return fmt.Sprintf("%.1fs", d.Seconds())
	}
	return d.Round(time.Second).String()
}

func formatBytes(bytes int64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(bytes)/float64(div), "KMGTPE"[exp])
}

func truncateURL(u string, maxLen int) string {
	if len(u) <= maxLen {
		return u
	}
	return u[:maxLen-3] + "..."
}

func init() {
	cassetteCmd.PersistentFlags().BoolVar(&cassetteJSON, "json", false, "Output in JSON format")

	cassetteCmd.AddCommand(cassetteListCmd)
	cassetteCmd.AddCommand(cassetteShowCmd)

	cassetteCmd.AddCommand(cassetteConvertCmd)
	cassetteConvertCmd.Flags().StringVarP(&casConvertOutput, "output", "o", "", "Output file path (format chosen by extension)")

	cassetteCmd.AddCommand(cassetteStatsCmd)
}
