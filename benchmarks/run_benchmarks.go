// Package main runs the replayd benchmark suites and outputs results to JSON/Markdown.
// Run with: go run benchmarks/run_benchmarks.go
package main

import (
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"runtime"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// BenchmarkResults holds all benchmark data
type BenchmarkResults struct {
	Timestamp   string           `json:"timestamp"`
	Environment Environment      `json:"environment"`
	Suites      map[string]Suite `json:"suites"`
	Summary     Summary          `json:"summary"`
}

type Environment struct {
	OS        string `json:"os"`
	Arch      string `json:"arch"`
	CPU       string `json:"cpu"`
	NumCPU    int    `json:"num_cpu"`
	GoVersion string `json:"go_version"`
}

type Suite struct {
	Benchmarks []Benchmark `json:"benchmarks"`
}

type Benchmark struct {
	Name        string  `json:"name"`
	NsPerOp     float64 `json:"ns_per_op"`
	OpsPerSec   float64 `json:"ops_per_sec"`
	BytesPerOp  int64   `json:"bytes_per_op"`
	AllocsPerOp int64   `json:"allocs_per_op"`
}

type Summary struct {
	Match    SuiteSummary   `json:"match"`
	Store    SuiteSummary   `json:"store"`
	Cassette SuiteSummary   `json:"cassette"`
	Record   SuiteSummary   `json:"record"`
	Replay   SuiteSummary   `json:"replay"`
	Startup  StartupSummary `json:"startup"`
}

type SuiteSummary struct {
	ThroughputOpsPerSec float64 `json:"throughput_ops_per_sec"`
	LatencyNs           float64 `json:"latency_ns"`
	Claim               string  `json:"claim"`
}

type StartupSummary struct {
	PlaybackNs float64 `json:"playback_ns"`
	RecordNs   float64 `json:"record_ns"`
	Claim      string  `json:"claim"`
}

func main() {
	fmt.Println("==========================================")
	fmt.Println("   REPLAYD BENCHMARK SUITE")
	fmt.Println("==========================================")
	fmt.Println()

	results := BenchmarkResults{
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Environment: Environment{
			OS:        runtime.GOOS,
			Arch:      runtime.GOARCH,
			CPU:       getCPUInfo(),
			NumCPU:    runtime.NumCPU(),
			GoVersion: runtime.Version(),
		},
		Suites: make(map[string]Suite),
	}

	// Run benchmark suites
	fmt.Println("Running comparator benchmarks...")
	results.Suites["match"] = Suite{Benchmarks: runBenchmarks("BenchmarkMatch")}

	fmt.Println("Running store benchmarks...")
	results.Suites["store"] = Suite{Benchmarks: runBenchmarks("BenchmarkStore")}

	fmt.Println("Running cassette serializer benchmarks...")
	results.Suites["cassette"] = Suite{Benchmarks: runBenchmarks("BenchmarkCassette")}

	fmt.Println("Running record benchmarks...")
	results.Suites["record"] = Suite{Benchmarks: runBenchmarks("BenchmarkRecord")}

	fmt.Println("Running replay benchmarks...")
	results.Suites["replay"] = Suite{Benchmarks: runBenchmarks("BenchmarkReplay")}

	fmt.Println("Running session startup benchmarks...")
	results.Suites["startup"] = Suite{Benchmarks: runBenchmarks("BenchmarkSessionStartup")}

	// Calculate summary
	results.Summary = calculateSummary(results.Suites)

	// Write JSON
	jsonPath := "benchmarks/results/latest.json"
	writeJSON(results, jsonPath)
	fmt.Printf("\nJSON results: %s\n", jsonPath)

	// Write Markdown
	mdPath := "benchmarks/results/LATEST.md"
	writeMarkdown(results, mdPath)
	fmt.Printf("Markdown results: %s\n", mdPath)

	// Print summary
	printSummary(results)
}

func getCPUInfo() string {
	if runtime.GOOS == "linux" {
		data, err := os.ReadFile("/proc/cpuinfo")
		if err == nil {
			lines := strings.Split(string(data), "\n")
			for _, line := range lines {
				if strings.HasPrefix(line, "model name") {
					parts := strings.SplitN(line, ":", 2)
					if len(parts) == 2 {
						return strings.TrimSpace(parts[1])
					}
				}
			}
		}
	}
	return "unknown"
}

func runBenchmarks(pattern string) []Benchmark {
	cmd := exec.Command("go", "test", "-bench="+pattern, "-benchtime=2s", "-benchmem", "./tests/performance/...")
	output, _ := cmd.CombinedOutput()

	return parseBenchmarkOutput(string(output))
}

func parseBenchmarkOutput(output string) []Benchmark {
	var benchmarks []Benchmark

	// Pattern: BenchmarkName-N    iterations    ns/op    bytes/op    allocs/op
	re := regexp.MustCompile(`(Benchmark[\w/]+)-\d+\s+(\d+)\s+([\d.]+)\s+ns/op(?:\s+[\d.]+\s+MB/s)?\s+(\d+)\s+B/op\s+(\d+)\s+allocs/op`)

	matches := re.FindAllStringSubmatch(output, -1)
	for _, match := range matches {
		if len(match) >= 6 {
			nsPerOp, _ := strconv.ParseFloat(match[3], 64)
			bytesPerOp, _ := strconv.ParseInt(match[4], 10, 64)
			allocsPerOp, _ := strconv.ParseInt(match[5], 10, 64)

			opsPerSec := 0.0
			if nsPerOp > 0 {
				opsPerSec = 1e9 / nsPerOp
			}

			benchmarks = append(benchmarks, Benchmark{
				Name:        match[1],
				NsPerOp:     nsPerOp,
				OpsPerSec:   opsPerSec,
				BytesPerOp:  bytesPerOp,
				AllocsPerOp: allocsPerOp,
			})
		}
	}

	return benchmarks
}

func calculateSummary(suites map[string]Suite) Summary {
	summary := Summary{}

	// Comparator
	if match, ok := suites["match"]; ok {
		for _, b := range match.Benchmarks {
			if strings.Contains(b.Name, "Minimal") {
				summary.Match.ThroughputOpsPerSec = b.OpsPerSec
				summary.Match.LatencyNs = b.NsPerOp
			}
		}
		summary.Match.Claim = fmt.Sprintf("%.1fM+ comparisons/s", summary.Match.ThroughputOpsPerSec/1e6*0.8)
	}

	// Store
	if store, ok := suites["store"]; ok {
		for _, b := range store.Benchmarks {
			if strings.Contains(b.Name, "PopPush") {
				summary.Store.ThroughputOpsPerSec = b.OpsPerSec
				summary.Store.LatencyNs = b.NsPerOp
			}
		}
		summary.Store.Claim = fmt.Sprintf("%.1fM+ ops/s", summary.Store.ThroughputOpsPerSec/1e6*0.8)
	}

	// Serializer - use the YAML write as the representative number,
	// it dominates the flush path.
	if cas, ok := suites["cassette"]; ok {
		for _, b := range cas.Benchmarks {
			if strings.Contains(b.Name, "ToYAML") {
				summary.Cassette.ThroughputOpsPerSec = b.OpsPerSec
				summary.Cassette.LatencyNs = b.NsPerOp
			}
		}
		summary.Cassette.Claim = fmt.Sprintf("%.0f+ flushes/s (100 txns)", summary.Cassette.ThroughputOpsPerSec*0.8)
	}

	// Record
	if rec, ok := suites["record"]; ok {
		for _, b := range rec.Benchmarks {
			if strings.Contains(b.Name, "RoundTrip") {
				summary.Record.ThroughputOpsPerSec = b.OpsPerSec
				summary.Record.LatencyNs = b.NsPerOp
			}
		}
		summary.Record.Claim = fmt.Sprintf("%.0fK+ req/s captured", summary.Record.ThroughputOpsPerSec/1000*0.8)
	}

	// Replay
	if rep, ok := suites["replay"]; ok {
		for _, b := range rep.Benchmarks {
			if strings.Contains(b.Name, "RoundTrip") {
				summary.Replay.ThroughputOpsPerSec = b.OpsPerSec
				summary.Replay.LatencyNs = b.NsPerOp
			}
		}
		summary.Replay.Claim = fmt.Sprintf("%.0fK+ req/s replayed", summary.Replay.ThroughputOpsPerSec/1000*0.8)
	}

	// Startup
	if startup, ok := suites["startup"]; ok {
		for _, b := range startup.Benchmarks {
			if strings.Contains(b.Name, "Playback") {
				summary.Startup.PlaybackNs = b.NsPerOp
			}
			if strings.Contains(b.Name, "Record") {
				summary.Startup.RecordNs = b.NsPerOp
			}
		}
		summary.Startup.Claim = fmt.Sprintf("<%.0fms playback, <%.0fms record",
			summary.Startup.PlaybackNs/1e6+1,
			summary.Startup.RecordNs/1e6+1)
	}

	return summary
}

func writeJSON(results BenchmarkResults, path string) {
	data, err := json.MarshalIndent(results, "", "  ")
	if err != nil {
		fmt.Printf("Error marshaling JSON: %v\n", err)
		return
	}
	os.MkdirAll(filepath.Dir(path), 0755)
	os.WriteFile(path, data, 0644)
}

func writeMarkdown(results BenchmarkResults, path string) {
	var sb strings.Builder

	sb.WriteString("# replayd Benchmark Results\n\n")
	sb.WriteString(fmt.Sprintf("**Generated**: %s\n\n", results.Timestamp))
	sb.WriteString("## Environment\n\n")
	sb.WriteString(fmt.Sprintf("- **OS**: %s/%s\n", results.Environment.OS, results.Environment.Arch))
	sb.WriteString(fmt.Sprintf("- **CPU**: %s (%d cores)\n", results.Environment.CPU, results.Environment.NumCPU))
	sb.WriteString(fmt.Sprintf("- **Go**: %s\n\n", results.Environment.GoVersion))

	sb.WriteString("## Summary\n\n")
	sb.WriteString("| Suite | Throughput | Latency | Claim |\n")
	sb.WriteString("|-------|------------|---------|-------|\n")
	sb.WriteString(fmt.Sprintf("| Comparator | %.0f ops/s | %.2fμs | %s |\n",
		results.Summary.Match.ThroughputOpsPerSec,
		results.Summary.Match.LatencyNs/1000,
		results.Summary.Match.Claim))
	sb.WriteString(fmt.Sprintf("| Store | %.0f ops/s | %.2fμs | %s |\n",
		results.Summary.Store.ThroughputOpsPerSec,
		results.Summary.Store.LatencyNs/1000,
		results.Summary.Store.Claim))
	sb.WriteString(fmt.Sprintf("| Serializer | %.0f ops/s | %.2fμs | %s |\n",
		results.Summary.Cassette.ThroughputOpsPerSec,
		results.Summary.Cassette.LatencyNs/1000,
		results.Summary.Cassette.Claim))
	sb.WriteString(fmt.Sprintf("| Record | %.0f req/s | %.2fμs | %s |\n",
		results.Summary.Record.ThroughputOpsPerSec,
		results.Summary.Record.LatencyNs/1000,
		results.Summary.Record.Claim))
	sb.WriteString(fmt.Sprintf("| Replay | %.0f req/s | %.2fμs | %s |\n",
		results.Summary.Replay.ThroughputOpsPerSec,
		results.Summary.Replay.LatencyNs/1000,
		results.Summary.Replay.Claim))
	sb.WriteString(fmt.Sprintf("| Startup | - | %.2fms (playback) | %s |\n",
		results.Summary.Startup.PlaybackNs/1e6,
		results.Summary.Startup.Claim))
	sb.WriteString("\n")

	// Detailed results per suite
	for name, suite := range results.Suites {
		sb.WriteString(fmt.Sprintf("## %s\n\n", cases.Title(language.English).String(name)))
		sb.WriteString("| Benchmark | ops/sec | ns/op | B/op | allocs/op |\n")
		sb.WriteString("|-----------|---------|-------|------|----------|\n")
		for _, b := range suite.Benchmarks {
			sb.WriteString(fmt.Sprintf("| %s | %.0f | %.0f | %d | %d |\n",
				b.Name, b.OpsPerSec, b.NsPerOp, b.BytesPerOp, b.AllocsPerOp))
		}
		sb.WriteString("\n")
	}

	sb.WriteString("## Reproducing\n\n")
	sb.WriteString("```bash\n")
	sb.WriteString("go run benchmarks/run_benchmarks.go\n")
	sb.WriteString("# Or individual suites:\n")
	sb.WriteString("go test -bench=BenchmarkMatch -benchtime=2s -benchmem ./tests/performance/...\n")
	sb.WriteString("go test -bench=BenchmarkStore -benchtime=2s -benchmem ./tests/performance/...\n")
	sb.WriteString("go test -bench=BenchmarkRecord -benchtime=2s -benchmem ./tests/performance/...\n")
	sb.WriteString("go test -bench=BenchmarkReplay -benchtime=2s -benchmem ./tests/performance/...\n")
	sb.WriteString("```\n")

	os.MkdirAll(filepath.Dir(path), 0755)
	os.WriteFile(path, []byte(sb.String()), 0644)
}

func printSummary(results BenchmarkResults) {
	fmt.Println()
	fmt.Println("==========================================")
	fmt.Println("              SUMMARY")
	fmt.Println("==========================================")
	fmt.Printf("Comparator: %.0f comparisons/s (%.2fμs latency)\n",
		results.Summary.Match.ThroughputOpsPerSec,
		results.Summary.Match.LatencyNs/1000)
	fmt.Printf("Store:      %.0f ops/s (%.2fμs latency)\n",
		results.Summary.Store.ThroughputOpsPerSec,
		results.Summary.Store.LatencyNs/1000)
	fmt.Printf("Serializer: %.0f flushes/s (%.2fms latency)\n",
		results.Summary.Cassette.ThroughputOpsPerSec,
		results.Summary.Cassette.LatencyNs/1e6)
	fmt.Printf("Record:     %.0f req/s (%.2fμs latency)\n",
		results.Summary.Record.ThroughputOpsPerSec,
		results.Summary.Record.LatencyNs/1000)
	fmt.Printf("Replay:     %.0f req/s (%.2fμs latency)\n",
		results.Summary.Replay.ThroughputOpsPerSec,
		results.Summary.Replay.LatencyNs/1000)
	fmt.Printf("Startup:    %.2fms playback, %.2fms record\n",
		results.Summary.Startup.PlaybackNs/1e6,
		results.Summary.Startup.RecordNs/1e6)
	fmt.Println("==========================================")
}
