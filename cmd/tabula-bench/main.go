package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"math/rand"
	"os"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/imgajeed76/tabula/internal/pipeline"
	"github.com/imgajeed76/tabula/internal/ui/styles"
	"golang.org/x/term"
)

// ═══════════════════════════════════════════════════════════════════════════
// tabula-bench: pipeline throughput on synthetic tables
//
// Usage:
//   tabula-bench [options]
//
// Generates tables of increasing size, runs every pipeline stage against
// them (load, sort, multi-key sort, filter, paging, select all) and reports
// the median time per stage.
// ═══════════════════════════════════════════════════════════════════════════

// ═══════════════════════════════════════════════════════════════════════════
// Terminal: TTY detection and lipgloss styles
// ═══════════════════════════════════════════════════════════════════════════

// isTTY is true when stdout is a terminal and accessibility mode is off
var isTTY bool

func init() {
	isTTY = term.IsTerminal(int(os.Stdout.Fd())) && !styles.IsAccessible()
}

var (
	stBold   = lipgloss.NewStyle().Bold(true)
	stDim    = lipgloss.NewStyle().Foreground(styles.Muted)
	stAccent = lipgloss.NewStyle().Foreground(styles.Accent)
)

// render applies a lipgloss style, respecting NoColor
func render(s lipgloss.Style, text string) string {
	if styles.NoColor() {
		return text
	}
	return s.Render(text)
}

func main() {
	args := parseArgs()

	var results []benchResult
	for _, n := range args.sizes {
		if isTTY && !args.jsonMode {
			fmt.Printf("\r  %s %s rows...", render(stAccent, "●"), formatCount(n))
		}
		results = append(results, benchSize(n, args.runs, args.seed))
	}
	if isTTY && !args.jsonMode {
		fmt.Print("\r\033[K")
	}

	if args.jsonMode {
		writeJSONOutput(results, args.jsonPath)
	} else {
		printSummaryTable(results)
	}

	if args.reportPath != "" {
		if err := writeMarkdownReport(args.reportPath, results); err != nil {
			fatalMsg("Failed to write report: %v", err)
		}
		if !args.jsonMode {
			fmt.Printf("  %s\n\n", styles.SuccessMsg(fmt.Sprintf("Report written to %s", args.reportPath)))
		}
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// Arguments
// ═══════════════════════════════════════════════════════════════════════════

type cliArgs struct {
	sizes      []int
	runs       int
	seed       int64
	jsonMode   bool
	jsonPath   string
	reportPath string
}

func parseArgs() cliArgs {
	args := cliArgs{sizes: []int{1_000, 10_000, 100_000}, runs: 5, seed: 1}
	osArgs := os.Args[1:]

	for i := 0; i < len(osArgs); i++ {
		switch osArgs[i] {
		case "--sizes", "-s":
			if i+1 < len(osArgs) {
				i++
				args.sizes = nil
				for _, part := range strings.Split(osArgs[i], ",") {
					n, err := strconv.Atoi(strings.TrimSpace(part))
					if err != nil || n < 1 {
						fatalMsg("--sizes requires positive integers, got: %s", part)
					}
					args.sizes = append(args.sizes, n)
				}
			}
		case "--runs", "-n":
			if i+1 < len(osArgs) {
				i++
				n, err := strconv.Atoi(osArgs[i])
				if err != nil || n < 1 {
					fatalMsg("--runs requires a positive integer, got: %s", osArgs[i])
				}
				args.runs = n
			}
		case "--seed":
			if i+1 < len(osArgs) {
				i++
				n, err := strconv.ParseInt(osArgs[i], 10, 64)
				if err != nil {
					fatalMsg("--seed requires an integer, got: %s", osArgs[i])
				}
				args.seed = n
			}
		case "--json", "-j":
			args.jsonMode = true
			if i+1 < len(osArgs) && !strings.HasPrefix(osArgs[i+1], "-") {
				i++
				args.jsonPath = osArgs[i]
			}
		case "--report", "-r":
			if i+1 < len(osArgs) {
				i++
				args.reportPath = osArgs[i]
			}
		case "--no-color":
			styles.SetNoColor(true)
		case "--help", "-h":
			printUsage()
			os.Exit(0)
		default:
			fatalMsg("Unknown argument: %s", osArgs[i])
		}
	}
	return args
}

func printUsage() {
	fmt.Printf(`%s - Pipeline throughput on synthetic tables

%s
  tabula-bench [options]

%s
  --sizes, -s <n,n,...>   Table sizes to generate (default: 1000,10000,100000)
  --runs, -n <n>          Runs per stage, the median is reported (default: 5)
  --seed <n>              Random seed for the generated rows (default: 1)
  --report, -r <path>     Write a markdown report
  --json, -j [path]       JSON output (file path or stdout if omitted)
  --no-color              Disable colored output
  --help, -h              Show this help

%s
  tabula-bench
  tabula-bench --sizes 500000 --runs 3 --report bench.md

`,
		render(stBold, "tabula-bench"),
		render(stBold, "Usage:"),
		render(stBold, "Options:"),
		render(stBold, "Examples:"))
}

// ═══════════════════════════════════════════════════════════════════════════
// Benchmark
// ═══════════════════════════════════════════════════════════════════════════

// stages in report order
var stages = []string{"load", "sort", "sort-multi", "filter", "page", "select-all"}

type benchResult struct {
	Rows    int                `json:"rows"`
	Runs    int                `json:"runs"`
	Matches int                `json:"filter_matches"`
	Median  map[string]float64 `json:"median_ms"`
}

var (
	cities = []string{"Bern", "Berlin", "Oslo", "Lisbon", "Vienna", "Prague", "Turin", "Ghent"}
	teams  = []string{"core", "infra", "data", "web", "mobile"}
)

// genRows builds n rows with a mix of strings, numbers, bools and nils.
func genRows(n int, rng *rand.Rand) []*pipeline.Row {
	keys := []string{"id", "name", "city", "team", "score", "active"}
	rows := make([]*pipeline.Row, n)
	for i := range rows {
		var score any = rng.Float64() * 1000
		if rng.Intn(20) == 0 {
			score = nil
		}
		rows[i] = pipeline.NewOrderedRow(keys, map[string]any{
			"id":     i + 1,
			"name":   fmt.Sprintf("user-%06d", rng.Intn(n*10)),
			"city":   cities[rng.Intn(len(cities))],
			"team":   teams[rng.Intn(len(teams))],
			"score":  score,
			"active": rng.Intn(2) == 0,
		})
	}
	return rows
}

func benchSize(n, runs int, seed int64) benchResult {
	rows := genRows(n, rand.New(rand.NewSource(seed)))
	timings := make(map[string][]time.Duration)
	matches := 0

	for r := 0; r < runs; r++ {
		p := pipeline.New(pipeline.WithID("bench"), pipeline.WithSelectMode(pipeline.SelectMulti))

		timings["load"] = append(timings["load"], timeIt(func() { p.SetSourceRows(rows) }))
		timings["sort"] = append(timings["sort"], timeIt(func() {
			_ = p.SetSortCriteria([]pipeline.SortCriterion{{Key: "name", Order: pipeline.Asc}})
		}))
		timings["sort-multi"] = append(timings["sort-multi"], timeIt(func() {
			_ = p.SetSortCriteria([]pipeline.SortCriterion{
				{Key: "city", Order: pipeline.Asc},
				{Key: "score", Order: pipeline.Desc},
			})
		}))
		timings["filter"] = append(timings["filter"], timeIt(func() { p.SetFilterText("ber") }))
		matches = len(p.View().Filtered)
		timings["page"] = append(timings["page"], timeIt(func() {
			for page := 1; page <= 10; page++ {
				p.SetPage(page)
			}
		}))
		timings["select-all"] = append(timings["select-all"], timeIt(func() { p.ToggleAll() }))
	}

	res := benchResult{Rows: n, Runs: runs, Matches: matches, Median: make(map[string]float64)}
	for _, s := range stages {
		res.Median[s] = float64(median(timings[s]).Microseconds()) / 1000
	}
	return res
}

func timeIt(fn func()) time.Duration {
	start := time.Now()
	fn()
	return time.Since(start)
}

func median(ds []time.Duration) time.Duration {
	if len(ds) == 0 {
		return 0
	}
	sorted := slices.Clone(ds)
	slices.Sort(sorted)
	return sorted[len(sorted)/2]
}

// ═══════════════════════════════════════════════════════════════════════════
// Output
// ═══════════════════════════════════════════════════════════════════════════

func printSummaryTable(results []benchResult) {
	sectionHeader("Median per stage (ms)")
	fmt.Println()

	fmt.Printf("  %10s", "Rows")
	for _, s := range stages {
		fmt.Printf(" %11s", s)
	}
	fmt.Println()
	fmt.Printf("  %s\n", render(stDim, strings.Repeat("─", 10+12*len(stages))))

	for _, r := range results {
		fmt.Printf("  %10s", formatCount(r.Rows))
		for _, s := range stages {
			fmt.Printf(" %11.2f", r.Median[s])
		}
		fmt.Println()
	}
	fmt.Println()
}

func writeJSONOutput(results []benchResult, path string) {
	var w *os.File
	if path == "" {
		w = os.Stdout
	} else {
		var err error
		w, err = os.Create(path)
		if err != nil {
			fatalMsg("Failed to create JSON file: %v", err)
		}
		defer w.Close()
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(results)
}

func writeMarkdownReport(path string, results []benchResult) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	defer w.Flush()

	p := func(format string, args ...any) {
		fmt.Fprintf(w, format+"\n", args...)
	}

	p("# tabula-bench Pipeline Report")
	p("")
	p("**Date:** %s", time.Now().Format("2006-01-02 15:04:05"))
	if len(results) > 0 {
		p("**Runs per stage:** %d (median reported)", results[0].Runs)
	}
	p("")
	p("| Rows | Filter matches | %s |", strings.Join(stages, " | "))
	p("|-----:|---------------:|%s", strings.Repeat("-----:|", len(stages)))
	for _, r := range results {
		cells := make([]string, len(stages))
		for i, s := range stages {
			cells[i] = fmt.Sprintf("%.2f ms", r.Median[s])
		}
		p("| %s | %s | %s |", formatCount(r.Rows), formatCount(r.Matches), strings.Join(cells, " | "))
	}
	p("")
	return nil
}

// ═══════════════════════════════════════════════════════════════════════════
// Helpers
// ═══════════════════════════════════════════════════════════════════════════

func formatCount(n int) string {
	s := strconv.Itoa(n)
	if len(s) <= 3 {
		return s
	}
	var b strings.Builder
	pre := len(s) % 3
	if pre > 0 {
		b.WriteString(s[:pre])
	}
	for i := pre; i < len(s); i += 3 {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(s[i : i+3])
	}
	return b.String()
}

func sectionHeader(title string) {
	fmt.Printf("  %s\n", render(stBold, title))
}

func fatalMsg(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	fmt.Fprintf(os.Stderr, "\n  %s\n\n", styles.ErrorMsg(msg))
	os.Exit(1)
}
