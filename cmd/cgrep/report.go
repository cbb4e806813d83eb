package main

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/fatih/color"

	"github.com/oxhq/cgrep/core"
	"github.com/oxhq/cgrep/internal/output"
)

var (
	green  = color.New(color.FgGreen).SprintFunc()
	yellow = color.New(color.FgYellow).SprintFunc()
	red    = color.New(color.FgRed).SprintFunc()
	bold   = color.New(color.Bold).SprintFunc()
	cyan   = color.New(color.FgCyan).SprintFunc()
)

const bannerWidth = 57

// printer renders the human-readable report
type printer struct {
	w       io.Writer
	verbose bool
}

func newPrinter(w io.Writer, verbose bool) *printer {
	return &printer{w: w, verbose: verbose}
}

func (p *printer) banner(title string) {
	pad := bannerWidth - len([]rune(title))
	left := max(pad/2, 0)
	right := max(pad-left, 0)

	fmt.Fprintln(p.w, "╔"+strings.Repeat("═", bannerWidth)+"╗")
	fmt.Fprintln(p.w, "║"+strings.Repeat(" ", left)+bold(title)+strings.Repeat(" ", right)+"║")
	fmt.Fprintln(p.w, "╚"+strings.Repeat("═", bannerWidth)+"╝")
}

// paths lists the files that were searched
func (p *printer) paths(files []string) {
	p.banner("Searching Paths")
	for _, file := range files {
		fmt.Fprintf(p.w, "  • %s\n", file)
	}
}

func (p *printer) timings(result *core.Result) {
	fmt.Fprintf(p.w, "%s %s\n", yellow("Directory walk:"), result.WalkDuration.Round(time.Microsecond))
	fmt.Fprintf(p.w, "%s %s\n", yellow("Tree generation:"), result.ParseDuration.Round(time.Microsecond))
	fmt.Fprintf(p.w, "%s %s\n", yellow("Search:"), result.SearchDuration.Round(time.Microsecond))
}

// hits prints one path:row:col line per hit, or a not-found line
func (p *printer) hits(report *output.Report, snippet string) {
	if len(report.Hits) == 0 {
		fmt.Fprintf(p.w, "%s Pattern [%s] not found in directory: %s\n",
			red("❌"), strings.TrimSpace(snippet), report.Root)
		return
	}

	if p.verbose {
		p.banner("✅ Found pattern in the following locations")
	}
	for _, hit := range report.Hits {
		fmt.Fprintf(p.w, "%s:%d:%d\n", cyan(hit.Path), hit.Row, hit.Column)
	}
}

func (p *printer) recorded(id string) {
	fmt.Fprintf(p.w, "%s run %s\n", green("recorded"), id)
}

// summary is printed when the report itself went to a file
func (p *printer) summary(report *output.Report, path string) {
	fmt.Fprintf(p.w, "%s %d matches (%d hits) in %d files written to %s\n",
		green("✅"), report.Matches, len(report.Hits), report.Files, path)
}
