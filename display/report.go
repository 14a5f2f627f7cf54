package display

import (
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/pterm/pterm"

	"github.com/teranos/chronicle/cache"
	"github.com/teranos/chronicle/chronicle"
	"github.com/teranos/chronicle/errors"
)

// ReportView is the machine-readable form of a run report
type ReportView struct {
	RunID      string         `json:"run_id"`
	Output     string         `json:"output,omitempty"`
	Items      int            `json:"items"`
	Templates  int            `json:"templates"`
	Created    int            `json:"created"`
	Bundles    int            `json:"bundles"`
	Segments   int            `json:"segments"`
	ByClass    map[string]int `json:"by_class"`
	Dropped    []string       `json:"dropped"`
	Ambiguous  int            `json:"ambiguous"`
	Cloned     int            `json:"cloned"`
	Unanswered int            `json:"unanswered"`
	Queries    map[string]int `json:"queries"`
	DurationMS int64          `json:"duration_ms"`
}

// NewReportView flattens rep for JSON output
func NewReportView(rep chronicle.Report, outPath string) ReportView {
	queries := make(map[string]int, len(rep.Queries))
	for src, n := range rep.Queries {
		queries[string(src)] = n
	}
	dropped := rep.Dropped
	if dropped == nil {
		dropped = []string{}
	}
	return ReportView{
		RunID:      rep.RunID,
		Output:     outPath,
		Items:      rep.Items,
		Templates:  rep.Templates,
		Created:    rep.Created,
		Bundles:    rep.Bundles,
		Segments:   rep.Segments,
		ByClass:    rep.ByClass,
		Dropped:    dropped,
		Ambiguous:  rep.Ambiguous,
		Cloned:     rep.Cloned,
		Unanswered: rep.Unanswered,
		Queries:    queries,
		DurationMS: rep.Duration.Milliseconds(),
	}
}

// Report prints a run summary table
func Report(w io.Writer, rep chronicle.Report, outPath string) error {
	pterm.Success.WithWriter(w).Printfln("Wrote %d segments to %s in %s", rep.Segments, outPath, rep.Duration.Round(time.Millisecond))

	data := pterm.TableData{
		{"", "count"},
		{"items", strconv.Itoa(rep.Items)},
		{"templates expanded", strconv.Itoa(rep.Templates)},
		{"items created", strconv.Itoa(rep.Created)},
		{"bundles", strconv.Itoa(rep.Bundles)},
		{"queries (network)", strconv.Itoa(rep.Queries[cache.SourceNetwork])},
		{"queries (cache)", strconv.Itoa(rep.Queries[cache.SourceStore] + rep.Queries[cache.SourceMemo])},
		{"ambiguous", strconv.Itoa(rep.Ambiguous)},
		{"cloned", strconv.Itoa(rep.Cloned)},
		{"unanswered", strconv.Itoa(rep.Unanswered)},
	}
	classes := make([]string, 0, len(rep.ByClass))
	for class := range rep.ByClass {
		classes = append(classes, class)
	}
	sort.Strings(classes)
	for _, class := range classes {
		data = append(data, []string{"segments (" + class + ")", strconv.Itoa(rep.ByClass[class])})
	}
	if err := pterm.DefaultTable.WithHasHeader().WithWriter(w).WithData(data).Render(); err != nil {
		return err
	}

	if len(rep.Dropped) > 0 {
		pterm.Warning.WithWriter(w).Printfln("Dropped %d items without dates: %s", len(rep.Dropped), strings.Join(rep.Dropped, ", "))
	}
	return nil
}

// Error prints err with its hints. verbose adds the full error chain with stack traces.
func Error(w io.Writer, err error, verbose bool) {
	if err == nil {
		return
	}
	pterm.Error.WithWriter(w).Println(err.Error())
	for _, hint := range errors.GetAllHints(err) {
		fmt.Fprintf(w, "  hint: %s\n", hint)
	}
	if verbose {
		fmt.Fprintf(w, "%+v\n", err)
	}
}
