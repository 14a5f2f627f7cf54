package display

import (
	"bytes"
	"encoding/json"
	"os"
	"testing"
	"time"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teranos/chronicle/cache"
	"github.com/teranos/chronicle/chronicle"
	"github.com/teranos/chronicle/errors"
)

func TestMain(m *testing.M) {
	pterm.DisableStyling()
	os.Exit(m.Run())
}

func sampleReport() chronicle.Report {
	return chronicle.Report{
		RunID:    "run-1",
		Items:    3,
		Bundles:  2,
		Segments: 4,
		ByClass:  map[string]int{"main": 3, "tail": 1},
		Dropped:  []string{"lost"},
		Queries:  map[cache.Source]int{cache.SourceNetwork: 2, cache.SourceStore: 1},
		Duration: 1500 * time.Millisecond,
	}
}

func TestReport(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Report(&buf, sampleReport(), "out/timeline.json"))

	out := buf.String()
	assert.Contains(t, out, "Wrote 4 segments to out/timeline.json")
	assert.Contains(t, out, "segments (tail)")
	assert.Contains(t, out, "queries (network)")
	assert.Contains(t, out, "Dropped 1 items without dates: lost")
}

func TestReportView(t *testing.T) {
	rep := sampleReport()
	rep.Dropped = nil
	data, err := MarshalJSON(NewReportView(rep, "t.json"))
	require.NoError(t, err)

	var got map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, float64(2), got["queries"].(map[string]interface{})["network"])
	assert.Equal(t, []interface{}{}, got["dropped"], "dropped is [] rather than null")
	assert.Equal(t, float64(1500), got["duration_ms"])
}

func TestMarshalJSONKeepsHTML(t *testing.T) {
	data, err := MarshalJSON(map[string]string{"content": "<a href=\"x\">Ada</a>"})
	require.NoError(t, err)
	assert.Contains(t, string(data), "<a href")
	assert.NotContains(t, string(data), "\n}\n")
}

func TestErrorPrintsHints(t *testing.T) {
	var buf bytes.Buffer
	err := errors.WithHint(errors.NewConfigurationError("duplicate item id %q", "X"), "ids must be unique")
	Error(&buf, err, false)

	assert.Contains(t, buf.String(), `duplicate item id "X"`)
	assert.Contains(t, buf.String(), "hint: ids must be unique")
}

func TestShouldOutputJSON(t *testing.T) {
	root := &cobra.Command{Use: "root"}
	root.PersistentFlags().Bool("json", false, "")
	child := &cobra.Command{Use: "child"}
	child.Flags().Bool("json", false, "")
	root.AddCommand(child)

	t.Setenv(EnvOutput, "")
	assert.False(t, ShouldOutputJSON(child))

	t.Setenv(EnvOutput, "json")
	assert.True(t, ShouldOutputJSON(child))
	assert.True(t, ShouldOutputJSON(nil))

	require.NoError(t, child.Flags().Set("json", "false"))
	assert.False(t, ShouldOutputJSON(child), "an explicit flag beats the environment")
}
