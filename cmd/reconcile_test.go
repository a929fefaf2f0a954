package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/marathon-cli/internal/model"
)

func writeFeed(t *testing.T, name string, events []model.RawEvent) string {
	t.Helper()
	data, err := json.Marshal(events)
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

func feeds(t *testing.T) (string, string) {
	primary := writeFeed(t, "roadrun.json", []model.RawEvent{
		{Name: "제23회 서울마라톤", Date: "2026-03-15", Location: "광화문", Link: "http://www.roadrun.co.kr/schedule/view.php?no=1"},
		{Name: "춘천 마라톤", Date: "2026-10-25"},
	})
	secondary := writeFeed(t, "runninglife.json", []model.RawEvent{
		{Name: "서울마라톤", Date: "2026-03-15", Location: "서울 광화문광장", Status: "접수중"},
		{Name: "제주 울트라 트레일", Date: "2026-06-01"},
	})
	return primary, secondary
}

func TestRunReconcile_JSON(t *testing.T) {
	primary, secondary := feeds(t)

	var buf bytes.Buffer
	require.NoError(t, runReconcile(&buf, primary, secondary, 0.6, "json"))

	var out struct {
		Summary struct {
			Total          int `json:"total_events"`
			CrossValidated int `json:"cross_validated"`
			SecondaryOnly  int `json:"secondary_only"`
		} `json:"summary"`
		Events []model.Event `json:"events"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &out))
	assert.Equal(t, 3, out.Summary.Total)
	assert.Equal(t, 1, out.Summary.CrossValidated)
	assert.Equal(t, 1, out.Summary.SecondaryOnly)
	require.Len(t, out.Events, 3)
	assert.Equal(t, model.ValidationSourceBoth, out.Events[0].Validation.Source)
	assert.Equal(t, "접수중", out.Events[0].RegistrationStatus)
	assert.Equal(t, "제주 울트라 트레일", out.Events[2].Name)
	assert.Contains(t, buf.String(), "제23회 서울마라톤")
}

func TestRunReconcile_YAML(t *testing.T) {
	primary, secondary := feeds(t)

	var buf bytes.Buffer
	require.NoError(t, runReconcile(&buf, primary, secondary, 0.6, "yaml"))

	var out map[string]any
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &out))
	summary := out["summary"].(map[string]any)
	assert.Equal(t, 3, summary["total_events"])
	events := out["events"].([]any)
	require.Len(t, events, 3)
	assert.Equal(t, "both", events[0].(map[string]any)["validation"].(map[string]any)["source"])
}

func TestRunReconcile_PrimaryOnly(t *testing.T) {
	primary, _ := feeds(t)

	var buf bytes.Buffer
	require.NoError(t, runReconcile(&buf, primary, "", 0.6, "json"))
	assert.Contains(t, buf.String(), `"total_events": 2`)
}

func TestRunReconcile_Errors(t *testing.T) {
	primary, secondary := feeds(t)
	var buf bytes.Buffer

	err := runReconcile(&buf, primary, secondary, 0.6, "xml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported format")

	err = runReconcile(&buf, filepath.Join(t.TempDir(), "missing.json"), "", 0.6, "json")
	assert.Error(t, err)

	bad := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte("{"), 0o644))
	err = runReconcile(&buf, bad, "", 0.6, "json")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode")
}
