package main

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sells-group/marathon-cli/internal/config"
	"github.com/sells-group/marathon-cli/internal/model"
	"github.com/sells-group/marathon-cli/internal/narrative"
	"github.com/sells-group/marathon-cli/internal/pipeline"
	"github.com/sells-group/marathon-cli/internal/reconcile"
	"github.com/sells-group/marathon-cli/internal/snapshot"
)

func testConfig() *config.Config {
	c := &config.Config{}
	c.Sources.RoadrunURL = "http://www.roadrun.co.kr/schedule/list.php"
	c.Sources.RunningLifeURL = "https://mobile.runninglife.co.kr/contest/"
	c.Sources.TimeoutSecs = 10
	c.Sources.RespectRobots = true
	c.Sources.RobotsTTLMins = 60
	c.Narrative.Provider = "template"
	c.Notion.DelayMs = 1000
	return c
}

func TestBuildDeps_WithoutNotion(t *testing.T) {
	withConfig(t, testConfig())
	st := snapshot.New(snapshot.NewJSONFile(filepath.Join(t.TempDir(), "h.json")))

	deps := buildDeps(st)
	assert.NotNil(t, deps.Primary)
	assert.NotNil(t, deps.Details)
	assert.NotNil(t, deps.Secondary)
	assert.Nil(t, deps.Publisher)
	assert.IsType(t, narrative.Template{}, deps.Narrative)
	assert.Equal(t, model.PrimarySourceName, deps.Primary.Name())
	assert.Equal(t, model.SecondarySourceName, deps.Secondary.Name())
}

func TestBuildDeps_WithNotionAndNoSecondary(t *testing.T) {
	c := testConfig()
	c.Sources.RunningLifeURL = ""
	c.Sources.RenderViaJina = true
	c.Notion.Token = "ntn_token"
	c.Notion.EventDB = "db-id"
	withConfig(t, c)

	deps := buildDeps(snapshot.New(snapshot.NewJSONFile(filepath.Join(t.TempDir(), "h.json"))))
	assert.Nil(t, deps.Secondary)
	assert.NotNil(t, deps.Publisher)
}

func TestPrintSyncResult(t *testing.T) {
	var buf bytes.Buffer
	printSyncResult(&buf, &pipeline.Result{
		PrimaryCount:   12,
		SecondaryCount: 8,
		Summary:        reconcile.Summary{Total: 16, CrossValidated: 4, ValidationRate: 25, HighConfidence: 3},
		New:            []model.Event{{Name: "a"}},
		Targets:        []model.Event{{Name: "a"}},
		ScriptPath:     "output/script_2026-03-01.txt",
		SyncResults:    []model.SyncResult{{Status: model.SyncStatusCreated}},
		ReportPath:     "logs/daily_log_2026-03-01.txt",
	})

	out := buf.String()
	assert.Contains(t, out, "Roadrun: 12 events | RunningLife: 8 events")
	assert.Contains(t, out, "Cross-validated: 4/16 (25.0%), high confidence: 3")
	assert.Contains(t, out, "New: 1, Updated: 0, Processed: 1")
	assert.Contains(t, out, "Script: output/script_2026-03-01.txt")
	assert.Contains(t, out, "Sync Result: Synced: 1, Errors: 0, Skipped: 0")
	assert.NotContains(t, out, "First run")
}
