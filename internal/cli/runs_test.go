package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rulesfoundation/rac/internal/engine"
	"github.com/rulesfoundation/rac/internal/store"
)

// seedRunDatabase writes a database with one recorded run and returns its path.
func seedRunDatabase(t *testing.T) string {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "runs.db")

	st, err := store.Open(dbPath)
	require.NoError(t, err)
	defer st.Close()

	result := &engine.Result{
		Scalars: engine.Bindings{"adult_age": 18},
		Rows: []engine.Bindings{
			{"age": 30, "is_adult": 1},
			{"age": 12, "is_adult": 0},
		},
	}
	run := store.Run{ID: "seed-run", PlanHash: "deadbeef", Entity: "person", AsOf: "2023-01-01"}
	require.NoError(t, st.WriteRun(context.Background(), run, result))

	return dbPath
}

func TestRunsList(t *testing.T) {
	dbPath := seedRunDatabase(t)

	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "json"}
	cmd := NewRunsCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{"--db", dbPath})

	err := cmd.Execute()
	require.NoError(t, err)

	var resp struct {
		Status string      `json:"status"`
		Data   []RunRecord `json:"data"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	require.Len(t, resp.Data, 1)
	assert.Equal(t, "seed-run", resp.Data[0].ID)
	assert.Equal(t, "person", resp.Data[0].Entity)
	assert.Equal(t, 2, resp.Data[0].RowCount)
}

func TestRunsListEmptyDatabase(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "runs.db")
	st, err := store.Open(dbPath)
	require.NoError(t, err)
	st.Close()

	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "text"}
	cmd := NewRunsCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{"--db", dbPath})

	err = cmd.Execute()
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "No runs recorded.")
}

func TestRunsShowRun(t *testing.T) {
	dbPath := seedRunDatabase(t)

	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "json"}
	cmd := NewRunsCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{"seed-run", "--db", dbPath})

	err := cmd.Execute()
	require.NoError(t, err)

	var resp struct {
		Status string    `json:"status"`
		Data   RunOutput `json:"data"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.Equal(t, "seed-run", resp.Data.RunID)
	assert.Equal(t, "deadbeef", resp.Data.PlanHash)
	assert.Equal(t, 18.0, resp.Data.Scalars["adult_age"])

	require.Len(t, resp.Data.Rows, 2)
	assert.Equal(t, 1.0, resp.Data.Rows[0]["is_adult"])
	assert.Equal(t, 0.0, resp.Data.Rows[1]["is_adult"])
}

func TestRunsShowRunFiltered(t *testing.T) {
	dbPath := seedRunDatabase(t)

	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "json"}
	cmd := NewRunsCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{"seed-run", "--db", dbPath, "--where", "is_adult == 1"})

	err := cmd.Execute()
	require.NoError(t, err)

	var resp struct {
		Status string            `json:"status"`
		Data   FilteredRunOutput `json:"data"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.Equal(t, 2, resp.Data.Total)
	require.Equal(t, []int{0}, resp.Data.Matched)
	require.Len(t, resp.Data.Rows, 1)
	assert.Equal(t, 30.0, resp.Data.Rows[0]["age"])
}

func TestRunsShowRunBadFilter(t *testing.T) {
	dbPath := seedRunDatabase(t)

	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "text"}
	cmd := NewRunsCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{"seed-run", "--db", dbPath, "--where", "is_adult ~ 1"})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, buf.String(), "unknown operator")
}

func TestRunsShowUnknownRun(t *testing.T) {
	dbPath := seedRunDatabase(t)

	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "text"}
	cmd := NewRunsCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{"missing-run", "--db", dbPath})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, buf.String(), "not found")
}

func TestRunsDatabaseNotFound(t *testing.T) {
	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "text"}
	cmd := NewRunsCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{"--db", "/nonexistent/runs.db"})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}
