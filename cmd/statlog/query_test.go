package main

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"

	"github.com/ppiankov/statlog/internal/cli"
	"github.com/ppiankov/statlog/internal/cloud"
	"github.com/ppiankov/statlog/internal/config"
	"github.com/ppiankov/statlog/internal/source"
)

const cephLog = `2024-01-01 00:00:00 [disk] {"read":5,"write":{"mb":2}}
2024-01-01 00:00:01 [other] {}
2024-01-01 00:00:02 [disk] {"read":7,"write":{"mb":4}}
`

func writeLog(t *testing.T, dir, date, content string) string {
	t.Helper()
	path := filepath.Join(dir, "ceph-stats."+date+".log")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestRunQueryTable(t *testing.T) {
	path := writeLog(t, t.TempDir(), "2024-01-01", cephLog)
	var out bytes.Buffer
	err := runQuery(context.Background(), &out, source.NewOpener(), queryOptions{
		Stat: "disk",
		Keys: []string{"read", "write mb"},
		Log:  path,
	})
	if err != nil {
		t.Fatal(err)
	}
	want := `#"date" "time" "read" "write mb"
2024-01-01 00:00:00 5 2
2024-01-01 00:00:02 7 4
`
	if out.String() != want {
		t.Errorf("output =\n%s\nwant\n%s", out.String(), want)
	}
}

func TestRunQueryNotFound(t *testing.T) {
	var out bytes.Buffer
	err := runQuery(context.Background(), &out, source.NewOpener(), queryOptions{
		Stat: "disk",
		Log:  filepath.Join(t.TempDir(), "ceph-stats.2024-01-01.log"),
	})
	if got := cli.ExitCode(err); got != cli.ExitNotFound {
		t.Errorf("exit code = %d (%v), want %d", got, err, cli.ExitNotFound)
	}
}

func TestRunQueryMalformedPayload(t *testing.T) {
	path := writeLog(t, t.TempDir(), "2024-01-01", "2024-01-01 00:00:00 [disk] {oops\n")
	var out bytes.Buffer
	err := runQuery(context.Background(), &out, source.NewOpener(), queryOptions{Stat: "disk", Log: path})
	if got := cli.ExitCode(err); got != cli.ExitData {
		t.Errorf("exit code = %d (%v), want %d", got, err, cli.ExitData)
	}
	if !strings.Contains(err.Error(), "line 1") {
		t.Errorf("error = %q, want line number", err)
	}
}

func TestRunQueryMetricsFile(t *testing.T) {
	dir := t.TempDir()
	path := writeLog(t, dir, "2024-01-01", cephLog)
	prom := filepath.Join(dir, "query.prom")
	var out bytes.Buffer
	err := runQuery(context.Background(), &out, source.NewOpener(), queryOptions{
		Stat: "disk", Log: path, MetricsFile: prom,
	})
	if err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(prom)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), `statlog_lines_total{command="query",kind="matched"} 2`) {
		t.Errorf("metrics =\n%s", data)
	}
}

func executeRoot(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := newRootCmd()
	var out, errOut bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestQueryCmdUsesDateTemplate(t *testing.T) {
	dir := t.TempDir()
	writeLog(t, dir, "2024-01-01", cephLog)

	old := cfg
	defer func() { cfg = old }()
	cfg = &config.Config{Query: config.QueryConfig{LogDir: dir}}

	out, err := executeRoot(t, "query", "-d", "2024-01-01", "disk", "write mb")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "2024-01-01 00:00:02 4\n") {
		t.Errorf("output = %q", out)
	}

	if _, err := executeRoot(t, "query", "-d", "2024-01-02", "disk"); cli.ExitCode(err) != cli.ExitNotFound {
		t.Errorf("missing day: err = %v", err)
	}
}

func TestQueryCmdEnvDate(t *testing.T) {
	dir := t.TempDir()
	writeLog(t, dir, "2023-12-31", cephLog)
	t.Setenv("CEPHSTATS_LOG_DIR", dir)
	t.Setenv("CEPHSTATS_DATE", "2023-12-31")
	t.Setenv("CEPHSTATS_LOG_FILE", "")

	old := cfg
	defer func() { cfg = old }()
	cfg, _ = config.LoadFrom(writeConfig(t, ""))

	out, err := executeRoot(t, "query", "-p", "disk", "write")
	if err != nil {
		t.Fatal(err)
	}
	want := "2024-01-01 00:00:00 disk\n\"write\"  =  {\n    \"mb\": 2\n}\n\n"
	if !strings.HasPrefix(out, want) {
		t.Errorf("output = %q, want prefix %q", out, want)
	}
}

func TestQueryCmdInvalidDate(t *testing.T) {
	old := cfg
	defer func() { cfg = old }()
	cfg = &config.Config{}

	_, err := executeRoot(t, "query", "-d", "01/02/2024", "disk")
	if cli.ExitCode(err) != cli.ExitUsage {
		t.Errorf("err = %v, want usage error", err)
	}
}

func TestQueryCmdExplicitFile(t *testing.T) {
	path := writeLog(t, t.TempDir(), "x", cephLog)
	cmd := newQueryCmd()
	root := &cobra.Command{Use: "statlog"}
	root.AddCommand(cmd)
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetArgs([]string{"query", "-f", path, "other"})
	if err := root.Execute(); err != nil {
		t.Fatal(err)
	}
	if out.String() != "#\"date\" \"time\" \"\"\n2024-01-01 00:00:01 {}\n" {
		t.Errorf("output = %q", out.String())
	}
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestRunQueryRemoteFailure(t *testing.T) {
	opener := &source.Opener{
		NewBackend: func(context.Context, cloud.Location) (cloud.Backend, error) {
			return nil, errors.New("no credentials")
		},
	}
	var out bytes.Buffer
	err := runQuery(context.Background(), &out, opener, queryOptions{Stat: "disk", Log: "s3://logs/ceph-stats.2024-01-01.log"})
	if cli.ExitCode(err) != cli.ExitNetwork {
		t.Errorf("err = %v, exit %d; want network error", err, cli.ExitCode(err))
	}
	if !strings.Contains(err.Error(), "no credentials") {
		t.Errorf("err = %v, want the cause in the message", err)
	}
}
