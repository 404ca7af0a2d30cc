package app

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"

	"golang.org/x/text/language"

	"github.com/agentstation/armory/pkg/errors"
	"github.com/agentstation/armory/pkg/logging"
)

func newTestApp(t *testing.T) *App {
	t.Helper()
	t.Chdir(t.TempDir())

	app, err := New("1.0.0", "abc123", "2026-01-01", "test",
		WithConfig(&Config{Store: "mem://", Language: "en", LogLevel: "error"}),
		WithLogger(logging.NewNopLogger()),
	)
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}
	t.Cleanup(func() { _ = app.Shutdown(context.Background()) })
	return app
}

// run executes args and returns stdout and stderr.
func run(t *testing.T, app *App, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	root := app.createRootCommand()
	root.SetOut(&stdout)
	root.SetErr(&stderr)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return stdout.String(), stderr.String(), err
}

// TestAppNew verifies app initialization.
func TestAppNew(t *testing.T) {
	app := newTestApp(t)

	if app.Version() != "1.0.0" || app.Commit() != "abc123" || app.BuiltBy() != "test" {
		t.Errorf("version info = %s %s %s", app.Version(), app.Commit(), app.BuiltBy())
	}
	if app.Language() != language.English {
		t.Errorf("Language() = %v, want en", app.Language())
	}
	if app.Store().String() != "mem://" {
		t.Errorf("Store() = %v, want mem://", app.Store())
	}
}

// TestAppArmorySingleton verifies Armory() returns the same instance.
func TestAppArmorySingleton(t *testing.T) {
	app := newTestApp(t)

	a1, err := app.Armory()
	if err != nil {
		t.Fatalf("Armory() failed: %v", err)
	}
	a2, err := app.Armory()
	if err != nil {
		t.Fatalf("Armory() failed on second call: %v", err)
	}
	if a1 != a2 {
		t.Error("Armory() returned different instances")
	}
}

// TestAppInvalidStore verifies store errors surface on first use.
func TestAppInvalidStore(t *testing.T) {
	app := newTestApp(t)
	app.config.Store = "ftp://nowhere"

	if _, err := app.Armory(); err == nil {
		t.Fatal("Armory() succeeded with an unknown store scheme")
	}
}

func TestExitCode(t *testing.T) {
	app := newTestApp(t)
	app.config.Store = "ftp://nowhere"
	_, storeErr := app.Armory()

	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, 0},
		{"unknown store scheme", storeErr, 2},
		{"config", errors.NewConfigError("config", "unreadable", nil), 2},
		{"missing table", errors.NewSourceNotFound("gdud"), 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ExitCode(tt.err); got != tt.want {
				t.Errorf("ExitCode(%v) = %d, want %d", tt.err, got, tt.want)
			}
		})
	}
}

// TestExecuteMappings runs mappings init and list end to end.
func TestExecuteMappings(t *testing.T) {
	app := newTestApp(t)

	_, stderr, err := run(t, app, "mappings", "init", "-o", "table")
	if err != nil {
		t.Fatalf("mappings init failed: %v", err)
	}
	if !strings.Contains(stderr, "Created mapping table") {
		t.Errorf("stderr = %q", stderr)
	}

	stdout, _, err := run(t, app, "mappings", "list", "--scope", "פלוגה א", "-o", "json")
	if err != nil {
		t.Fatalf("mappings list failed: %v", err)
	}
	var rules []map[string]any
	if err := json.Unmarshal([]byte(stdout), &rules); err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, stdout)
	}
	if len(rules) != 5 {
		t.Errorf("rules = %d, want 5 (rule scoped to another partition excluded)", len(rules))
	}
}

// TestExecuteTransformMissingInputs verifies missing partitions are reported.
func TestExecuteTransformMissingInputs(t *testing.T) {
	app := newTestApp(t)

	stdout, stderr, err := run(t, app, "transform", "-o", "table")
	if err != nil {
		t.Fatalf("transform failed: %v", err)
	}
	if !strings.Contains(stdout, "missing input") {
		t.Errorf("stdout = %q", stdout)
	}
	if !strings.Contains(stderr, "source table not found") {
		t.Errorf("stderr = %q", stderr)
	}
}

// TestExecuteCompareMissingSource verifies compare fails without sources.
func TestExecuteCompareMissingSource(t *testing.T) {
	app := newTestApp(t)

	if _, _, err := run(t, app, "compare"); err == nil {
		t.Fatal("compare succeeded without source tables")
	}
}

// TestExecuteVersion verifies the version command.
func TestExecuteVersion(t *testing.T) {
	app := newTestApp(t)

	stdout, _, err := run(t, app, "version")
	if err != nil {
		t.Fatalf("version failed: %v", err)
	}
	if stdout != "armory 1.0.0\n" {
		t.Errorf("stdout = %q", stdout)
	}
}
