package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const fixtureCSV = `# x,y,z in pc
x,y,z,nh,temp,h2frac
0,0,0,1e-2,300,1e-6
1,1,1,1,450,1e-5
2,2,2,1e2,900,1e-4
3,3,3,1e4,1500,1e-3
4,4,4,1e6,800,1e-2
5,5,5,1e8,600,1e-1
`

func writeFixture(t *testing.T, dir string) string {
	t.Helper()
	path := filepath.Join(dir, "halo.csv")
	if err := os.WriteFile(path, []byte(fixtureCSV), 0644); err != nil {
		t.Fatalf("Failed to write fixture: %v", err)
	}
	return path
}

func runOK(t *testing.T, args ...string) string {
	t.Helper()
	var out bytes.Buffer
	if err := run(args, &out); err != nil {
		t.Fatalf("run(%v) error = %v\noutput: %s", args, err, out.String())
	}
	return out.String()
}

func TestEndToEnd(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "test.db")
	csvPath := writeFixture(t, dir)

	id := strings.TrimSpace(runOK(t, "import", "-db", dbPath, "-z", "20", csvPath))
	if id == "" {
		t.Fatal("import printed no snapshot ID")
	}

	list := runOK(t, "list", "-db", dbPath)
	if !strings.Contains(list, id) || !strings.Contains(list, "halo") {
		t.Errorf("list output missing snapshot:\n%s", list)
	}

	png := filepath.Join(dir, "temp.png")
	if got := strings.TrimSpace(runOK(t, "plot", "-db", dbPath, "-snapshot", id, "-gridsize", "10", "-o", png)); got != png {
		t.Errorf("plot printed %q, want %q", got, png)
	}
	if info, err := os.Stat(png); err != nil || info.Size() == 0 {
		t.Errorf("plot did not write %s: %v", png, err)
	}

	html := filepath.Join(dir, "h2.html")
	runOK(t, "plot", "-db", dbPath, "-snapshot", id, "-kind", "h2-fraction", "-gridsize", "8", "-o", html)
	data, err := os.ReadFile(html)
	if err != nil || !strings.Contains(string(data), "echarts") {
		t.Errorf("html plot not written: %v", err)
	}

	if out := runOK(t, "delete", "-db", dbPath, id); !strings.Contains(out, id) {
		t.Errorf("delete output = %q", out)
	}
	if strings.Contains(runOK(t, "list", "-db", dbPath), id) {
		t.Error("snapshot still listed after delete")
	}
}

func TestPlotFromCSV(t *testing.T) {
	dir := t.TempDir()
	csvPath := writeFixture(t, dir)
	out := filepath.Join(dir, "radial.svg")

	runOK(t, "plot", "-csv", csvPath, "-z", "15", "-kind", "radial-temperature", "-o", out)
	data, err := os.ReadFile(out)
	if err != nil || !strings.Contains(string(data), "<svg") {
		t.Errorf("svg plot not written: %v", err)
	}
}

func TestPlotOutputWithoutExtension(t *testing.T) {
	dir := t.TempDir()
	csvPath := writeFixture(t, dir)

	got := strings.TrimSpace(runOK(t, "plot", "-csv", csvPath, "-gridsize", "8", "-o", filepath.Join(dir, "phase")))
	if want := filepath.Join(dir, "phase.png"); got != want {
		t.Fatalf("plot printed %q, want %q", got, want)
	}
	data, err := os.ReadFile(got)
	if err != nil || !bytes.HasPrefix(data, []byte("\x89PNG")) {
		t.Errorf("png plot not written to %s: %v", got, err)
	}

	cfgPath := filepath.Join(dir, "svg.json")
	if err := os.WriteFile(cfgPath, []byte(`{"format": "svg"}`), 0644); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}
	got = strings.TrimSpace(runOK(t, "plot", "-csv", csvPath, "-config", cfgPath, "-gridsize", "8", "-o", filepath.Join(dir, "cfg")))
	if want := filepath.Join(dir, "cfg.svg"); got != want {
		t.Fatalf("plot printed %q, want %q", got, want)
	}
	data, err = os.ReadFile(got)
	if err != nil || !strings.Contains(string(data), "<svg") {
		t.Errorf("svg plot not written to %s: %v", got, err)
	}
}

func TestPlotErrors(t *testing.T) {
	dir := t.TempDir()
	csvPath := writeFixture(t, dir)
	out := filepath.Join(dir, "x.png")

	tests := map[string][]string{
		"no source":     {"plot", "-o", out},
		"both sources":  {"plot", "-csv", csvPath, "-snapshot", "abc", "-o", out},
		"unknown kind":  {"plot", "-csv", csvPath, "-kind", "entropy", "-o", out},
		"bad gridsize":  {"plot", "-csv", csvPath, "-gridsize", "1", "-o", out},
		"bad format":    {"plot", "-csv", csvPath, "-o", filepath.Join(dir, "x.gif")},
		"missing field": {"plot", "-csv", csvPath, "-kind", "electron-fraction", "-o", out},
		"outside dirs":  {"plot", "-csv", csvPath, "-o", "/etc/phaseplot.png"},
	}
	for name, args := range tests {
		t.Run(name, func(t *testing.T) {
			var buf bytes.Buffer
			if err := run(args, &buf); err == nil {
				t.Errorf("run(%v) succeeded, want error", args)
			}
		})
	}
}

func TestVersionAndHelp(t *testing.T) {
	if out := runOK(t, "version"); !strings.HasPrefix(out, "phaseplot ") {
		t.Errorf("version output = %q", out)
	}
	if out := runOK(t, "help"); !strings.Contains(out, "radial-temperature") {
		t.Errorf("help output missing plot kinds:\n%s", out)
	}
	var buf bytes.Buffer
	if err := run(nil, &buf); err == nil {
		t.Error("run with no command should fail")
	}
	if err := run([]string{"frobnicate"}, &buf); err == nil {
		t.Error("run with unknown command should fail")
	}
}

func TestMigrateCommand(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "m.db")
	if out := runOK(t, "migrate", "-db", dbPath, "up"); !strings.Contains(out, "Current version") {
		t.Errorf("migrate up output = %q", out)
	}
	if out := runOK(t, "migrate", "-db", dbPath, "status"); !strings.Contains(out, "Dirty: false") {
		t.Errorf("migrate status output = %q", out)
	}
}
