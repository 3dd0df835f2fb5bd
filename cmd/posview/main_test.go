package main

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"
)

func execute(t *testing.T, args ...string) string {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs(args)
	if err := rootCmd.Execute(); err != nil {
		t.Fatalf("posview %s: %v", strings.Join(args, " "), err)
	}
	return out.String()
}

func TestClassifyCommand(t *testing.T) {
	out := execute(t, "classify", "--patch", "../../testdata/pos.html")

	var report struct {
		Root *struct {
			Tag string `json:"tag"`
		} `json:"root"`
		Rows []struct {
			Thumbnail *struct {
				Tag string `json:"tag"`
			} `json:"thumbnail"`
		} `json:"rows"`
		Outcome struct {
			Rows int `json:"rows"`
		} `json:"list_outcome"`
		Patch []json.RawMessage `json:"list_patch"`
	}
	if err := json.Unmarshal([]byte(out), &report); err != nil {
		t.Fatalf("decode: %v\n%s", err, out)
	}
	if report.Root == nil || report.Root.Tag != "div" {
		t.Fatalf("root: %+v", report.Root)
	}
	if len(report.Rows) != 9 {
		t.Fatalf("rows: %d", len(report.Rows))
	}
	for i, r := range report.Rows {
		if r.Thumbnail == nil || r.Thumbnail.Tag != "img" {
			t.Fatalf("row %d thumbnail: %+v", i, r.Thumbnail)
		}
	}
	if report.Outcome.Rows != 9 || len(report.Patch) == 0 {
		t.Fatalf("list outcome %+v, patch %d changes", report.Outcome, len(report.Patch))
	}
}

func TestModeCommands(t *testing.T) {
	t.Setenv("POSVIEW_PREFS_SQLITE", filepath.Join(t.TempDir(), "prefs.db"))

	if out := execute(t, "mode", "get"); strings.TrimSpace(out) != "grid" {
		t.Fatalf("initial mode: %q", out)
	}
	if out := execute(t, "mode", "set", "List"); !strings.Contains(out, "list (sqlite)") {
		t.Fatalf("set: %q", out)
	}
	if out := execute(t, "mode", "get"); strings.TrimSpace(out) != "list" {
		t.Fatalf("mode after set: %q", out)
	}
}
