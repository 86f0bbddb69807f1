package cli

import (
	"bytes"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestRootCommandRegistersSubcommands(t *testing.T) {
	c := New(io.Discard, LogInfo)
	root := c.RootCommand()

	want := map[string]bool{"serve": false, "render": false, "version": false}
	for _, cmd := range root.Commands() {
		if _, ok := want[cmd.Name()]; ok {
			want[cmd.Name()] = true
		}
	}
	for name, found := range want {
		if !found {
			t.Errorf("root command is missing %q", name)
		}
	}
}

func TestVersionCommand(t *testing.T) {
	c := New(io.Discard, LogInfo)
	root := c.RootCommand()

	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs([]string{"version"})
	if err := root.Execute(); err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if !strings.Contains(out.String(), "version:") {
		t.Errorf("version output = %q", out.String())
	}
}

func TestRenderCommandOneShot(t *testing.T) {
	t.Setenv("CANVAS_CORE", "http://localhost:8080")
	t.Setenv("CANVAS_HOST", "http://localhost")
	t.Setenv("CANVAS_PORT", "8000")
	t.Setenv("CANVAS_USERNAME", "")
	t.Setenv("CANVAS_PASSWORD", "")

	dir := t.TempDir()
	cellNo := 1
	input := map[string]any{
		"config": map[string]any{"space": "LocalNine", "rows": 2, "cols": 2, "mode": "development"},
		"cells": []map[string]any{
			{
				"args":    map[string]any{"cell_no": cellNo},
				"outputs": []map[string]any{{"mime": "text/html", "data": "<p>hello</p>"}},
			},
		},
	}
	data, err := json.Marshal(input)
	if err != nil {
		t.Fatal(err)
	}
	inputPath := filepath.Join(dir, "cells.json")
	if err := os.WriteFile(inputPath, data, 0o644); err != nil {
		t.Fatal(err)
	}

	c := New(io.Discard, LogInfo)
	root := c.RootCommand()
	root.SetOut(io.Discard)
	root.SetErr(io.Discard)
	outDir := filepath.Join(dir, "out")
	root.SetArgs([]string{"render", inputPath, "--out", outDir, "--mode", "development"})
	if err := root.Execute(); err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if _, err := os.Stat(filepath.Join(outDir, "cell-1-0.html")); err != nil {
		t.Errorf("render did not write the cell asset: %v", err)
	}
	if _, err := os.Stat(filepath.Join(outDir, "project.json")); err != nil {
		t.Errorf("render did not write project.json: %v", err)
	}
}

func TestRenderCommandMissingFile(t *testing.T) {
	t.Setenv("CANVAS_CORE", "http://localhost:8080")
	t.Setenv("CANVAS_HOST", "http://localhost")

	c := New(io.Discard, LogInfo)
	root := c.RootCommand()
	root.SetOut(io.Discard)
	root.SetErr(io.Discard)
	root.SetArgs([]string{"render", "does-not-exist.json", "--out", t.TempDir()})
	if err := root.Execute(); err == nil {
		t.Error("Execute() should fail for a missing input file")
	}
}
