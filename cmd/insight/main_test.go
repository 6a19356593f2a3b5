package main

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadEnv_MissingFileIsFine(t *testing.T) {
	if err := loadEnv(filepath.Join(t.TempDir(), ".env")); err != nil {
		t.Errorf("expected nil for missing file, got %v", err)
	}
	if err := loadEnv(""); err != nil {
		t.Errorf("expected nil for empty path, got %v", err)
	}
}

func TestLoadEnv_DoesNotOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	content := "INSIGHT_TEST_FROM_FILE=file\nINSIGHT_TEST_PRESET=file\n"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("INSIGHT_TEST_PRESET", "env")
	t.Setenv("INSIGHT_TEST_FROM_FILE", "")
	os.Unsetenv("INSIGHT_TEST_FROM_FILE")

	if err := loadEnv(path); err != nil {
		t.Fatalf("loadEnv: %v", err)
	}
	if got := os.Getenv("INSIGHT_TEST_FROM_FILE"); got != "file" {
		t.Errorf("expected value from file, got %q", got)
	}
	if got := os.Getenv("INSIGHT_TEST_PRESET"); got != "env" {
		t.Errorf("expected real env to win, got %q", got)
	}
}

func TestRootCommands(t *testing.T) {
	want := map[string]bool{"serve": false, "explain": false, "version": false, "transcripts": false}
	for _, c := range rootCmd.Commands() {
		if _, ok := want[c.Name()]; ok {
			want[c.Name()] = true
		}
	}
	for name, found := range want {
		if !found {
			t.Errorf("expected %s command", name)
		}
	}
}
