package main

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/erazemk/whereisit/internal/config"
	"github.com/erazemk/whereisit/internal/model"
)

func isolateEnv(t *testing.T) string {
	t.Helper()
	for _, key := range []string{
		config.EnvDataDir, config.EnvDBPath, config.EnvImagesDir,
		config.EnvLogPath, config.EnvPhotoWidth, config.EnvPhotoQuality,
	} {
		t.Setenv(key, "")
	}
	return t.TempDir()
}

func run(t *testing.T, dataDir string, args ...string) (string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	err := execute(context.Background(), append([]string{"--data-dir", dataDir}, args...), &stdout, &stderr)
	return stdout.String(), err
}

func writePNG(t *testing.T, w, h int) string {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		img.Set(x, x%h, color.RGBA{200, 100, 0, 255})
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(t.TempDir(), "capture.png")
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestFirstRunSeedsDefaults(t *testing.T) {
	dataDir := isolateEnv(t)

	out, err := run(t, dataDir, "list")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	for _, name := range []string{"Keys", "Wallet", "Game"} {
		if !strings.Contains(out, name) {
			t.Errorf("expected %q in output:\n%s", name, out)
		}
	}
	if _, err := os.Stat(filepath.Join(dataDir, "whereisit.sqlite3")); err != nil {
		t.Errorf("expected database file: %v", err)
	}
}

func TestListSearch(t *testing.T) {
	dataDir := isolateEnv(t)

	out, err := run(t, dataDir, "list", "--search", "umb")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "Umbrella") || strings.Contains(out, "Keys") {
		t.Errorf("unexpected search output:\n%s", out)
	}

	out, _ = run(t, dataDir, "list", "-s", "nothing-matches")
	if !strings.Contains(out, "No items.") {
		t.Errorf("expected empty result, got:\n%s", out)
	}
}

func TestAddLocateDeleteFlow(t *testing.T) {
	dataDir := isolateEnv(t)

	out, err := run(t, dataDir, "--json", "add", "--name", "Passport", "--photo", writePNG(t, 1600, 1200))
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	var added model.Item
	if err := json.Unmarshal([]byte(out), &added); err != nil {
		t.Fatalf("decoding add output %q: %v", out, err)
	}
	if added.Name != "Passport" || !added.HasLocation() {
		t.Fatalf("unexpected item %+v", added)
	}
	firstPhoto := added.Location()

	out, err = run(t, dataDir, "--json", "locate", added.ID, writePNG(t, 800, 600))
	if err != nil {
		t.Fatalf("locate: %v", err)
	}
	var moved model.Item
	json.Unmarshal([]byte(out), &moved)
	if moved.Location() == firstPhoto {
		t.Error("expected a new location photo")
	}
	// The command closes the store, which waits for the old photo's removal.
	if _, err := os.Stat(firstPhoto); !os.IsNotExist(err) {
		t.Errorf("expected old photo deleted, stat err = %v", err)
	}

	out, err = run(t, dataDir, "show", added.ID)
	if err != nil {
		t.Fatalf("show: %v", err)
	}
	if !strings.Contains(out, moved.Location()) {
		t.Errorf("expected location in show output:\n%s", out)
	}

	if _, err := run(t, dataDir, "delete", added.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := os.Stat(moved.Location()); !os.IsNotExist(err) {
		t.Errorf("expected photo deleted with item, stat err = %v", err)
	}

	out, _ = run(t, dataDir, "list")
	if strings.Contains(out, "Passport") {
		t.Errorf("expected item gone:\n%s", out)
	}
}

func TestAddRequiresPhoto(t *testing.T) {
	dataDir := isolateEnv(t)

	_, err := run(t, dataDir, "add", "--name", "Keys")
	if err == nil || !strings.Contains(err.Error(), "photo") {
		t.Errorf("expected photo error, got %v", err)
	}
}

func TestUnknownItem(t *testing.T) {
	dataDir := isolateEnv(t)

	for _, args := range [][]string{
		{"show", "nope"},
		{"delete", "nope"},
		{"locate", "nope", writePNG(t, 10, 10)},
	} {
		_, err := run(t, dataDir, args...)
		if err == nil || !strings.Contains(err.Error(), `no item with id "nope"`) {
			t.Errorf("%v: expected not found error, got %v", args, err)
		}
	}
}

func TestPresetsDoesNotOpenStorage(t *testing.T) {
	dataDir := isolateEnv(t)

	out, err := run(t, dataDir, "presets")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "preset:Headphones") {
		t.Errorf("expected preset tokens:\n%s", out)
	}
	if _, err := os.Stat(filepath.Join(dataDir, "whereisit.sqlite3")); !os.IsNotExist(err) {
		t.Error("expected no database to be created")
	}
}
