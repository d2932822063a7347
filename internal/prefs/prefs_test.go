package prefs

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	p, err := Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if p.Theme != defaultTheme {
		t.Fatalf("Theme = %q, want %q", p.Theme, defaultTheme)
	}
	if p.UniqueSession {
		t.Fatal("UniqueSession = true, want false by default")
	}
	if p.DeviceID != "" {
		t.Fatalf("DeviceID = %q, want empty before EnsureDeviceID", p.DeviceID)
	}
}

func TestLoad_ReadsExistingFile(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	prefsDir := filepath.Join(home, ".config", "sommelier")
	if err := os.MkdirAll(prefsDir, 0o755); err != nil {
		t.Fatalf("MkdirAll: %v", err)
	}

	prefsFile := filepath.Join(prefsDir, "prefs.toml")
	body := "theme = \"Slate\"\nunique_session = true\ndevice_id = \" abc \"\n"
	if err := os.WriteFile(prefsFile, []byte(body), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	p, err := Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if p.Theme != "Slate" {
		t.Fatalf("Theme = %q, want %q", p.Theme, "Slate")
	}
	if !p.UniqueSession {
		t.Fatal("UniqueSession = false, want true")
	}
	if p.DeviceID != "abc" {
		t.Fatalf("DeviceID = %q, want abc", p.DeviceID)
	}
}

func TestSave_RoundTripsAllFields(t *testing.T) {
	tmp := t.TempDir()
	prefsFile := filepath.Join(tmp, "subdir", "prefs.toml")

	p := Prefs{Theme: "Barrique", UniqueSession: true}
	if !p.EnsureDeviceID() {
		t.Fatal("EnsureDeviceID() = false on empty id")
	}
	if err := Save(prefsFile, p); err != nil {
		t.Fatalf("Save returned error: %v", err)
	}

	loaded, err := Load(prefsFile)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if loaded != p {
		t.Fatalf("Load = %#v, want %#v", loaded, p)
	}
}

func TestEnsureDeviceID_KeepsExisting(t *testing.T) {
	p := Prefs{DeviceID: "fixed"}
	if p.EnsureDeviceID() {
		t.Fatal("EnsureDeviceID() = true with existing id")
	}
	if p.DeviceID != "fixed" {
		t.Fatalf("DeviceID = %q, want fixed", p.DeviceID)
	}

	var a, b Prefs
	a.EnsureDeviceID()
	b.EnsureDeviceID()
	if a.DeviceID == b.DeviceID {
		t.Fatalf("two generated ids collide: %q", a.DeviceID)
	}
}

func TestLoad_EmptyThemeFallsBackToDefault(t *testing.T) {
	tmp := t.TempDir()
	prefsFile := filepath.Join(tmp, "prefs.toml")
	if err := os.WriteFile(prefsFile, []byte("theme = \"\"\n"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	p, err := Load(prefsFile)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if p.Theme != defaultTheme {
		t.Fatalf("Theme = %q, want %q", p.Theme, defaultTheme)
	}
}

func TestLoad_InvalidTOMLFallsBackToDefault(t *testing.T) {
	tmp := t.TempDir()
	prefsFile := filepath.Join(tmp, "prefs.toml")
	if err := os.WriteFile(prefsFile, []byte("not valid toml {{{\n"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	p, err := Load(prefsFile)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if p.Theme != defaultTheme || p.UniqueSession {
		t.Fatalf("Load = %#v, want defaults", p)
	}
}
