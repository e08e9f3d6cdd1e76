package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultsRoundtrip(t *testing.T) {
	d := Defaults{Adapter: "dht", FilePath: "/tmp/rendezvous", DHTHost: "localhost", DHTPort: 8000}
	text := d.ToTOML()

	parsed, err := FromTOML(text)
	if err != nil {
		t.Fatalf("FromTOML error: %v", err)
	}
	if parsed != d {
		t.Errorf("FromTOML(ToTOML()) = %+v, want %+v", parsed, d)
	}
}

func TestDefaultsOrDefaultFallsBackWhenUnset(t *testing.T) {
	var d Defaults
	if got := d.AdapterOrDefault("file"); got != "file" {
		t.Errorf("AdapterOrDefault = %q, want %q", got, "file")
	}
	if got := d.DHTPortOrDefault(8000); got != 8000 {
		t.Errorf("DHTPortOrDefault = %d, want %d", got, 8000)
	}
}

func TestDefaultsOrDefaultPrefersConfigured(t *testing.T) {
	d := Defaults{Adapter: "dht", DHTPort: 9000}
	if got := d.AdapterOrDefault("file"); got != "dht" {
		t.Errorf("AdapterOrDefault = %q, want %q", got, "dht")
	}
	if got := d.DHTPortOrDefault(8000); got != 9000 {
		t.Errorf("DHTPortOrDefault = %d, want %d", got, 9000)
	}
}

func TestLoadReturnsZeroValueWhenNoFileExists(t *testing.T) {
	dir := t.TempDir()
	cwd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	defer os.Chdir(cwd)
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(dir, "does-not-exist"))

	cfg, err := Load()
	if err != nil {
		t.Fatal(err)
	}
	if cfg != (Defaults{}) {
		t.Errorf("Load() = %+v, want zero value", cfg)
	}
}

func TestLoadReadsSgmagentTomlFromCurrentDirectory(t *testing.T) {
	dir := t.TempDir()
	cwd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	defer os.Chdir(cwd)
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}

	want := Defaults{Adapter: "dht", DHTHost: "example.org", DHTPort: 1234}
	if err := os.WriteFile(filepath.Join(dir, "sgmagent.toml"), []byte(want.ToTOML()), 0o644); err != nil {
		t.Fatal(err)
	}

	got, err := Load()
	if err != nil {
		t.Fatal(err)
	}
	if got != want {
		t.Errorf("Load() = %+v, want %+v", got, want)
	}
}
