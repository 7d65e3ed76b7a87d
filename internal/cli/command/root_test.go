package command

import (
	"bytes"
	"encoding/hex"
	"os"
	"path/filepath"
	"testing"

	"github.com/urfave/cli/v2"

	"github.com/arkvale/worldsave-go/pkg/snapshot"
)

func TestApp(t *testing.T) {
	app := App()
	if app == nil {
		t.Fatal("App() returned nil")
	}

	if app.Name != "worldsave" {
		t.Errorf("Name = %q, want %q", app.Name, "worldsave")
	}
	if app.Usage == "" {
		t.Error("Usage should not be empty")
	}

	commandNames := make(map[string]bool)
	for _, cmd := range app.Commands {
		commandNames[cmd.Name] = true
	}

	requiredCommands := []string{"inspect", "verify", "watch", "archive", "keygen"}
	for _, name := range requiredCommands {
		if !commandNames[name] {
			t.Errorf("missing required command: %s", name)
		}
	}
}

func TestApp_GlobalFlags(t *testing.T) {
	app := App()

	flagNames := make(map[string]bool)
	for _, flag := range app.Flags {
		flagNames[flag.Names()[0]] = true
	}

	requiredFlags := []string{"config", "output", "wide", "log-level", "log-format"}
	for _, name := range requiredFlags {
		if !flagNames[name] {
			t.Errorf("missing required flag: %s", name)
		}
	}
}

func TestParseGlobalFlags(t *testing.T) {
	app := &cli.App{
		Flags: globalFlags(),
		Action: func(c *cli.Context) error {
			flags := ParseGlobalFlags(c)

			if flags.ConfigFile != "conf.yaml" {
				t.Errorf("ConfigFile = %q, want %q", flags.ConfigFile, "conf.yaml")
			}
			if flags.Output != "json" {
				t.Errorf("Output = %q, want %q", flags.Output, "json")
			}
			if !flags.Wide {
				t.Error("Wide should be true")
			}
			if flags.LogLevel != "debug" {
				t.Errorf("LogLevel = %q, want %q", flags.LogLevel, "debug")
			}
			return nil
		},
	}

	args := []string{
		"test",
		"--config", "conf.yaml",
		"--output", "json",
		"--wide",
		"--log-level", "debug",
	}

	if err := app.Run(args); err != nil {
		t.Fatalf("app.Run failed: %v", err)
	}
}

func TestApp_RejectsUnknownOutputFormat(t *testing.T) {
	path := filepath.Join(t.TempDir(), "world.save")
	writeSnapshotFile(t, path, 1, nil)

	if _, err := runApp(t, "-o", "xml", "inspect", path); err == nil {
		t.Error("expected an error for -o xml")
	}
}

func TestParseGlobalFlags_Defaults(t *testing.T) {
	app := &cli.App{
		Flags: globalFlags(),
		Action: func(c *cli.Context) error {
			flags := ParseGlobalFlags(c)

			if flags.Output != "table" {
				t.Errorf("Output default = %q, want %q", flags.Output, "table")
			}
			if flags.Wide {
				t.Error("Wide default should be false")
			}
			if flags.LogLevel != "warn" {
				t.Errorf("LogLevel default = %q, want %q", flags.LogLevel, "warn")
			}
			if flags.LogFormat != "text" {
				t.Errorf("LogFormat default = %q, want %q", flags.LogFormat, "text")
			}
			return nil
		},
	}

	if err := app.Run([]string{"test"}); err != nil {
		t.Fatalf("app.Run failed: %v", err)
	}
}

func TestLoadSettings_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "worldsave.yaml")
	content := `
snapshot:
  path: saves/world.save
  keyfile: /etc/worldsave/key
archive:
  dir: /var/lib/worldsave/archive
  keep: 5
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	s, err := loadSettings(path)
	if err != nil {
		t.Fatalf("loadSettings() error = %v", err)
	}

	if s.Snapshot.Path != "saves/world.save" {
		t.Errorf("Snapshot.Path = %q, want %q", s.Snapshot.Path, "saves/world.save")
	}
	if s.Snapshot.Keyfile != "/etc/worldsave/key" {
		t.Errorf("Snapshot.Keyfile = %q, want %q", s.Snapshot.Keyfile, "/etc/worldsave/key")
	}
	if s.Archive.Dir != "/var/lib/worldsave/archive" {
		t.Errorf("Archive.Dir = %q, want %q", s.Archive.Dir, "/var/lib/worldsave/archive")
	}
	if s.Archive.Keep != 5 {
		t.Errorf("Archive.Keep = %d, want 5", s.Archive.Keep)
	}
}

func TestLoadSettings_Env(t *testing.T) {
	t.Setenv("WORLDSAVE_ARCHIVE_DIR", "/srv/archive")
	t.Setenv("WORLDSAVE_SNAPSHOT_KEYFILE", "/srv/key")

	s, err := loadSettings("")
	if err != nil {
		t.Fatalf("loadSettings() error = %v", err)
	}

	if s.Archive.Dir != "/srv/archive" {
		t.Errorf("Archive.Dir = %q, want %q", s.Archive.Dir, "/srv/archive")
	}
	if s.Snapshot.Keyfile != "/srv/key" {
		t.Errorf("Snapshot.Keyfile = %q, want %q", s.Snapshot.Keyfile, "/srv/key")
	}
}

func TestLoadSettings_MissingFile(t *testing.T) {
	if _, err := loadSettings(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("loadSettings() should fail for a missing file")
	}
}

func TestGetSettings_Default(t *testing.T) {
	app := &cli.App{Metadata: map[string]any{}}
	ctx := cli.NewContext(app, nil, nil)

	s := getSettings(ctx)
	if s == nil {
		t.Fatal("getSettings() returned nil")
	}
	if s.Archive.Dir != "" {
		t.Errorf("Archive.Dir = %q, want empty", s.Archive.Dir)
	}
}

func TestEncryptionFromContext(t *testing.T) {
	keyPath := filepath.Join(t.TempDir(), "key")
	key, err := snapshot.GenerateKey(32)
	if err != nil {
		t.Fatalf("GenerateKey() error = %v", err)
	}
	if err := os.WriteFile(keyPath, []byte(hex.EncodeToString(key)+"\n"), 0600); err != nil {
		t.Fatalf("write key: %v", err)
	}

	tests := []struct {
		name     string
		args     []string
		wantNil  bool
		wantPass bool
		wantKey  bool
	}{
		{"no flags", nil, true, false, false},
		{"passphrase", []string{"--passphrase", "open sesame"}, false, true, false},
		{"key file", []string{"--key-file", keyPath}, false, false, true},
		{"passphrase wins", []string{"--passphrase", "open sesame", "--key-file", keyPath}, false, true, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := &cli.App{
				Flags:    keyFlags(),
				Metadata: map[string]any{},
				Action: func(c *cli.Context) error {
					enc, err := encryptionFromContext(c)
					if err != nil {
						t.Fatalf("encryptionFromContext() error = %v", err)
					}
					if tt.wantNil {
						if enc != nil {
							t.Fatal("expected nil config")
						}
						return nil
					}
					if enc == nil {
						t.Fatal("expected non-nil config")
					}
					if tt.wantPass && len(enc.Passphrase) == 0 {
						t.Error("expected passphrase to be set")
					}
					if tt.wantKey && !bytes.Equal(enc.Key, key) {
						t.Error("expected key from key file")
					}
					return nil
				},
			}
			if err := app.Run(append([]string{"test"}, tt.args...)); err != nil {
				t.Fatalf("app.Run failed: %v", err)
			}
		})
	}
}

func TestReadKeyFile(t *testing.T) {
	dir := t.TempDir()

	goodPath := filepath.Join(dir, "good")
	if err := os.WriteFile(goodPath, []byte("00112233445566778899aabbccddeeff\n"), 0600); err != nil {
		t.Fatalf("write key: %v", err)
	}

	key, err := readKeyFile(goodPath)
	if err != nil {
		t.Fatalf("readKeyFile() error = %v", err)
	}
	if len(key) != 16 {
		t.Errorf("key length = %d, want 16", len(key))
	}

	badPath := filepath.Join(dir, "bad")
	if err := os.WriteFile(badPath, []byte("not hex at all"), 0600); err != nil {
		t.Fatalf("write key: %v", err)
	}
	if _, err := readKeyFile(badPath); err == nil {
		t.Error("readKeyFile() should reject non-hex content")
	}

	if _, err := readKeyFile(filepath.Join(dir, "missing")); err == nil {
		t.Error("readKeyFile() should fail for a missing file")
	}
}

func TestPrintError(t *testing.T) {
	oldStderr := os.Stderr
	r, w, _ := os.Pipe()
	os.Stderr = w

	PrintError("test error: %s", "details")

	w.Close()
	os.Stderr = oldStderr

	var buf bytes.Buffer
	buf.ReadFrom(r)

	if buf.String() != "error: test error: details\n" {
		t.Errorf("PrintError output = %q, want %q", buf.String(), "error: test error: details\n")
	}
}

func TestTruncateID(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"short", "short"},
		{"exactly16chars!!", "exactly16chars!!"},
		{"snap-01jx3v8g2qkm9n4p5r6s7t8u9v", "snap-01jx3v8g..."},
		{"", ""},
	}

	for _, tt := range tests {
		got := truncateID(tt.input)
		if got != tt.want {
			t.Errorf("truncateID(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestArchiveCommand(t *testing.T) {
	cmd := ArchiveCommand()
	if cmd == nil {
		t.Fatal("ArchiveCommand returned nil")
	}

	if cmd.Name != "archive" {
		t.Errorf("Name = %q, want %q", cmd.Name, "archive")
	}

	subNames := make(map[string]bool)
	for _, sub := range cmd.Subcommands {
		subNames[sub.Name] = true
	}

	requiredSubs := []string{"list", "show", "put", "restore", "prune", "verify", "stats"}
	for _, name := range requiredSubs {
		if !subNames[name] {
			t.Errorf("missing subcommand: %s", name)
		}
	}
}

func TestGlobalFlags_EnvVars(t *testing.T) {
	envVarFlags := make(map[string][]string)
	for _, flag := range globalFlags() {
		if sf, ok := flag.(*cli.StringFlag); ok {
			envVarFlags[sf.Name] = sf.EnvVars
		}
	}

	if len(envVarFlags["config"]) == 0 || envVarFlags["config"][0] != "WORLDSAVE_CONFIG" {
		t.Error("config flag should have WORLDSAVE_CONFIG env var")
	}

	for _, flag := range keyFlags() {
		sf, ok := flag.(*cli.StringFlag)
		if !ok || sf.Name != "passphrase" {
			continue
		}
		if len(sf.EnvVars) == 0 || sf.EnvVars[0] != "WORLDSAVE_PASSPHRASE" {
			t.Error("passphrase flag should have WORLDSAVE_PASSPHRASE env var")
		}
	}
}
