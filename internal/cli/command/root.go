// Package command provides CLI command definitions for worldsave.
package command

import (
	"encoding/hex"
	"fmt"
	"os"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/arkvale/worldsave-go/internal/cli/output"
	"github.com/arkvale/worldsave-go/internal/infra/buildinfo"
	"github.com/arkvale/worldsave-go/internal/infra/confloader"
	"github.com/arkvale/worldsave-go/internal/telemetry/logger"
	"github.com/arkvale/worldsave-go/pkg/snapshot"
)

// App creates the CLI application.
func App() *cli.App {
	app := &cli.App{
		Name:     "worldsave",
		Usage:    "WorldSave snapshot management tool",
		Version:  buildinfo.Get().String(),
		Flags:    globalFlags(),
		Metadata: map[string]any{},
		Commands: []*cli.Command{
			InspectCommand(),
			VerifyCommand(),
			WatchCommand(),
			ArchiveCommand(),
			KeygenCommand(),
		},
		Before: func(c *cli.Context) error {
			flags := ParseGlobalFlags(c)
			if _, err := output.ParseFormat(flags.Output); err != nil {
				return err
			}
			logger.Init(logger.Config{
				Level:  flags.LogLevel,
				Format: flags.LogFormat,
				Output: os.Stderr,
			})

			settings, err := loadSettings(flags.ConfigFile)
			if err != nil {
				return err
			}
			c.App.Metadata["settings"] = settings
			return nil
		},
	}

	return app
}

// globalFlags returns the global CLI flags.
func globalFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "config",
			Aliases: []string{"c"},
			Usage:   "Configuration file (YAML)",
			EnvVars: []string{"WORLDSAVE_CONFIG"},
		},
		&cli.StringFlag{
			Name:    "output",
			Aliases: []string{"o"},
			Usage:   "Output format: table, json, yaml",
			Value:   "table",
		},
		&cli.BoolFlag{
			Name:    "wide",
			Aliases: []string{"w"},
			Usage:   "Show wide output (more columns)",
		},
		&cli.StringFlag{
			Name:  "log-level",
			Usage: "Log level: debug, info, warn, error",
			Value: "warn",
		},
		&cli.StringFlag{
			Name:  "log-format",
			Usage: "Log format: text, json",
			Value: "text",
		},
	}
}

// GlobalFlags defines flags available to all commands.
type GlobalFlags struct {
	ConfigFile string

	// Output format
	Output string // table, json, yaml
	Wide   bool

	LogLevel  string
	LogFormat string
}

// ParseGlobalFlags extracts global flags from context.
func ParseGlobalFlags(c *cli.Context) *GlobalFlags {
	return &GlobalFlags{
		ConfigFile: c.String("config"),
		Output:     c.String("output"),
		Wide:       c.Bool("wide"),
		LogLevel:   c.String("log-level"),
		LogFormat:  c.String("log-format"),
	}
}

// Settings is the CLI configuration, loaded from an optional YAML file and
// WORLDSAVE_* environment variables.
type Settings struct {
	Snapshot struct {
		Path    string `koanf:"path"`
		Keyfile string `koanf:"keyfile"`
	} `koanf:"snapshot"`
	Archive struct {
		Dir  string `koanf:"dir"`
		Keep int    `koanf:"keep"`
	} `koanf:"archive"`
}

func loadSettings(configFile string) (*Settings, error) {
	loader := confloader.NewLoader(confloader.WithConfigFile(configFile))
	var s Settings
	if err := loader.Load(&s); err != nil {
		return nil, fmt.Errorf("load settings: %w", err)
	}
	return &s, nil
}

// getSettings retrieves the loaded settings from context.
func getSettings(c *cli.Context) *Settings {
	if s, ok := c.App.Metadata["settings"].(*Settings); ok {
		return s
	}
	return &Settings{}
}

// keyFlags returns the flags commands accept for reading encrypted
// snapshots.
func keyFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "key-file",
			Aliases: []string{"k"},
			Usage:   "File containing the hex-encoded encryption key",
		},
		&cli.StringFlag{
			Name:    "passphrase",
			Aliases: []string{"p"},
			Usage:   "Encryption passphrase",
			EnvVars: []string{"WORLDSAVE_PASSPHRASE"},
		},
	}
}

// encryptionFromContext assembles the optional decryption configuration
// from --passphrase, --key-file, or the configured keyfile, in that order.
// Returns nil when nothing is configured.
func encryptionFromContext(c *cli.Context) (*snapshot.EncryptionConfig, error) {
	if pass := c.String("passphrase"); pass != "" {
		return &snapshot.EncryptionConfig{Passphrase: []byte(pass)}, nil
	}

	keyFile := c.String("key-file")
	if keyFile == "" {
		keyFile = getSettings(c).Snapshot.Keyfile
	}
	if keyFile == "" {
		return nil, nil
	}

	key, err := readKeyFile(keyFile)
	if err != nil {
		return nil, err
	}
	return &snapshot.EncryptionConfig{Key: key}, nil
}

// readKeyFile reads a hex-encoded key, as written by keygen.
func readKeyFile(path string) ([]byte, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read key file: %w", err)
	}
	key, err := hex.DecodeString(strings.TrimSpace(string(raw)))
	if err != nil {
		return nil, fmt.Errorf("key file %s: not a hex key: %w", path, err)
	}
	return key, nil
}

// PrintError prints an error message to stderr.
func PrintError(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "error: "+format+"\n", args...)
}

// truncateID truncates long IDs for display.
func truncateID(id string) string {
	if len(id) <= 16 {
		return id
	}
	return id[:13] + "..."
}
