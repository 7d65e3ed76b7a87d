// Package command provides CLI command definitions for worldsave.
package command

import (
	"encoding/hex"
	"fmt"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/arkvale/worldsave-go/pkg/snapshot"
)

// KeygenCommand returns the keygen command.
func KeygenCommand() *cli.Command {
	return &cli.Command{
		Name:  "keygen",
		Usage: "Generate a snapshot encryption key",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:    "length",
				Aliases: []string{"l"},
				Value:   32,
				Usage:   "Key length in bytes (16, 24, or 32)",
			},
			&cli.StringFlag{
				Name:  "out",
				Usage: "Write the key to a file instead of stdout",
			},
		},
		Action: keygenRun,
	}
}

func keygenRun(c *cli.Context) error {
	key, err := snapshot.GenerateKey(c.Int("length"))
	if err != nil {
		return err
	}
	defer snapshot.ZeroKey(key)

	encoded := hex.EncodeToString(key)

	if out := c.String("out"); out != "" {
		if err := os.WriteFile(out, []byte(encoded+"\n"), 0600); err != nil {
			return fmt.Errorf("write key file: %w", err)
		}
		fmt.Printf("Key written to %s.\n", out)
		return nil
	}

	fmt.Println(encoded)
	fmt.Fprintf(os.Stderr, "\n⚠️  Store this key safely - an encrypted snapshot cannot be read without it.\n")
	return nil
}
