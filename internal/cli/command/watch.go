// Package command provides CLI command definitions for worldsave.
package command

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/arkvale/worldsave-go/internal/infra/shutdown"
	"github.com/arkvale/worldsave-go/pkg/snapshot"
)

// WatchCommand returns the watch command.
func WatchCommand() *cli.Command {
	return &cli.Command{
		Name:      "watch",
		Usage:     "Watch a snapshot file and verify every change",
		ArgsUsage: "FILE",
		Flags:     keyFlags(),
		Action:    watchRun,
	}
}

func watchRun(c *cli.Context) error {
	path := c.Args().First()
	if path == "" {
		return fmt.Errorf("snapshot file required")
	}

	enc, err := encryptionFromContext(c)
	if err != nil {
		return err
	}

	watcher, err := snapshot.NewWatcher(path)
	if err != nil {
		return fmt.Errorf("watch %s: %w", path, err)
	}
	watcher.OnChange(func(changed string) {
		reportChange(changed, enc)
	})
	watcher.StartAsync()

	if _, err := os.Stat(path); err == nil {
		reportChange(path, enc)
	}
	fmt.Printf("Watching %s (Ctrl-C to stop)...\n", path)

	handler := shutdown.NewHandler(5 * time.Second)
	handler.OnShutdown(func(context.Context) error {
		return watcher.Stop()
	})
	return handler.Wait()
}

func reportChange(path string, enc *snapshot.EncryptionConfig) {
	now := time.Now().Format("15:04:05")
	doc, err := verifyFile(path, enc)
	if err != nil {
		fmt.Printf("%s  ✗ %s: %v\n", now, path, err)
		return
	}
	fmt.Printf("%s  ✓ %s: %s, %d entities\n", now, path, doc.Meta.ID, len(doc.Entities))
}
