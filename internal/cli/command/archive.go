// Package command provides CLI command definitions for worldsave.
package command

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/arkvale/worldsave-go/internal/cli/output"
	"github.com/arkvale/worldsave-go/pkg/archive"
	"github.com/arkvale/worldsave-go/pkg/snapshot"
)

// ArchiveCommand returns the archive subcommand group.
func ArchiveCommand() *cli.Command {
	return &cli.Command{
		Name:    "archive",
		Aliases: []string{"ar"},
		Usage:   "Manage the snapshot archive",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "dir",
				Aliases: []string{"d"},
				Usage:   "Archive database directory",
				EnvVars: []string{"WORLDSAVE_ARCHIVE_DIR"},
			},
		},
		Subcommands: []*cli.Command{
			{
				Name:   "list",
				Usage:  "List archived snapshots, oldest first",
				Action: archiveList,
			},
			{
				Name:      "show",
				Usage:     "Show metadata of an archived snapshot",
				ArgsUsage: "SNAPSHOT_ID",
				Action:    archiveShow,
			},
			{
				Name:      "put",
				Usage:     "Archive a snapshot file",
				ArgsUsage: "FILE",
				Action:    archivePut,
			},
			{
				Name:      "restore",
				Usage:     "Write an archived snapshot back to a file",
				ArgsUsage: "SNAPSHOT_ID FILE",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:    "force",
						Aliases: []string{"f"},
						Usage:   "Overwrite without confirmation",
					},
				},
				Action: archiveRestore,
			},
			{
				Name:  "prune",
				Usage: "Delete old snapshots, keeping the newest N",
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:    "keep",
						Aliases: []string{"n"},
						Value:   10,
						Usage:   "Number of snapshots to keep",
					},
					&cli.BoolFlag{
						Name:    "force",
						Aliases: []string{"f"},
						Usage:   "Skip confirmation",
					},
				},
				Action: archivePrune,
			},
			{
				Name:   "verify",
				Usage:  "Verify every archived snapshot",
				Action: archiveVerify,
			},
			{
				Name:   "stats",
				Usage:  "Show archive storage statistics",
				Action: archiveStats,
			},
		},
	}
}

// openArchive opens the archive selected by --dir or the configured
// archive.dir. The caller must Close it.
func openArchive(c *cli.Context) (*archive.Archive, error) {
	dir := c.String("dir")
	if dir == "" {
		dir = getSettings(c).Archive.Dir
	}
	if dir == "" {
		return nil, fmt.Errorf("archive directory required (--dir or archive.dir in config)")
	}

	cfg := archive.DefaultConfig(dir)
	cfg.Keep = getSettings(c).Archive.Keep
	return archive.Open(cfg)
}

func archiveList(c *cli.Context) error {
	ar, err := openArchive(c)
	if err != nil {
		return err
	}
	defer ar.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	entries, err := ar.List(ctx)
	if err != nil {
		return err
	}

	flags := ParseGlobalFlags(c)
	switch output.Format(flags.Output) {
	case output.FormatJSON, output.FormatYAML:
		formatter := output.NewFormatter(output.Format(flags.Output), flags.Wide)
		return formatter.Format(os.Stdout, entries)
	default:
		if len(entries) == 0 {
			fmt.Println("No archived snapshots.")
			return nil
		}

		table := &output.Table{
			Headers: []string{"ID", "CREATED", "MODE", "ENTITIES", "SIZE"},
		}
		if flags.Wide {
			table.Headers = append(table.Headers, "ENCRYPTED")
		}
		for _, e := range entries {
			row := []string{
				e.ID,
				e.CreatedAt.Format("2006-01-02 15:04:05"),
				e.Mode,
				strconv.Itoa(e.Entities),
				output.FormatBytes(e.Size),
			}
			if flags.Wide {
				row = append(row, strconv.FormatBool(e.Encrypted))
			}
			table.Rows = append(table.Rows, row)
		}
		if err := table.Render(os.Stdout); err != nil {
			return err
		}
		fmt.Printf("\nTotal: %d snapshots\n", len(entries))
		return nil
	}
}

func archiveShow(c *cli.Context) error {
	id := c.Args().First()
	if id == "" {
		return fmt.Errorf("snapshot ID required")
	}

	ar, err := openArchive(c)
	if err != nil {
		return err
	}
	defer ar.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	data, err := ar.Get(ctx, id)
	if err != nil {
		return err
	}
	doc, err := snapshot.ParseDocument(data)
	if err != nil {
		return err
	}

	flags := ParseGlobalFlags(c)
	switch output.Format(flags.Output) {
	case output.FormatJSON, output.FormatYAML:
		formatter := output.NewFormatter(output.Format(flags.Output), flags.Wide)
		return formatter.Format(os.Stdout, summarize(doc, "", int64(len(data))))
	default:
		printSummary(os.Stdout, summarize(doc, "", int64(len(data))))
		return nil
	}
}

func archivePut(c *cli.Context) error {
	path := c.Args().First()
	if path == "" {
		return fmt.Errorf("snapshot file required")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}

	ar, err := openArchive(c)
	if err != nil {
		return err
	}
	defer ar.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	entry, err := ar.Put(ctx, data)
	if err != nil {
		return err
	}

	fmt.Printf("Archived %s (%d entities, %s).\n",
		entry.ID, entry.Entities, output.FormatBytes(entry.Size))
	return nil
}

func archiveRestore(c *cli.Context) error {
	id := c.Args().Get(0)
	path := c.Args().Get(1)
	if id == "" || path == "" {
		return fmt.Errorf("snapshot ID and target file required")
	}

	if _, err := os.Stat(path); err == nil && !c.Bool("force") {
		fmt.Printf("File '%s' exists. Overwrite? [y/N]: ", path)
		var confirm string
		fmt.Scanln(&confirm)
		if confirm != "y" && confirm != "Y" {
			fmt.Println("Cancelled.")
			return nil
		}
	}

	ar, err := openArchive(c)
	if err != nil {
		return err
	}
	defer ar.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	data, err := ar.Get(ctx, id)
	if err != nil {
		return err
	}

	if err := writeFileAtomic(path, data); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}

	fmt.Printf("Restored %s to %s.\n", truncateID(id), path)
	return nil
}

// writeFileAtomic mirrors the snapshot write discipline: temp file in the
// target directory, sync, then rename over the target.
func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0750); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}

func archivePrune(c *cli.Context) error {
	keep := c.Int("keep")

	if !c.Bool("force") {
		fmt.Printf("This will delete all but the newest %d snapshots. Continue? [y/N]: ", keep)
		var confirm string
		fmt.Scanln(&confirm)
		if confirm != "y" && confirm != "Y" {
			fmt.Println("Cancelled.")
			return nil
		}
	}

	ar, err := openArchive(c)
	if err != nil {
		return err
	}
	defer ar.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	deleted, err := ar.Prune(ctx, keep)
	if err != nil {
		return err
	}

	if deleted == 0 {
		fmt.Println("Nothing to prune.")
		return nil
	}
	fmt.Printf("%d snapshots deleted.\n", deleted)
	return nil
}

func archiveVerify(c *cli.Context) error {
	ar, err := openArchive(c)
	if err != nil {
		return err
	}
	defer ar.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	entries, err := ar.List(ctx)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		fmt.Println("No archived snapshots.")
		return nil
	}

	bar := output.NewProgressBar(os.Stdout, "Verifying", len(entries))
	var bad []string
	for _, entry := range entries {
		if err := verifyArchived(ctx, ar, entry.ID); err != nil {
			bad = append(bad, fmt.Sprintf("%s: %v", entry.ID, err))
		}
		bar.Increment()
	}
	bar.Finish()

	if len(bad) > 0 {
		for _, b := range bad {
			PrintError("%s", b)
		}
		return fmt.Errorf("%d of %d snapshots failed verification", len(bad), len(entries))
	}

	fmt.Printf("✓ All %d snapshots verified.\n", len(entries))
	return nil
}

func verifyArchived(ctx context.Context, ar *archive.Archive, id string) error {
	data, err := ar.Get(ctx, id)
	if err != nil {
		return err
	}
	doc, err := snapshot.ParseDocument(data)
	if err != nil {
		return err
	}
	return checkManifest(doc)
}

func archiveStats(c *cli.Context) error {
	ar, err := openArchive(c)
	if err != nil {
		return err
	}
	defer ar.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	stats, err := ar.Stats(ctx)
	if err != nil {
		return err
	}

	flags := ParseGlobalFlags(c)
	switch output.Format(flags.Output) {
	case output.FormatJSON, output.FormatYAML:
		formatter := output.NewFormatter(output.Format(flags.Output), flags.Wide)
		return formatter.Format(os.Stdout, stats)
	default:
		fmt.Printf("Archive Statistics\n")
		fmt.Printf("==================\n\n")
		fmt.Printf("Snapshots:      %d\n", stats.Snapshots)
		fmt.Printf("LSM size:       %s\n", output.FormatBytes(int64(stats.LSMSize)))
		fmt.Printf("Value log size: %s\n", output.FormatBytes(int64(stats.ValueLogSize)))
		fmt.Printf("Total size:     %s\n", output.FormatBytes(int64(stats.TotalSize)))
		if stats.LastGCTime > 0 {
			fmt.Printf("Last GC:        %s\n", time.UnixMilli(stats.LastGCTime).Format("2006-01-02 15:04:05"))
		}
		return nil
	}
}
