package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"time"

	"github.com/aretw0/introspection"
	"github.com/spf13/cobra"

	"github.com/aretw0/daybook/internal/platform"
	"github.com/aretw0/daybook/pkg/adapters/fs"
	lifecycleadapter "github.com/aretw0/daybook/pkg/adapters/lifecycle"
	"github.com/aretw0/daybook/pkg/core"
)

var (
	pruneKeep       int
	importNoBackup  bool
	watchCollection []string
)

var dataCmd = &cobra.Command{
	Use:   "data",
	Short: "Inspect and manage the data file",
}

var dataPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print the absolute path of the data file",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withService(cmd, func(ctx context.Context, svc *core.Service) error {
			return emit(cmd, map[string]string{"path": svc.Location()}, func(w io.Writer) {
				fmt.Fprintln(w, svc.Location())
			})
		})
	},
}

var dataOpenCmd = &cobra.Command{
	Use:   "open",
	Short: "Open the data file with the default application",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withService(cmd, func(ctx context.Context, svc *core.Service) error {
			msg, err := platform.OpenFile(ctx, svc.Location())
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), msg)
			return nil
		})
	},
}

var dataExportCmd = &cobra.Command{
	Use:   "export [file]",
	Short: "Write all data to a .json, .yaml or .msgpack file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withService(cmd, func(ctx context.Context, svc *core.Service) error {
			repo, err := codecRepository(ctx, svc)
			if err != nil {
				return err
			}
			data, err := svc.Snapshot(ctx)
			if err != nil {
				return err
			}
			if err := repo.Export(data, args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Exported to %s\n", args[0])
			return nil
		})
	},
}

var dataImportCmd = &cobra.Command{
	Use:   "import [file]",
	Short: "Replace all data with the contents of a .json, .yaml or .msgpack file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withService(cmd, func(ctx context.Context, svc *core.Service) error {
			repo, err := codecRepository(ctx, svc)
			if err != nil {
				return err
			}
			data, err := repo.Import(args[0])
			if err != nil {
				return err
			}
			if fsRepo, ok := svc.Repository().(*fs.Repository); ok && !importNoBackup && !cfg.ReadOnly {
				path, err := fsRepo.Backup(time.Now())
				switch {
				case errors.Is(err, core.ErrNoData):
				case err != nil:
					return err
				default:
					fmt.Fprintf(cmd.OutOrStdout(), "Backed up previous data to %s\n", path)
				}
			}
			if err := svc.Replace(ctx, data); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Imported %s\n", args[0])
			return nil
		})
	},
}

var dataBackupCmd = &cobra.Command{
	Use:   "backup",
	Short: "Copy the data file into the backup directory",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withService(cmd, func(ctx context.Context, svc *core.Service) error {
			repo, err := fileRepository(svc)
			if err != nil {
				return err
			}
			path, err := repo.Backup(time.Now())
			if err != nil {
				return err
			}
			return emit(cmd, map[string]string{"backup": path}, func(w io.Writer) {
				fmt.Fprintln(w, path)
			})
		})
	},
}

var dataBackupsCmd = &cobra.Command{
	Use:   "backups",
	Short: "List backups, oldest first",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withService(cmd, func(ctx context.Context, svc *core.Service) error {
			repo, err := fileRepository(svc)
			if err != nil {
				return err
			}
			paths, err := repo.Backups()
			if err != nil {
				return err
			}
			if paths == nil {
				paths = []string{}
			}
			return emit(cmd, paths, func(w io.Writer) {
				if len(paths) == 0 {
					fmt.Fprintln(w, "No backups.")
				}
				for _, p := range paths {
					fmt.Fprintln(w, p)
				}
			})
		})
	},
}

var dataPruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Delete all but the newest backups",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		keep := cfg.BackupKeep
		if cmd.Flags().Changed("keep") {
			keep = pruneKeep
		}
		return withService(cmd, func(ctx context.Context, svc *core.Service) error {
			repo, err := fileRepository(svc)
			if err != nil {
				return err
			}
			removed, err := repo.PruneBackups(keep)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed %d backup(s), kept %d.\n", len(removed), keep)
			return nil
		})
	},
}

var dataWatchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Follow changes made to the data file by other processes",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
		defer stop()
		cmd.SetContext(ctx)
		return withService(cmd, func(ctx context.Context, svc *core.Service) error {
			events, err := svc.Watch(ctx)
			if err != nil {
				return err
			}
			src := lifecycleadapter.NewSource(events, lifecycleadapter.WithCollections(watchCollection...))
			if err := src.Start(ctx); err != nil {
				return err
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "Watching %s (Ctrl+C to stop)\n", svc.Location())
			for e := range src.Events() {
				fmt.Fprintf(cmd.OutOrStdout(), "%s  %s\n", time.Now().Format(time.TimeOnly), e)
			}
			return nil
		})
	},
}

var dataStateCmd = &cobra.Command{
	Use:   "state",
	Short: "Print the internal state of the service and its storage",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withService(cmd, func(ctx context.Context, svc *core.Service) error {
			report := map[string]any{
				svc.ComponentType(): svc.State(),
			}
			if c, ok := svc.Repository().(interface {
				introspection.Introspectable
				introspection.Component
			}); ok {
				report[c.ComponentType()] = c.State()
			}
			encoder := json.NewEncoder(cmd.OutOrStdout())
			encoder.SetIndent("", "  ")
			return encoder.Encode(report)
		})
	},
}

// fileRepository returns the fs adapter behind svc; backups need it.
func fileRepository(svc *core.Service) (*fs.Repository, error) {
	repo, ok := svc.Repository().(*fs.Repository)
	if !ok {
		return nil, fmt.Errorf("backups require the %s adapter", platform.AdapterFS)
	}
	return repo, nil
}

// codecRepository returns a repository able to export and import files,
// whatever adapter stores the data.
func codecRepository(ctx context.Context, svc *core.Service) (*fs.Repository, error) {
	if repo, ok := svc.Repository().(*fs.Repository); ok {
		return repo, nil
	}
	repo := fs.NewRepository(fs.Config{
		Path:       filepath.Dir(svc.Location()),
		ReadOnly:   true,
		SkipSchema: !cfg.SchemaValidation,
		Logger:     logger,
	})
	if err := repo.Initialize(ctx); err != nil {
		return nil, err
	}
	return repo, nil
}

func init() {
	rootCmd.AddCommand(dataCmd)
	dataCmd.AddCommand(dataPathCmd, dataOpenCmd, dataExportCmd, dataImportCmd,
		dataBackupCmd, dataBackupsCmd, dataPruneCmd, dataWatchCmd, dataStateCmd)

	dataPruneCmd.Flags().IntVarP(&pruneKeep, "keep", "k", 10, "Number of backups to keep")
	dataImportCmd.Flags().BoolVar(&importNoBackup, "no-backup", false, "Do not back up the current data first")
	dataWatchCmd.Flags().StringSliceVar(&watchCollection, "collection", nil, "Only report these collections")
}
