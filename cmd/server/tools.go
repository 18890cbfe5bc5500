package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/crystal-mush/rpkit/pkg/archive"
	"github.com/crystal-mush/rpkit/pkg/boltstore"
	"github.com/crystal-mush/rpkit/pkg/gamedb"
	"github.com/crystal-mush/rpkit/pkg/server"
	"github.com/crystal-mush/rpkit/pkg/statdb"
	"github.com/crystal-mush/rpkit/pkg/weather"
)

var statdefsCmd = &cobra.Command{
	Use:   "statdefs",
	Short: "Manage stat definitions",
}

var statdefsImportCmd = &cobra.Command{
	Use:   "import <file.yaml>",
	Short: "Import stat definitions from a YAML file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		conf, err := loadConf(cmd)
		if err != nil {
			return err
		}
		conf.StatDefsFile = args[0]
		reg, err := openRegistry(cmd.Context(), conf)
		if err != nil {
			return err
		}
		defer reg.Close()
		fmt.Fprintf(cmd.OutOrStdout(), "%d stat definitions in %s\n", reg.Len(), reg.Path())
		return nil
	},
}

var statdefsShowCmd = &cobra.Command{
	Use:   "show <category>/<type>/<name>",
	Short: "Print one stat definition",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		parts := strings.Split(args[0], "/")
		if len(parts) != 3 {
			return fmt.Errorf("stat must be <category>/<type>/<name>, got %q", args[0])
		}
		conf, err := loadConf(cmd)
		if err != nil {
			return err
		}
		reg, err := statdb.Open(conf.StatDefsDB, logger)
		if err != nil {
			return err
		}
		defer reg.Close()

		key := gamedb.StatKey{Category: parts[0], Type: parts[1], Name: parts[2]}
		def, err := reg.Lookup(cmd.Context(), key)
		if errors.Is(err, gamedb.ErrNotFound) {
			return fmt.Errorf("no definition for %s", key)
		}
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s default=%d perm=%v temp=%v\n",
			def.Key(), def.Default, def.PermValues, def.TempValues)
		return nil
	},
}

var weatherCmd = &cobra.Command{
	Use:   "weather",
	Short: "Fetch and print the current weather report",
	RunE: func(cmd *cobra.Command, _ []string) error {
		conf, err := loadConf(cmd)
		if err != nil {
			return err
		}
		wc, err := weather.NewClient(conf.Weather, logger, nil)
		if err != nil {
			return err
		}
		defer wc.Close()
		report, err := wc.Current(context.Background())
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), report.Format(wc.Location()))
		return nil
	},
}

var archiveDir string

var archiveCmd = &cobra.Command{
	Use:   "archive",
	Short: "Create, list and restore data archives (run while the server is stopped)",
}

var archiveCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Archive the game database, stat definitions and config",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		conf, err := loadConf(cmd)
		if err != nil {
			return err
		}
		ctx := cmd.Context()
		params := archive.Params{
			Dir:     archiveDir,
			Server:  server.VersionString(),
			MudName: conf.MudName,
		}

		switch conf.Store {
		case "bolt":
			store, err := boltstore.Open(conf.BoltPath, logger)
			if err != nil {
				return err
			}
			defer store.Close()
			if err := store.LoadAll(); err != nil {
				return err
			}
			params.Objects = len(store.DB().Objects)
			params.Sources = append(params.Sources, archive.Source{
				Name: "data/game.bolt", Kind: "bolt", Snapshot: store.Backup,
			})
		default:
			logger.Warn("object store is not file based; archiving stat definitions and config only",
				zap.String("store", conf.Store))
		}

		if _, err := os.Stat(conf.StatDefsDB); err == nil {
			reg, err := statdb.Open(conf.StatDefsDB, logger)
			if err != nil {
				return err
			}
			defer reg.Close()
			params.Sources = append(params.Sources, archive.Source{
				Name: "data/statdefs.db", Kind: "statdefs",
				Snapshot: func(dest string) error { return reg.Snapshot(ctx, dest) },
			})
		}
		if cfgFile != "" {
			params.Sources = append(params.Sources, archive.Source{
				Name: "conf/" + filepath.Base(cfgFile), Kind: "conf", Path: cfgFile,
			})
		}

		path, err := archive.Create(params)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "archive written to %s (%d objects)\n", path, params.Objects)
		return nil
	},
}

var archiveListCmd = &cobra.Command{
	Use:   "list",
	Short: "List archives, newest first",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		list, err := archive.List(archiveDir)
		if err != nil {
			return err
		}
		if len(list) == 0 {
			fmt.Fprintf(cmd.OutOrStdout(), "no archives in %s\n", archiveDir)
			return nil
		}
		for _, info := range list {
			fmt.Fprintf(cmd.OutOrStdout(), "%s  %s  %8d bytes  %d objects  %s\n",
				info.Timestamp, info.MudName, info.Size, info.Objects, info.Path)
		}
		return nil
	},
}

var archiveRestoreCmd = &cobra.Command{
	Use:   "restore <archive.tar.gz>",
	Short: "Verify an archive and restore its database files",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		conf, err := loadConf(cmd)
		if err != nil {
			return err
		}
		dests := map[string]string{"data/statdefs.db": conf.StatDefsDB}
		if conf.Store == "bolt" {
			dests["data/game.bolt"] = conf.BoltPath
		}
		n, err := archive.Restore(args[0], dests)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "restored %d files from %s\n", n, args[0])
		return nil
	},
}

func init() {
	statdefsCmd.AddCommand(statdefsImportCmd, statdefsShowCmd)
	archiveCmd.PersistentFlags().StringVar(&archiveDir, "dir", "archives", "archive directory")
	archiveCmd.AddCommand(archiveCreateCmd, archiveListCmd, archiveRestoreCmd)
}
