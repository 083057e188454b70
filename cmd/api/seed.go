package main

import (
	"errors"

	pg "sjmc-records/internal/adapters/storage/postgres"
	"sjmc-records/internal/domain/accounts"
	"sjmc-records/internal/domain/files"
	"sjmc-records/internal/seed"

	"github.com/spf13/cobra"
)

func newSeedCmd(opts *rootOptions) *cobra.Command {
	var path string

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Load files and users from a YAML file into Postgres",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := opts.load()
			if err != nil {
				return err
			}
			if cfg.Database.DSN == "" {
				return errors.New("database.dsn is required (SJMC_DATABASE_DSN or DB_DSN)")
			}

			data, err := seed.LoadFile(path)
			if err != nil {
				return err
			}

			db, err := openDB(cfg, log)
			if err != nil {
				return err
			}
			defer db.Close()

			// sin notifier: no hay cache ni feed que avisar desde la CLI
			filesSvc := files.NewService(pg.NewFilesRepo(db, cfg.Database.QueryTimeout), nil)
			accountsSvc := accounts.NewService(pg.NewUsersRepo(db), nil)

			res, err := seed.Apply(cmd.Context(), data, filesSvc, accountsSvc)
			if err != nil {
				return err
			}

			fields := map[string]any{"users": res.Users}
			for c, n := range res.Files {
				fields[string(c)] = n
			}
			log.Info("seed applied", fields)
			return nil
		},
	}
	cmd.Flags().StringVarP(&path, "file", "f", "seed.yaml", "YAML seed file")
	return cmd
}
