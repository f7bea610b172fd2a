package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/carroceria-sur/taller/internal/migrate"
)

var (
	migrateIn    string
	migrateOut   string
	migrateSheet string
)

var migrateCmd = &cobra.Command{
	Use:   "migrate-addresses",
	Short: "Resolve official province and locality ids for legacy client rows",
	Long:  "Reads an XLSX export with free-text province and locality columns, looks each row up in Georef and writes a copy with the resolved ids and a status column.",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.Validate("migrate"); err != nil {
			return err
		}
		client, err := newGeorefClient(cfg.Georef, nil)
		if err != nil {
			return err
		}

		sheet := migrateSheet
		if sheet == "" {
			sheet = cfg.Migrate.SheetName
		}

		r := migrate.NewResolver(client, migrate.Options{
			Concurrency:       cfg.Migrate.Concurrency,
			RequestsPerSecond: cfg.Migrate.RequestsPerSecond,
			ProvinceColumn:    cfg.Migrate.ProvinceColumn,
			LocalityColumn:    cfg.Migrate.LocalityColumn,
		})
		summary, err := r.Run(cmd.Context(), migrateIn, migrateOut, sheet)
		if err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "run %s: %d rows, %d ok, %d sin_provincia, %d sin_localidad, %d sin_id, %d vacio, %d error\n",
			summary.RunID, summary.Total,
			summary.Counts[migrate.StatusOK],
			summary.Counts[migrate.StatusNoProvince],
			summary.Counts[migrate.StatusNoLocality],
			summary.Counts[migrate.StatusNoID],
			summary.Counts[migrate.StatusEmpty],
			summary.Counts[migrate.StatusError],
		)
		return nil
	},
}

func init() {
	migrateCmd.Flags().StringVar(&migrateIn, "in", "", "input XLSX file")
	migrateCmd.Flags().StringVar(&migrateOut, "out", "", "output XLSX file")
	migrateCmd.Flags().StringVar(&migrateSheet, "sheet", "", "sheet name (default from config, else first sheet)")
	_ = migrateCmd.MarkFlagRequired("in")
	_ = migrateCmd.MarkFlagRequired("out")
	rootCmd.AddCommand(migrateCmd)
}
