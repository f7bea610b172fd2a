package main

import (
	"encoding/json"
	"io"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/carroceria-sur/taller/pkg/georef"
)

var (
	georefName      string
	georefMax       int
	georefProvince  string
	georefLocality  string
	georefPreloaded int
)

var georefCmd = &cobra.Command{
	Use:   "georef",
	Short: "Query the Georef API from the command line",
	Long:  "Runs lookups through the same client the HTTP API uses (cache, rate limiter, retries, fallback) and prints JSON.",
}

var georefProvincesCmd = &cobra.Command{
	Use:   "provinces",
	Short: "List provinces",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := cliClient()
		if err != nil {
			return err
		}
		got, err := client.Provinces(cmd.Context(), georefName, georefMax)
		if err != nil {
			return eris.Wrap(err, "georef provinces")
		}
		return printJSON(cmd.OutOrStdout(), got)
	},
}

var georefLocalitiesCmd = &cobra.Command{
	Use:   "localities <province-id>",
	Short: "List localities of a province",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := cliClient()
		if err != nil {
			return err
		}
		got, err := client.Localities(cmd.Context(), args[0], georefName, georefMax)
		if err != nil {
			return eris.Wrap(err, "georef localities")
		}
		return printJSON(cmd.OutOrStdout(), got)
	},
}

var georefAllLocalitiesCmd = &cobra.Command{
	Use:   "all-localities <province-id>",
	Short: "List every locality of a province",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := cliClient()
		if err != nil {
			return err
		}
		got, err := client.AllLocalities(cmd.Context(), args[0])
		if err != nil {
			return eris.Wrap(err, "georef all-localities")
		}
		return printJSON(cmd.OutOrStdout(), got)
	},
}

var georefSearchCmd = &cobra.Command{
	Use:   "search <text>",
	Short: "Search localities by free text",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := cliClient()
		if err != nil {
			return err
		}
		got, err := client.SearchLocalities(cmd.Context(), args[0], georefProvince, georefMax)
		if err != nil {
			return eris.Wrap(err, "georef search")
		}
		return printJSON(cmd.OutOrStdout(), got)
	},
}

var georefNormalizeCmd = &cobra.Command{
	Use:   "normalize <address>",
	Short: "Normalize a street address",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := cliClient()
		if err != nil {
			return err
		}
		got, err := client.NormalizeAddress(cmd.Context(), georef.AddressQuery{
			Address:    args[0],
			ProvinceID: georefProvince,
			LocalityID: georefLocality,
			Max:        georefMax,
		})
		if err != nil {
			return eris.Wrap(err, "georef normalize")
		}
		return printJSON(cmd.OutOrStdout(), got)
	},
}

var georefPreloadCmd = &cobra.Command{
	Use:   "preload",
	Short: "Warm the province cache and report the result",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := cliClient()
		if err != nil {
			return err
		}
		max := georefPreloaded
		if max == 0 {
			max = cfg.Georef.PreloadMax
		}
		return georef.Preload(cmd.Context(), client, max)
	},
}

func cliClient() (georef.Client, error) {
	if err := cfg.Validate("georef"); err != nil {
		return nil, err
	}
	return newGeorefClient(cfg.Georef, nil)
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return eris.Wrap(err, "georef: encode output")
	}
	return nil
}

func init() {
	for _, c := range []*cobra.Command{georefProvincesCmd, georefLocalitiesCmd} {
		c.Flags().StringVar(&georefName, "name", "", "filter by name")
	}
	for _, c := range []*cobra.Command{georefProvincesCmd, georefLocalitiesCmd, georefSearchCmd, georefNormalizeCmd} {
		c.Flags().IntVar(&georefMax, "max", 0, "maximum results (default from config)")
	}
	for _, c := range []*cobra.Command{georefSearchCmd, georefNormalizeCmd} {
		c.Flags().StringVar(&georefProvince, "province", "", "restrict to a province id")
	}
	georefNormalizeCmd.Flags().StringVar(&georefLocality, "locality", "", "restrict to a locality id")
	georefPreloadCmd.Flags().IntVar(&georefPreloaded, "max", 0, "provinces to preload (default from config)")

	georefCmd.AddCommand(
		georefProvincesCmd,
		georefLocalitiesCmd,
		georefAllLocalitiesCmd,
		georefSearchCmd,
		georefNormalizeCmd,
		georefPreloadCmd,
	)
	rootCmd.AddCommand(georefCmd)
}
