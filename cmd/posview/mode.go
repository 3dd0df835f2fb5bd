package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hazyhaar/posview/viewmode"
)

var modeCmd = &cobra.Command{
	Use:   "mode",
	Short: "Read or write the stored view mode without a browser",
}

var modeGetCmd = &cobra.Command{
	Use:   "get",
	Short: "Print the stored mode",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, _, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		store := openPrefs(cmd.Context(), cfg, newLogger(cfg.LogLevel))
		defer store.Close()
		fmt.Fprintln(cmd.OutOrStdout(), store.Get(cmd.Context()))
		return nil
	},
}

var modeSetCmd = &cobra.Command{
	Use:       "set <grid|list>",
	Short:     "Store a mode; a running daemon picks it up on the next activation",
	Args:      cobra.ExactArgs(1),
	ValidArgs: []string{string(viewmode.Grid), string(viewmode.List)},
	RunE: func(cmd *cobra.Command, args []string) error {
		m, err := viewmode.Parse(args[0])
		if err != nil {
			return err
		}
		cfg, _, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		store := openPrefs(cmd.Context(), cfg, newLogger(cfg.LogLevel))
		defer store.Close()
		tier := store.Set(cmd.Context(), m)
		fmt.Fprintf(cmd.OutOrStdout(), "%s (%s)\n", m, tier)
		return nil
	},
}

func init() {
	modeCmd.AddCommand(modeGetCmd, modeSetCmd)
	rootCmd.AddCommand(modeCmd)
}
