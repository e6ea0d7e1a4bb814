package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/user/souentd/internal/state"
)

func init() {
	rootCmd.AddCommand(canonCmd)
	canonCmd.AddCommand(canonShowCmd, canonInfoCmd, canonInitCmd)
}

var canonCmd = &cobra.Command{
	Use:   "canon",
	Short: "Inspect locked canon memory",
}

var canonShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the full canon memory as JSON",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := loadConfig()
		store := state.NewCanonStore(cfg.DataDir)

		canon, err := store.Read(cmd.Context())
		if err != nil {
			return fmt.Errorf("read canon: %w", err)
		}
		out, err := json.MarshalIndent(canon, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(os.Stdout, string(out))
		return nil
	},
}

var canonInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize canon memory with the built-in defaults",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := loadConfig()
		if err := os.MkdirAll(cfg.DataDir, 0755); err != nil {
			return fmt.Errorf("create data dir: %w", err)
		}

		canonPath := filepath.Join(cfg.DataDir, "canon.json")
		if _, err := os.Stat(canonPath); err == nil {
			store := state.NewCanonStore(cfg.DataDir)
			canon, err := store.Read(cmd.Context())
			if err != nil {
				return fmt.Errorf("read canon: %w", err)
			}
			fmt.Fprintf(os.Stdout, "Canon memory already initialized (version %s).\n", canon.Version)
			return nil
		}

		// The first read bootstraps the file from defaults.
		store := state.NewCanonStore(cfg.DataDir)
		canon, err := store.Read(cmd.Context())
		if err != nil {
			return fmt.Errorf("initialize canon: %w", err)
		}
		fmt.Fprintf(os.Stdout, "Canon memory initialized: %s, version %s.\n", canon.Model.Label(), canon.Version)
		return nil
	},
}

var canonInfoCmd = &cobra.Command{
	Use:   "info",
	Short: "Show canon status",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := loadConfig()
		store := state.NewCanonStore(cfg.DataDir)

		canon, err := store.Read(cmd.Context())
		if err != nil {
			return fmt.Errorf("read canon: %w", err)
		}

		fmt.Fprintf(os.Stdout, "Model:        %s\n", canon.Model.Label())
		fmt.Fprintf(os.Stdout, "Version:      %s\n", canon.Version)
		fmt.Fprintf(os.Stdout, "Locked:       %t\n", canon.Locked)
		if canon.LastUpdated != nil {
			fmt.Fprintf(os.Stdout, "Last updated: %s\n", canon.LastUpdated.Format("2006-01-02 15:04:05"))
		} else {
			fmt.Fprintln(os.Stdout, "Last updated: never")
		}
		return nil
	},
}
