package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/user/souentd/internal/types"
)

func init() {
	rootCmd.AddCommand(sessionCmd)
	sessionCmd.AddCommand(sessionListCmd, sessionClearCmd)
}

var sessionCmd = &cobra.Command{
	Use:   "session",
	Short: "Manage file-backed sessions",
}

var sessionListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all sessions",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := loadConfig()
		indexPath := filepath.Join(cfg.DataDir, "sessions", "sessions.json")

		data, err := os.ReadFile(indexPath)
		if os.IsNotExist(err) {
			fmt.Println("No sessions found.")
			return nil
		}
		if err != nil {
			return fmt.Errorf("read session index: %w", err)
		}

		var entries []struct {
			SessionID types.SessionID `json:"session_id"`
			CreatedAt time.Time       `json:"created_at"`
			UpdatedAt time.Time       `json:"updated_at"`
		}
		if err := json.Unmarshal(data, &entries); err != nil {
			return fmt.Errorf("parse session index: %w", err)
		}
		if len(entries) == 0 {
			fmt.Println("No sessions found.")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tCREATED\tLAST ACTIVITY")
		for _, e := range entries {
			fmt.Fprintf(w, "%s\t%s\t%s\n",
				e.SessionID,
				e.CreatedAt.Format("2006-01-02 15:04:05"),
				e.UpdatedAt.Format("2006-01-02 15:04:05"),
			)
		}
		return w.Flush()
	},
}

var sessionClearCmd = &cobra.Command{
	Use:   "clear <id|all>",
	Short: "Clear a session or all sessions",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := loadConfig()
		sessionsDir := filepath.Join(cfg.DataDir, "sessions")

		if args[0] == "all" {
			if err := os.RemoveAll(sessionsDir); err != nil {
				return fmt.Errorf("remove sessions directory: %w", err)
			}
			fmt.Println("All sessions cleared.")
			return nil
		}

		if !types.ValidSessionID(args[0]) {
			return fmt.Errorf("invalid session ID: %s", args[0])
		}

		sessionDir := filepath.Join(sessionsDir, args[0])
		if _, err := os.Stat(sessionDir); os.IsNotExist(err) {
			return fmt.Errorf("session not found: %s", args[0])
		}
		if err := os.RemoveAll(sessionDir); err != nil {
			return fmt.Errorf("remove session directory: %w", err)
		}

		// Drop the entry from the index so list stays accurate.
		indexPath := filepath.Join(sessionsDir, "sessions.json")
		if data, err := os.ReadFile(indexPath); err == nil {
			var entries []map[string]any
			if json.Unmarshal(data, &entries) == nil {
				kept := entries[:0]
				for _, e := range entries {
					if sid, _ := e["session_id"].(string); !strings.EqualFold(sid, args[0]) {
						kept = append(kept, e)
					}
				}
				if out, err := json.MarshalIndent(kept, "", "  "); err == nil {
					os.WriteFile(indexPath, out, 0644)
				}
			}
		}

		fmt.Fprintf(os.Stdout, "Session %s cleared.\n", args[0])
		return nil
	},
}
