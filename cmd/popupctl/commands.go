package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"popupforge/internal/platform/postgres"
	"popupforge/internal/popup"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply pending database migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		if cfg.StoreDriver != "postgres" {
			return fmt.Errorf("migrate needs STORE_DRIVER=postgres, got %q", cfg.StoreDriver)
		}
		db, err := postgres.Open(cmd.Context(), cfg.Database, zapLogger)
		if err != nil {
			return err
		}
		defer db.Close()
		if err := postgres.Migrate(db, zapLogger); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "migrations applied")
		return nil
	},
}

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Push every stored message to the Redis cache",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := connect(cmd.Context())
		if err != nil {
			return err
		}
		if a.Cache == nil {
			return errors.New("REDIS_URL is not set; nothing to sync")
		}
		if cold, _ := cmd.Flags().GetBool("cold"); cold {
			if err := a.Cache.Invalidate(cmd.Context()); err != nil {
				return err
			}
		}
		if err := a.Service.SyncCache(cmd.Context()); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "cache synced")
		return nil
	},
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List messages, newest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := connect(cmd.Context())
		if err != nil {
			return err
		}
		list, err := a.Service.ListMessages(cmd.Context())
		if err != nil {
			return err
		}
		if status, _ := cmd.Flags().GetString("status"); status != "" {
			filtered := list[:0]
			for _, m := range list {
				if string(m.Status) == status {
					filtered = append(filtered, m)
				}
			}
			list = filtered
		}
		if jsonOutput {
			return printJSON(cmd.OutOrStdout(), list)
		}
		printMessageTable(cmd.OutOrStdout(), list)
		return nil
	},
}

var showCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show one message",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := connect(cmd.Context())
		if err != nil {
			return err
		}
		m, err := a.Service.GetMessage(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		if jsonOutput {
			return printJSON(cmd.OutOrStdout(), m)
		}
		printMessage(cmd.OutOrStdout(), m)
		return nil
	},
}

var createCmd = &cobra.Command{
	Use:   "create -f message.json",
	Short: "Create a draft message from a JSON file",
	RunE: func(cmd *cobra.Command, args []string) error {
		path, _ := cmd.Flags().GetString("file")
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		var m popup.Message
		if err := json.Unmarshal(data, &m); err != nil {
			return fmt.Errorf("parse %s: %w", path, err)
		}
		if actor, _ := cmd.Flags().GetString("actor"); actor != "" {
			m.CreatedBy = actor
		}
		a, err := connect(cmd.Context())
		if err != nil {
			return err
		}
		if err := a.Service.CreateMessage(cmd.Context(), &m); err != nil {
			return err
		}
		if jsonOutput {
			return printJSON(cmd.OutOrStdout(), &m)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "created %s (%s)\n", m.ID, m.Status)
		return nil
	},
}

var (
	publishCmd = transitionCmd("publish", "Activate a draft message", (*popup.Service).Publish)
	pauseCmd   = transitionCmd("pause", "Pause an active message", (*popup.Service).Pause)
	resumeCmd  = transitionCmd("resume", "Resume a paused message", (*popup.Service).Resume)
)

func transitionCmd(use, short string, fn func(*popup.Service, context.Context, string) (*popup.Message, error)) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <id>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := connect(cmd.Context())
			if err != nil {
				return err
			}
			m, err := fn(a.Service, cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s is now %s\n", m.ID, m.Status)
			return nil
		},
	}
}

var deleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a message and its display history",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := connect(cmd.Context())
		if err != nil {
			return err
		}
		if err := a.Service.DeleteMessage(cmd.Context(), args[0]); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "deleted %s\n", args[0])
		return nil
	},
}

var summaryCmd = &cobra.Command{
	Use:   "summary <id>",
	Short: "Show counters and rates for a message",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := connect(cmd.Context())
		if err != nil {
			return err
		}
		s, err := a.Service.GetSummary(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		if jsonOutput {
			return printJSON(cmd.OutOrStdout(), s)
		}
		printSummary(cmd.OutOrStdout(), s)
		return nil
	},
}

func init() {
	syncCmd.Flags().Bool("cold", false, "drop the warm marker before syncing")
	listCmd.Flags().StringP("status", "s", "", "filter by status (draft, active, paused, expired)")
	createCmd.Flags().StringP("file", "f", "", "path to the message JSON")
	createCmd.Flags().String("actor", os.Getenv("USER"), "recorded as created_by")
	createCmd.MarkFlagRequired("file")
}
