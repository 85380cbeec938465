package cmd

import (
	"fmt"

	"github.com/fayadabbasi3-MOR/ai-podcast-generator/internal/config"
	"github.com/fayadabbasi3-MOR/ai-podcast-generator/internal/snapshot"
	"github.com/spf13/cobra"
)

var snapshotCmd = &cobra.Command{
	Use:   "snapshot",
	Short: "Inspect or reset the seen-item snapshots",
}

var snapshotStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show per-source snapshot counts and last success times",
	RunE: func(cmd *cobra.Command, args []string) error {
		dbPath := config.SnapshotPath()
		store, err := snapshot.Open(dbPath)
		if err != nil {
			return fmt.Errorf("opening snapshot store: %w", err)
		}
		defer store.Close()

		stats, err := store.Stats()
		if err != nil {
			return fmt.Errorf("reading stats: %w", err)
		}

		fmt.Printf("Store: %s\n", dbPath)
		if len(stats) == 0 {
			fmt.Println("No snapshots yet.")
			return nil
		}
		for _, s := range stats {
			last := "never"
			if !s.LastSuccess.IsZero() {
				last = s.LastSuccess.Format("2006-01-02 15:04")
			}
			fmt.Printf("%-28s %5d seen, last success %s\n", s.SourceID, s.SeenCount, last)
		}
		return nil
	},
}

var snapshotResetCmd = &cobra.Command{
	Use:   "reset <source>",
	Short: "Forget a source's snapshot so its items look new again",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := snapshot.Open(config.SnapshotPath())
		if err != nil {
			return fmt.Errorf("opening snapshot store: %w", err)
		}
		defer store.Close()

		if err := store.Reset(args[0]); err != nil {
			return fmt.Errorf("resetting %s: %w", args[0], err)
		}
		fmt.Printf("Snapshot for %s cleared.\n", args[0])
		return nil
	},
}

func init() {
	snapshotCmd.AddCommand(snapshotStatsCmd)
	snapshotCmd.AddCommand(snapshotResetCmd)
}
