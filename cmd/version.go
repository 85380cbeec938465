package cmd

import (
	"context"
	"fmt"

	"github.com/fayadabbasi3-MOR/ai-podcast-generator/internal/update"
	"github.com/spf13/cobra"
)

var flagCheckUpdate bool

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("aipodcast %s (commit: %s, built: %s)\n", version, commit, date)
		if flagCheckUpdate {
			if res := update.Check(context.Background(), version); res != nil {
				fmt.Printf("A newer version is available: %s\n", res.LatestVersion)
			} else {
				fmt.Println("You are up to date.")
			}
		}
	},
}

func init() {
	versionCmd.Flags().BoolVar(&flagCheckUpdate, "check", false, "check GitHub for a newer release")
}
