package cmd

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/fayadabbasi3-MOR/ai-podcast-generator/internal/config"
	"github.com/spf13/cobra"
)

var sourcesCmd = &cobra.Command{
	Use:   "sources",
	Short: "List configured sources",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(flagConfig)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}

		header := lipgloss.NewStyle().Bold(true)
		fmt.Printf("%s\n", header.Render(fmt.Sprintf("%-28s %-10s %-10s %s", "NAME", "PROVIDER", "METHOD", "ENABLED")))
		for _, s := range cfg.Sources {
			enabled := "yes"
			if !s.Enabled {
				enabled = styleDim.Render("no")
			}
			fmt.Printf("%-28s %-10s %-10s %s\n", s.Name, s.Provider, s.Method, enabled)
		}
		return nil
	},
}
