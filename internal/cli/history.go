package cli

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/Nemelio/downsweep/internal/journal"
)

func init() {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent sweep runs",
		Run:   runHistory,
	}

	cmd.Flags().IntP("limit", "l", 20, "Max runs to show")
	cmd.Flags().Bool("actions", false, "Include per-entity actions")

	RootCmd.AddCommand(cmd)
}

func runHistory(cmd *cobra.Command, args []string) {
	limit, _ := cmd.Flags().GetInt("limit")
	withActions, _ := cmd.Flags().GetBool("actions")

	cfg, err := loadConfig()
	if err != nil {
		exitErr("config", err)
	}
	j, err := journal.Open(cfg.Journal)
	if err != nil {
		exitErr("open journal", err)
	}
	defer j.Close()

	runs, err := j.Recent(cmd.Context(), limit)
	if err != nil {
		exitErr("history", err)
	}

	if formatFlag == "json" {
		type runWithActions struct {
			journal.Run
			Actions []journal.Entry `json:"actions,omitempty"`
		}
		out := make([]runWithActions, 0, len(runs))
		for _, r := range runs {
			row := runWithActions{Run: r}
			if withActions {
				row.Actions, err = j.Actions(cmd.Context(), r.ID)
				if err != nil {
					exitErr("actions", err)
				}
			}
			out = append(out, row)
		}
		b, _ := json.MarshalIndent(out, "", "  ")
		fmt.Println(string(b))
		return
	}

	for _, r := range runs {
		mode := ""
		if r.DryRun {
			mode = " (dry-run)"
		}
		fmt.Printf("%s  %s  %s%s: %d scanned, %d retained, %d archived, %d trashed, %d skipped\n",
			r.ID, r.StartedAt.Local().Format(time.DateTime), r.Root, mode,
			r.Scanned, r.Retained, r.Archived, r.Trashed, r.Skipped)
		if !withActions {
			continue
		}
		actions, err := j.Actions(cmd.Context(), r.ID)
		if err != nil {
			exitErr("actions", err)
		}
		for _, a := range actions {
			if a.Detail != "" {
				fmt.Printf("    %-7s %s (%s)\n", a.Action, a.Identity, a.Detail)
			} else {
				fmt.Printf("    %-7s %s\n", a.Action, a.Identity)
			}
		}
	}
}
