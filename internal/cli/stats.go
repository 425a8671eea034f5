package cli

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/Nemelio/downsweep/internal/snapshot"
)

// snapshotStats summarizes the current history snapshot.
type snapshotStats struct {
	Snapshot string `json:"snapshot"`
	Tracked  int    `json:"tracked"`
	Valuable int    `json:"valuable"`
	Stale    int    `json:"stale"`
	MaxScore int    `json:"max_score"`
}

func init() {
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Summarize the tracked history",
		Run:   runStats,
	}

	RootCmd.AddCommand(cmd)
}

func runStats(cmd *cobra.Command, args []string) {
	cfg, err := loadConfig()
	if err != nil {
		exitErr("config", err)
	}

	records, err := snapshot.New(cfg.Snapshot).Load()
	if err != nil {
		exitErr("load snapshot", err)
	}

	now := time.Now()
	st := snapshotStats{Snapshot: cfg.Snapshot, Tracked: len(records)}
	for _, rec := range records {
		if rec.IsValuable(cfg.Threshold) {
			st.Valuable++
		}
		if rec.IsStale(now, cfg.Window()) {
			st.Stale++
		}
		if rec.Importance > st.MaxScore {
			st.MaxScore = rec.Importance
		}
	}

	if formatFlag == "json" {
		b, _ := json.MarshalIndent(st, "", "  ")
		fmt.Println(string(b))
		return
	}

	fmt.Printf("snapshot: %s\n", st.Snapshot)
	fmt.Printf("tracked:  %d entries (%d valuable, %d stale, top score %d)\n",
		st.Tracked, st.Valuable, st.Stale, st.MaxScore)
}
