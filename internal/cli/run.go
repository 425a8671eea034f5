package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Nemelio/downsweep/internal/fsops"
	"github.com/Nemelio/downsweep/internal/journal"
	"github.com/Nemelio/downsweep/internal/snapshot"
	"github.com/Nemelio/downsweep/internal/sweep"
	"github.com/Nemelio/downsweep/internal/triage"
)

func init() {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Sweep the configured directory once",
		Long: `Scan the root directory, update access history, and act on stale
entries: archive the valuable ones, trash the rest. One-shot; exits
when the sweep is done.`,
		Run: runSweep,
	}

	cmd.Flags().Bool("dry-run", false, "Classify and report, but move nothing and keep the snapshot unchanged")

	RootCmd.AddCommand(cmd)
}

func runSweep(cmd *cobra.Command, args []string) {
	dryRun, _ := cmd.Flags().GetBool("dry-run")

	cfg, err := loadConfig()
	if err != nil {
		exitErr("config", err)
	}
	if err := cfg.Validate(); err != nil {
		exitErr("config", err)
	}

	opts := sweep.Options{
		Root:        cfg.Root,
		ArchiveRoot: cfg.Archive,
		Policy:      triage.Policy{Window: cfg.Window(), Threshold: cfg.Threshold},
		DryRun:      dryRun,
		FS:          fsops.OS{TrashDir: cfg.Trash},
		Store:       snapshot.New(cfg.Snapshot),
	}

	if j, err := journal.Open(cfg.Journal); err != nil {
		fmt.Fprintf(os.Stderr, "warning: journal unavailable: %v\n", err)
	} else {
		opts.Journal = j
		defer j.Close()
	}

	report, err := sweep.Run(cmd.Context(), opts)
	if err != nil {
		exitErr("sweep", err)
	}
	if report.JournalError != "" {
		fmt.Fprintf(os.Stderr, "warning: journal write failed: %s\n", report.JournalError)
	}

	if formatFlag == "json" {
		b, _ := json.MarshalIndent(report, "", "  ")
		fmt.Println(string(b))
		return
	}

	prefix := ""
	if report.DryRun {
		prefix = "[dry-run] "
	}
	for _, a := range report.Actions {
		switch a.Action {
		case "archive":
			fmt.Printf("%sarchived %s -> %s\n", prefix, a.Identity, a.Detail)
		case "trash":
			fmt.Printf("%strashed %s\n", prefix, a.Identity)
		case "skip":
			fmt.Fprintf(os.Stderr, "%sskipped %s: %s\n", prefix, a.Identity, a.Detail)
		}
	}
	fmt.Printf("%sswept %s: %d scanned, %d retained, %d archived, %d trashed, %d skipped\n",
		prefix, report.Root, report.Scanned, report.Retained, report.Archived, report.Trashed, report.Skipped)
}
