// Package cli implements the downsweep CLI commands.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Nemelio/downsweep/internal/config"
)

var (
	cfgFile    string
	formatFlag string
	vp         = viper.New()
)

// RootCmd is the top-level command.
var RootCmd = &cobra.Command{
	Use:   "downsweep",
	Short: "Keep a downloads directory tidy",
	Long: `downsweep scans a downloads directory, tracks how often each entry is
accessed across runs, and clears out the stale ones: entries accessed
often enough are archived into a dated folder, the rest go to the OS
trash. Meant to run from cron or a systemd timer.`,
}

func init() {
	def := config.Default()
	pf := RootCmd.PersistentFlags()
	pf.StringVar(&cfgFile, "config", "", "Config file (default: ~/.downsweep/config.yaml)")
	pf.StringVarP(&formatFlag, "format", "f", "text", "Output format: json or text")
	pf.String("root", "", "Directory to sweep")
	pf.String("snapshot", def.Snapshot, "History snapshot CSV path")
	pf.String("archive", "", "Archive destination root")
	pf.String("trash", "", "Trash directory (default: OS trash)")
	pf.String("journal", def.Journal, "Run journal database path")
	pf.Int("retention-days", def.RetentionDays, "Days without access before an entry is stale")
	pf.Int("threshold", def.Threshold, "Importance score that protects an entry from deletion")

	vp.BindPFlag("root", pf.Lookup("root"))
	vp.BindPFlag("snapshot", pf.Lookup("snapshot"))
	vp.BindPFlag("archive", pf.Lookup("archive"))
	vp.BindPFlag("trash", pf.Lookup("trash"))
	vp.BindPFlag("journal", pf.Lookup("journal"))
	vp.BindPFlag("retention_days", pf.Lookup("retention-days"))
	vp.BindPFlag("threshold", pf.Lookup("threshold"))
}

func loadConfig() (config.Config, error) {
	return config.Load(vp, cfgFile)
}

func exitErr(msg string, err error) {
	fmt.Fprintf(os.Stderr, "error: %s: %v\n", msg, err)
	os.Exit(1)
}
