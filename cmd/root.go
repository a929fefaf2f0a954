package main

import (
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/marathon-cli/internal/config"
)

var (
	cfg     *config.Config
	cfgFile string
)

var rootCmd = &cobra.Command{
	Use:   "marathon-cli",
	Short: "Korean marathon event tracker",
	Long: `Scrapes marathon listings from roadrun.co.kr and runninglife.co.kr,
cross-validates them, tracks changes against a snapshot, writes a news
script and syncs new or changed events to a Notion database.

Configuration is read in this order, later sources winning:
  defaults
  config.yaml in the working directory, or the file given by --config
  .env in the working directory (never overrides variables already set)
  MARATHON_* environment variables, e.g. MARATHON_STORE_DRIVER=sqlite

NOTION_API_KEY, NOTION_DATABASE_ID, ANTHROPIC_API_KEY, OPENAI_API_KEY,
JINA_API_KEY and DATABASE_URL are honored without the prefix.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		c, err := config.LoadFile(cfgFile)
		if err != nil {
			return eris.Wrap(err, "load config")
		}
		cfg = c

		if err := config.InitLogger(cfg.Log); err != nil {
			return eris.Wrap(err, "init logger")
		}
		zap.L().Debug("config loaded", zap.String("file", cfgFile), zap.String("store", cfg.Store.Driver))
		return nil
	},
	PersistentPostRun: func(_ *cobra.Command, _ []string) {
		_ = zap.L().Sync()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default ./config.yaml)")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
