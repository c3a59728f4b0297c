package cmd

import (
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/boxquery/pkg/utils"
)

var (
	// Global flags
	verbose bool
	logger  utils.Logger
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "boxquery",
	Short: "Spatial queries against 2^d-tree snapshots",
	Long: `boxquery runs ball-vs-box spatial queries against pre-built quad/oct-tree
snapshots: peer lists, area queries (ball -> overlapping leaves), the
leaves-to-balls transpose, and space-invader distance tables.

Queries can run locally from snapshot files, or be queued into the task
table and processed by a worker.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Setup logger based on verbose flag
		logLevel := utils.LevelInfo
		if verbose {
			logLevel = utils.LevelDebug
		}
		logger = utils.NewDefaultLogger(logLevel, os.Stdout)
		utils.SetGlobalLogger(logger)
		return nil
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")

	// Set dynamic example using actual binary name
	binName := BinName()
	rootCmd.Example = `  # Build peer lists for a tree snapshot
  ` + binName + ` query -k peers -t ./tree.json -o ./peers.json

  # Area query over a ball set
  ` + binName + ` query -k area -t ./tree.json -b ./balls.json -o ./area.json

  # Queue a space-invader query and run the worker
  ` + binName + ` submit -k siq -t ./tree.json -b ./balls.json
  ` + binName + ` work -c ./configs/config.yaml`
}

// BinName returns the name of the running binary.
func BinName() string {
	return filepath.Base(os.Args[0])
}

// GetLogger returns the CLI logger, initializing a default one if needed.
func GetLogger() utils.Logger {
	if logger == nil {
		logger = utils.NewDefaultLogger(utils.LevelInfo, os.Stdout)
	}
	return logger
}
