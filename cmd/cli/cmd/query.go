package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/boxquery/internal/engine"
	"github.com/boxquery/pkg/boxtree"
	"github.com/boxquery/pkg/model"
	"github.com/boxquery/pkg/parallel"
	"github.com/boxquery/pkg/query"
	"github.com/boxquery/pkg/telemetry"
	"github.com/boxquery/pkg/writer"
)

var (
	// Query command flags
	queryKind  string
	treeFile   string
	ballsFile  string
	outputFile string
	maxWorkers int
	verifyOut  bool
)

// queryCmd represents the query command
var queryCmd = &cobra.Command{
	Use:   "query",
	Short: "Run a spatial query from local snapshot files",
	Long: `Run one spatial query locally: load a tree snapshot (and a ball set,
for ball queries), execute the query, and write the result as JSON.

Query kinds:
  peers   per-box peer lists
  area    per-ball overlapping-leaf lists
  lbl     per-leaf ball lists (transpose of area)
  siq     per-leaf max center-to-center distance table`,
	RunE: runQuery,
}

func init() {
	rootCmd.AddCommand(queryCmd)

	queryCmd.Flags().StringVarP(&queryKind, "kind", "k", "area", "Query kind: peers, area, lbl, siq")
	queryCmd.Flags().StringVarP(&treeFile, "tree", "t", "", "Tree snapshot file (required)")
	queryCmd.Flags().StringVarP(&ballsFile, "balls", "b", "", "Ball set file (required for ball queries)")
	queryCmd.Flags().StringVarP(&outputFile, "out", "o", "", "Output file (default: stdout)")
	queryCmd.Flags().IntVarP(&maxWorkers, "workers", "w", 0, "Worker count (0 = derive from CPU count)")
	queryCmd.Flags().BoolVar(&verifyOut, "verify", false, "Re-check the result against the tree before writing")
	_ = queryCmd.MarkFlagRequired("tree")
}

func runQuery(cmd *cobra.Command, args []string) error {
	log := GetLogger()
	ctx := context.Background()

	shutdown, err := telemetry.Init(ctx)
	if err != nil {
		log.Warn("Failed to initialize telemetry: %v", err)
	} else {
		defer shutdown(ctx)
	}

	kind, ok := model.ParseQueryKind(queryKind)
	if !ok {
		return fmt.Errorf("unknown query kind: %s", queryKind)
	}

	tree, err := boxtree.LoadFile(treeFile)
	if err != nil {
		return err
	}
	log.Info("Loaded tree: %d boxes, %d levels, %d-d", tree.NBoxes(), tree.NLevels, tree.Dimensions)

	var balls *query.BallSet
	if ballsFile != "" {
		balls, err = query.LoadBallSetFile(ballsFile)
		if err != nil {
			return err
		}
		log.Info("Loaded ball set: %d balls", balls.NBalls())
	}

	poolCfg := parallel.DefaultPoolConfig()
	if maxWorkers > 0 {
		poolCfg = poolCfg.WithWorkers(maxWorkers)
	}

	eng := engine.New(poolCfg, log, Version)
	eng.Verify = verifyOut

	result, err := eng.Run(ctx, kind, tree, balls)
	if err != nil {
		return err
	}

	jw := writer.NewPrettyJSONWriter[*model.Result]()
	if outputFile == "" {
		return jw.Write(result, os.Stdout)
	}
	if err := jw.WriteToFile(result, outputFile); err != nil {
		return err
	}
	log.Info("Result written to %s", outputFile)
	return nil
}
