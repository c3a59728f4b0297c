package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/boxquery/internal/service"
	"github.com/boxquery/pkg/config"
	"github.com/boxquery/pkg/model"
)

var (
	// Submit command flags
	submitKind      string
	submitTreeFile  string
	submitBallsFile string
	submitConfig    string
)

// submitCmd represents the submit command
var submitCmd = &cobra.Command{
	Use:   "submit",
	Short: "Queue a query task for the worker",
	Long: `Upload local tree and ball snapshots into storage and queue a query
task over them. A running worker picks the task up and uploads the result.`,
	RunE: runSubmit,
}

func init() {
	rootCmd.AddCommand(submitCmd)

	submitCmd.Flags().StringVarP(&submitKind, "kind", "k", "area", "Query kind: peers, area, lbl, siq")
	submitCmd.Flags().StringVarP(&submitTreeFile, "tree", "t", "", "Tree snapshot file (required)")
	submitCmd.Flags().StringVarP(&submitBallsFile, "balls", "b", "", "Ball set file")
	submitCmd.Flags().StringVarP(&submitConfig, "config", "c", "", "Config file path")
	_ = submitCmd.MarkFlagRequired("tree")
}

func runSubmit(cmd *cobra.Command, args []string) error {
	log := GetLogger()
	ctx := context.Background()

	kind, ok := model.ParseQueryKind(submitKind)
	if !ok {
		return fmt.Errorf("unknown query kind: %s", submitKind)
	}
	if kind != model.QueryKindPeers && submitBallsFile == "" {
		return fmt.Errorf("%s queries require a ball set (-b)", kind)
	}

	cfg, err := config.Load(submitConfig)
	if err != nil {
		return err
	}

	svc, err := service.New(cfg, log)
	if err != nil {
		return err
	}
	defer svc.Close()

	tid, err := svc.Submit(ctx, kind, submitTreeFile, submitBallsFile)
	if err != nil {
		return err
	}

	log.Info("Task queued: %s", tid)
	fmt.Println(tid)
	return nil
}
