package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/boxquery/internal/service"
	"github.com/boxquery/pkg/config"
	"github.com/boxquery/pkg/telemetry"
)

var (
	// Work command flags
	configPath string
)

// workCmd represents the work command
var workCmd = &cobra.Command{
	Use:   "work",
	Short: "Run the queued-task worker",
	Long: `Run the worker loop: poll the task table for pending query tasks,
download their tree and ball snapshots from storage, execute the query,
and upload the result. Stops on SIGINT/SIGTERM.`,
	RunE: runWork,
}

func init() {
	rootCmd.AddCommand(workCmd)

	workCmd.Flags().StringVarP(&configPath, "config", "c", "", "Config file path")
}

func runWork(cmd *cobra.Command, args []string) error {
	log := GetLogger()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	shutdown, err := telemetry.Init(ctx)
	if err != nil {
		log.Warn("Failed to initialize telemetry: %v", err)
	} else {
		defer shutdown(ctx)
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	svc, err := service.New(cfg, log)
	if err != nil {
		return err
	}
	defer svc.Close()

	// Handle graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigChan
		log.Info("Received %v, shutting down...", sig)
		cancel()
	}()

	return svc.Run(ctx)
}
