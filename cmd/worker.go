package main

import (
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/FelpTB/fornecedor-orchestrator/internal/worker"
)

var (
	workerQueue     string
	workerInstances int
)

var workerCmd = &cobra.Command{
	Use:   "worker",
	Short: "Run the discovery and/or profile stage workers",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		e, err := initEnv(ctx, "worker")
		if err != nil {
			return err
		}
		defer e.Close()

		if e.Caller == nil {
			return eris.New("no structured-output vendor configured")
		}

		workers, err := buildWorkers(e, workerQueue, workerInstances)
		if err != nil {
			return err
		}
		if len(workers) == 0 {
			return eris.New("no workers to run")
		}

		g, gctx := errgroup.WithContext(ctx)
		for _, w := range workers {
			w := w
			g.Go(func() error {
				return w.Run(gctx)
			})
		}

		zap.L().Info("workers started", zap.String("queue", workerQueue), zap.Int("instances", workerInstances))
		return g.Wait()
	},
}

// buildWorkers builds one Worker per (queue, instance) pair requested by
// queueFlag ("discovery", "profile", or "all"), each with a distinct
// WorkerID so concurrent claims on the same queue don't collide.
func buildWorkers(e *env, queueFlag string, instances int) ([]*worker.Worker, error) {
	if instances <= 0 {
		instances = 1
	}

	cfgFor := func(id string) worker.Config {
		return worker.Config{
			PollInterval: time.Duration(cfg.Worker.PollIntervalSecs) * time.Second,
			WorkerID:     id,
		}
	}

	var workers []*worker.Worker
	buildDiscovery := func() {
		h := worker.NewDiscoveryHandler(e.Store, e.Caller, zap.L())
		for i := 0; i < instances; i++ {
			id := "discovery-" + strconv.Itoa(i)
			workers = append(workers, worker.New(e.DiscoveryQueue, queueNameToModel["discovery"], h, cfgFor(id), zap.L()))
		}
	}
	buildProfile := func() {
		h := worker.NewProfileHandler(e.Store, e.Caller, zap.L())
		for i := 0; i < instances; i++ {
			id := "profile-" + strconv.Itoa(i)
			workers = append(workers, worker.New(e.ProfileQueue, queueNameToModel["profile"], h, cfgFor(id), zap.L()))
		}
	}

	switch queueFlag {
	case "discovery":
		buildDiscovery()
	case "profile":
		buildProfile()
	case "all", "":
		buildDiscovery()
		buildProfile()
	default:
		return nil, eris.Errorf("unknown queue %q, want discovery, profile, or all", queueFlag)
	}
	return workers, nil
}

func init() {
	workerCmd.Flags().StringVar(&workerQueue, "queue", "all", "which stage to drain: discovery, profile, or all")
	workerCmd.Flags().IntVar(&workerInstances, "instances", 1, "number of concurrent worker instances per queue")
	rootCmd.AddCommand(workerCmd)
}
