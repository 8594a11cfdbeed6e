package main

import (
	"os"
	"os/signal"
	"syscall"

	"reconcile-engine/internal/config"
	"reconcile-engine/internal/db"
	"reconcile-engine/internal/logging"
	"reconcile-engine/internal/processor"
	"reconcile-engine/internal/worker"
)

func main() {
	log := logging.GetGlobalLogger().WithComponent("worker_main")
	log.Info("worker starting")

	cfg := config.Load()

	database, err := db.Connect(cfg)
	if err != nil {
		log.WithError(err).Error("failed to connect to database")
		os.Exit(1)
	}
	defer database.Close()

	w := worker.NewWorker(database, cfg)

	w.ProcessJobFunc = func(job *worker.Job) error {
		var workflowName string
		if err := database.Get(&workflowName, `SELECT workflow FROM reconciliation_batches WHERE id = $1`, job.BatchID); err != nil {
			workflowName = "generic"
		}
		return processor.ProcessJob(job, database, w, workflowName)
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go w.Start()

	<-sigChan
	log.Info("shutting down worker")
}
