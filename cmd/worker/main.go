package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"clinical-scribe-be/internal/bootstrap"
	"clinical-scribe-be/internal/config"
	"clinical-scribe-be/internal/tracer"
)

func main() {
	shutdownTracer := tracer.InitTracer("clinical-scribe-worker")
	defer shutdownTracer(context.Background())

	cfg := config.Load()

	container := bootstrap.NewWorkerContainer(cfg)
	defer container.Publisher.Close()
	defer container.Subscriber.Close()

	if err := container.Subscriber.Start(container.PipelineService); err != nil {
		log.Fatalf("[FATAL] Failed to start chunk consumer: %v", err)
	}

	log.Println("Pipeline worker is running")

	// Block until interrupted; deliveries arrive on the consumer's own
	// goroutines.
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	log.Println("Pipeline worker shutting down")
}
