package main

import (
	"context"
	"log"

	"clinical-scribe-be/internal/bootstrap"
	"clinical-scribe-be/internal/config"
	"clinical-scribe-be/internal/server"
	"clinical-scribe-be/internal/tracer"
	"clinical-scribe-be/pkg/database"
)

func main() {
	shutdownTracer := tracer.InitTracer("clinical-scribe-rest")
	defer shutdownTracer(context.Background())

	cfg := config.Load()

	gormDB, err := database.NewGormDBFromDSN(cfg.Database.Connection)
	if err != nil {
		log.Panicf("Unable to connect to GORM DB: %v", err)
	}

	container := bootstrap.NewContainer(gormDB, cfg)
	defer container.QueuePublisher.Close()

	// The archive consumer runs inside the REST process: finalize events
	// originate from the stop endpoint here.
	go func() {
		log.Println("Background: Starting Archive Service...")
		if err := container.ArchiveService.Consume(context.Background()); err != nil {
			log.Printf("Background Archive Error: %v", err)
		}
	}()

	srv := server.New(cfg, container)

	log.Fatal(srv.Run())
}
