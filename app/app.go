package app

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"proposal-management-api/internal/common"
	"proposal-management-api/internal/config"
	"proposal-management-api/internal/controller"
	"proposal-management-api/internal/effects"
	"proposal-management-api/internal/logging"
	"proposal-management-api/internal/reminder"
	"proposal-management-api/internal/repo"
	"proposal-management-api/internal/service"
	"proposal-management-api/pkg/http_server"
	"proposal-management-api/pkg/postgres"

	"github.com/golang-migrate/migrate/v4"
	pgmigrate "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/labstack/echo"
)

func runMigrations(postgresDB *postgres.Postgres, databaseName string) {
	driver, err := pgmigrate.WithInstance(postgresDB.Database, &pgmigrate.Config{DatabaseName: databaseName})
	if err != nil {
		log.Fatal(err)
	}

	migrations, err := migrate.NewWithDatabaseInstance("file://migrations", databaseName, driver)
	if err != nil {
		log.Fatal(err)
	}

	if err := migrations.Up(); err != nil {
		if err == migrate.ErrNoChange {
			log.Println("no change made by migration scripts")
		} else {
			log.Fatal(err)
		}
	}
}

func Run() {
	cfg := config.LoadConfig()
	logger := logging.NewDefault()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	log.Println("Connecting database...")
	postgresDB, err := postgres.NewDB(cfg.DatabaseDSN)
	if err != nil {
		log.Fatal("Error occurred while connecting to db: ", err)
	}
	defer postgresDB.Close()

	log.Println("Running migrations...")
	runMigrations(postgresDB, os.Getenv("POSTGRES_DATABASE"))

	repositories := repo.NewRepositories(postgresDB)
	dispatcher := effects.NewDispatcher(logger)
	services := service.NewServices(service.Deps{
		Repos:      repositories,
		Dispatcher: dispatcher,
		Notifier:   &effects.LogNotifier{Log: logger},
		Email:      &effects.LogEmailSender{Log: logger},
		Log:        logger,
		Validity:   cfg.ProposalValidity,
	})

	log.Println("Starting reminder scheduler...")
	scheduler := reminder.New(repositories.Event, repositories.Proposal, dispatcher,
		&effects.LogEmailSender{Log: logger}, logger, reminder.Options{
			DayAhead: reminder.Cadence{
				Marker: common.Reminder24h,
				Every:  cfg.DayAheadEvery,
				Offset: cfg.DayAheadOffset,
				Grace:  cfg.DayAheadGrace,
			},
			HourAhead: reminder.Cadence{
				Marker: common.Reminder1h,
				Every:  cfg.HourAheadEvery,
				Offset: cfg.HourAheadOffset,
				Grace:  cfg.HourAheadGrace,
			},
			ExpireEvery: cfg.ExpirySweepEvery,
		})
	go scheduler.Run(ctx)

	handler := echo.New()

	log.Println("Setup routes...")
	controller.SetupRoutesHandlers(handler, services)

	log.Println("Starting server...")
	httpServer := http_server.New(handler, cfg.ServerAddress, cfg.ShutdownTimeout)

	log.Println("Ready to process requests...")

	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt, syscall.SIGTERM)

	select {
	case s := <-interrupt:
		log.Println("Got signal: " + s.String())
	case err = <-httpServer.Notify():
		log.Fatal("Notify error: ", err)
	}

	log.Println("Shutting down...")
	cancel()

	waitCtx, waitCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer waitCancel()
	if err := dispatcher.Wait(waitCtx); err != nil {
		log.Println("Some side effects did not finish: ", err)
	}

	if err := httpServer.Shutdown(); err != nil {
		log.Fatal("Shutdown error: ", err)
	}

	log.Println("Successful shutdown")
}
