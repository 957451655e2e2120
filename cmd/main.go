package main

import (
	"time"

	"github.com/joho/godotenv"

	"github.com/tolkbridge/dispatch/config"
	"github.com/tolkbridge/dispatch/internal/api/v1/handlers"
	"github.com/tolkbridge/dispatch/internal/app"
	"github.com/tolkbridge/dispatch/internal/constants"
	"github.com/tolkbridge/dispatch/internal/db"
	"github.com/tolkbridge/dispatch/internal/db/repos"
	"github.com/tolkbridge/dispatch/internal/logger"
	"github.com/tolkbridge/dispatch/internal/matching"
	"github.com/tolkbridge/dispatch/internal/notify"
	"github.com/tolkbridge/dispatch/internal/services"
)

func main() {
	// .env is optional; real deployments configure through the environment
	_ = godotenv.Load()

	logger.InitializeAndConfigure()

	gormDB, err := db.New(db.Options{
		Host:     config.GetEnv(constants.EnvDBHost, db.DefaultHost),
		User:     config.GetEnv(constants.EnvDBUser, db.DefaultUser),
		Password: config.GetEnv(constants.EnvDBPassword, db.DefaultPassword),
		DBName:   config.GetEnv(constants.EnvDBName, db.DefaultDBName),
		Port:     config.GetEnvInt(constants.EnvDBPort, db.DefaultPort),
	})
	if err != nil {
		logger.Fatalf("Failed to connect to database: %v", err)
	}

	jobRepo := repos.NewJobRepository(gormDB)
	userRepo := repos.NewUserRepository(gormDB)

	dispatcher := notify.NewDispatcher(
		notify.NewHTTPSender(config.GetEnv(constants.EnvPushGatewayURL, "http://localhost:9100/push")),
		notify.NewHTTPSender(config.GetEnv(constants.EnvSMSGatewayURL, "http://localhost:9100/sms")),
		time.Duration(config.GetEnvInt(constants.EnvNotifyTimeoutSeconds, 10))*time.Second,
	)

	matcher := matching.NewLanguagePolicy(userRepo)
	bookingSvc := services.NewBookingService(jobRepo, userRepo, matcher, dispatcher)
	auditSvc := services.NewAuditService(jobRepo)
	userSvc := services.NewUserService(userRepo)

	handler := handlers.NewBookingHandler(bookingSvc, auditSvc)
	userHandler := handlers.NewUserHandler(userSvc)

	fiberApp := app.NewApp(handler, userHandler)

	addr := ":" + config.GetEnv(constants.EnvPort, "8080")
	logger.Infof("booking API listening on %s", addr)
	logger.Fatal(fiberApp.Listen(addr))
}
