package main // Entry point package

import (
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"

	"github.com/plantops/machinetrack/internal/auth"
	"github.com/plantops/machinetrack/internal/config"
	"github.com/plantops/machinetrack/internal/database"
	"github.com/plantops/machinetrack/internal/handler"
	"github.com/plantops/machinetrack/internal/middleware"
	"github.com/plantops/machinetrack/internal/queue"
	"github.com/plantops/machinetrack/internal/repository"
	"github.com/plantops/machinetrack/internal/router"
	"github.com/plantops/machinetrack/internal/service"
)

func main() {
	_ = godotenv.Load() // .env is optional; real deployments set the environment directly
	cfg := config.Load()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("open database: %v", err)
	}
	defer db.Close()

	// Redis holds the token denylist; without it revoked tokens would
	// resolve again, so startup fails hard.
	rdb, err := config.NewRedisClient()
	if err != nil {
		log.Fatalf("connect redis: %v", err)
	}
	defer rdb.Close()

	users := repository.NewUserRepo(db)
	roles := repository.NewRoleRepo(db)
	lines := repository.NewLineRepo(db)
	machines := repository.NewMachineRepo(db)
	repairs := repository.NewRepairRepo(db)
	auditLogs := repository.NewAuditRepo(db)

	accessTTL := time.Duration(cfg.AccessTTLMin) * time.Minute
	session := auth.NewSession(
		auth.NewCodec(cfg.JWTSecret),
		auth.NewDenylist(rdb),
		users,
		accessTTL,
		accessTTL*time.Duration(cfg.RefreshTTLMult),
	)

	brokerURL := os.Getenv("RABBITMQ_URL")
	recorder := service.NewAuditRecorder(auditLogs, brokerURL)

	// Background consumer draining audit events into logs/audit.log.
	go func() {
		if err := queue.StartAuditConsumer(brokerURL); err != nil {
			log.Printf("audit consumer stopped: %v", err)
		}
	}()

	e := echo.New()
	e.Use(middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb))
	cache := middleware.NewRedisCache(config.LoadCacheConfig(), rdb)

	router.Register(e, router.Handlers{
		Auth:     handler.NewAuthHandler(session),
		Admin:    handler.NewAdminHandler(cfg, users, roles),
		Lines:    handler.NewLineHandler(lines, recorder),
		Machines: handler.NewMachineHandler(machines, lines, recorder),
		Repairs:  handler.NewRepairHandler(repairs, machines, recorder),
		Audit:    handler.NewAuditHandler(auditLogs),
		Status:   handler.NewStatusHandler(db, rdb),
	}, session, cache)

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)

	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
