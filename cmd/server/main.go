package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"starwheel/internal/config"
	"starwheel/internal/handler"
	"starwheel/internal/infrastructure/cache"
	"starwheel/internal/infrastructure/database"
	"starwheel/internal/infrastructure/lock"
	"starwheel/internal/infrastructure/mq"
	"starwheel/internal/job"
	"starwheel/internal/prize"
	"starwheel/internal/service"
	"starwheel/pkg/idgen"
)

func main() {
	cfg := config.LoadConfig("config/config.yaml")

	idgen.Init(1)

	db := database.InitMySQL(&cfg.MySQL)

	redisClient := cache.InitRedis(&cfg.Redis)

	mq.InitKafka(&cfg.Kafka)
	defer mq.CloseKafka()

	// the configured prize table; falls back to the built-in default if
	// the config is broken
	selector := prize.NewSelector(cfg.Business.PrizeTable)
	spinService := service.NewSpinService(db, cfg, selector)

	// lock backend: in-memory for a single instance, Redis when running
	// several. Either way the referral_edge uniqueness constraint stays
	// the source of truth.
	var locks lock.Service
	var memoryLocks *lock.MemoryService
	if cfg.Business.UseRedisLock {
		locks = lock.NewRedisService(redisClient)
	} else {
		memoryLocks = lock.NewMemoryService()
		locks = memoryLocks
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	outboxSender := job.NewOutboxSender(db, cfg)
	go outboxSender.Start(ctx)

	auditJob := job.NewLedgerAuditJob(db)
	go auditJob.Start(ctx)

	if memoryLocks != nil {
		sweeper := job.NewLockSweeper(memoryLocks)
		go sweeper.Start(ctx)
	}

	router := handler.SetupRouter(db, cfg, locks, spinService)

	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: router,
	}

	go func() {
		log.Printf("server listening on port %d", cfg.Server.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("shutting down...")

	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("shutdown error: %v", err)
	}

	log.Println("server stopped")
}
