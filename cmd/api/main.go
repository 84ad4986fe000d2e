package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/bakeshop/order-confirm/internal/config"
	"github.com/bakeshop/order-confirm/internal/httpx"
	kafkax "github.com/bakeshop/order-confirm/internal/kafka"
	"github.com/bakeshop/order-confirm/internal/keepalive"
	"github.com/bakeshop/order-confirm/internal/orders"
	"github.com/bakeshop/order-confirm/internal/postgres"
	"github.com/bakeshop/order-confirm/internal/redisx"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// DB
	pool, err := postgres.Connect(ctx, cfg.PostgresDSN)
	if err != nil {
		log.Fatalf("db connect: %v", err)
	}
	defer pool.Close()
	if err := postgres.EnsureSchema(ctx, pool); err != nil {
		log.Fatalf("db schema: %v", err)
	}
	store := &postgres.DocStore{Pool: pool, MaxAttempts: cfg.StoreMaxAttempts}

	// Redis
	rdb := redisx.New(cfg.RedisAddr)
	defer rdb.Close()

	// Kafka producers: confirmed & rejected topics
	pOK := kafkax.NewProducer(cfg.KafkaBrokers, orders.TopicOrderConfirmed, 1024)
	pOK.Start(ctx)
	pRJ := kafkax.NewProducer(cfg.KafkaBrokers, orders.TopicOrderRejected, 1024)
	pRJ.Start(ctx)

	// Engine & handler
	engine := &orders.Engine{Store: store}
	router := httpx.NewRouter()
	ch := &httpx.ConfirmHandler{
		Engine:         engine,
		Store:          store,
		Producer:       pOK,
		RejectProducer: pRJ,
		Redis:          rdb,
		Service:        cfg.ServiceName,
	}
	ch.Register(router)

	// keep-alive self-ping for free-tier hosting
	pinger := &keepalive.Pinger{
		URL:      cfg.KeepAliveURL,
		Interval: cfg.KeepAliveInterval,
		Delay:    cfg.KeepAliveDelay,
	}
	pinger.Start(ctx)

	srv := &http.Server{Addr: cfg.HTTPAddr, Handler: router}

	go func() {
		log.Printf("HTTP listening at %s", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %v", err)
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	log.Println("shutting down...")

	ctx2, cancel2 := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel2()
	_ = srv.Shutdown(ctx2)
	pOK.Close()
	pRJ.Close()
	cancel()
	pOK.WaitClosed()
	pRJ.WaitClosed()
}
