package app

import (
	"context"
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/hasinichitrada/LIBSHARE/config"
	"github.com/hasinichitrada/LIBSHARE/internal/handler"
	"github.com/hasinichitrada/LIBSHARE/internal/repository"
	"github.com/hasinichitrada/LIBSHARE/internal/server"
	"github.com/hasinichitrada/LIBSHARE/internal/service/catalog"
	"github.com/hasinichitrada/LIBSHARE/internal/service/issuance"
	"github.com/hasinichitrada/LIBSHARE/internal/service/request"
	"github.com/hasinichitrada/LIBSHARE/pkg/kafka"
	"github.com/hasinichitrada/LIBSHARE/pkg/logger"
)

func Run(cfg *config.Config) error {
	log := logger.NewLogger(cfg.Log, "libshare")

	repo, err := repository.NewRepository(log, repository.WithBooks(repository.DefaultCatalog()))
	if err != nil {
		return fmt.Errorf("repo init %v", err)
	}

	catalogSvc := catalog.NewService(repo, log.Named("catalog"))
	requestSvc := request.NewService(repo, log.Named("request"))
	issuanceSvc := issuance.NewService(repo, cfg.Lending, log.Named("issuance"))

	statsLog := handler.StatsLog(handler.NewNopStatsLog())
	if cfg.Kafka.Enabled() {
		producer, err := kafka.NewAsyncProducer(cfg.Kafka)
		if err != nil {
			return fmt.Errorf("kafka producer %v", err)
		}
		defer producer.Close()
		statsLog = handler.NewStatsLog(producer, cfg.Kafka.Topic)
	}

	h := handler.New(catalogSvc, requestSvc, issuanceSvc, statsLog, log)

	srv := server.NewServer(cfg.Server, h.NewRouter())
	log.Info("http server start ON: ",
		zap.String("addr",
			net.JoinHostPort(cfg.Server.Host, cfg.Server.Port)))
	go func() {
		if err := srv.Run(); err != nil {
			log.Error("server run", zap.Error(err))
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM, syscall.SIGINT)
	termSig := <-sig

	log.Debug("Graceful shutdown", zap.Any("signal", termSig))

	closeCtx, cancel := context.WithTimeout(context.Background(), time.Second*5)
	defer cancel()

	if err = srv.Stop(closeCtx); err != nil {
		log.Error("srv.Stop", zap.Error(err))
	}
	log.Info("Graceful shutdown finished")
	return nil
}
