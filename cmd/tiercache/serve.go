package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"github.com/IvanBrykalov/tiercache/internal/config"
	"github.com/IvanBrykalov/tiercache/internal/logging"
	"github.com/IvanBrykalov/tiercache/internal/server"
)

func runServe(cfg *config.Config, logger *logrus.Logger, configPath string) error {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	st, err := buildStack(cfg, logger, reg)
	if err != nil {
		return err
	}
	defer st.Close()

	app, err := server.NewApp(server.Options{
		Logger:  logger,
		Cache:   st.cache,
		Metrics: promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
	})
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// SIGUSR1 drops the memory tier, e.g. when the host is short on memory.
	cleared := st.mem.ClearOnSignal(ctx, syscall.SIGUSR1)

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := app.ShutdownWithContext(shutdownCtx); err != nil {
			logger.WithField("action", "shutdown").Warn(err.Error())
		}
	}()

	fields := logging.BaseFields("listen", configPath)
	fields["addr"] = cfg.ListenAddr
	fields["dir"] = st.disk.Dir()
	logger.WithFields(fields).Info("serving cache")

	err = app.Listen(cfg.ListenAddr, fiber.ListenConfig{DisableStartupMessage: true})
	stop()
	<-cleared
	return err
}
