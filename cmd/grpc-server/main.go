package main

import (
	"context"
	"net"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	log "github.com/sirupsen/logrus"
	"google.golang.org/grpc"

	"torrentfront/internal/grpcserver"
	"torrentfront/internal/metrics"
	"torrentfront/internal/server"
	"torrentfront/pkg/utils"
)

func main() {
	utils.ConfigureLogging(utils.LoadLogConfig())
	metrics.Register(prometheus.DefaultRegisterer)

	dir, err := server.NewDirectory(utils.LoadUpstreamConfig())
	if err != nil {
		log.WithError(err).Fatal("failed to build directory")
	}

	addr := utils.LoadServerConfig().GRPCAddr
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		log.WithError(err).Fatal("grpc listen failed")
	}

	grpcServer := grpc.NewServer(grpc.UnaryInterceptor(grpcserver.LoggingInterceptor))
	grpcserver.RegisterDirectoryServer(grpcServer, grpcserver.NewServer(dir))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	go func() {
		<-ctx.Done()
		log.Info("shutdown signal received")
		grpcServer.GracefulStop()
	}()

	log.WithField("addr", addr).Info("gRPC server listening")
	if err := grpcServer.Serve(listener); err != nil {
		log.WithError(err).Fatal("grpc server stopped")
	}
}
