package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/mkrupp/jwtauth/internal/infra/config"
	"github.com/mkrupp/jwtauth/internal/infra/logging"
	http_ "github.com/mkrupp/jwtauth/internal/infra/transport/http"
	"github.com/mkrupp/jwtauth/internal/repo/user"
	"github.com/mkrupp/jwtauth/internal/svc/authsvc"
	"github.com/mkrupp/jwtauth/internal/svc/usersvc"
)

const (
	appName = "jwtauth"
	svcName = "authsvc"
)

type Config struct {
	config.EnvConfig

	Log   logging.LoggerConfig        `envPrefix:"LOG_"`
	Auth  authsvc.AuthConfig          `envPrefix:"AUTH_"`
	HTTP  authsvc.HTTPTransportConfig `envPrefix:"HTTP_"`
	User  user.RepositoryConfig       `envPrefix:"USER_"`
	Users usersvc.UsersConfig         `envPrefix:"USERS_"`
}

func main() {
	var (
		cfg Config

		configPrefix = strings.ToUpper(strings.Join([]string{appName, svcName}, "_"))
		loggerName   = strings.ToLower(strings.Join([]string{appName, svcName}, "."))
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := config.Parse(ctx, &cfg, configPrefix); err != nil {
		fmt.Fprintf(os.Stderr, "%s: config: %v\n", svcName, err)
		os.Exit(2)
	}

	logging.Configure(ctx, cfg.Log, loggerName)

	if err := run(ctx, cfg); err != nil {
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg Config) (err error) {
	log := logging.GetLogger("cmd.authsvc")

	defer func() {
		if err != nil {
			log.ErrorContext(ctx, "error", "err", err)

			return
		}

		log.InfoContext(ctx, "shutdown")
	}()

	factory, err := user.NewRepositoryFactory(cfg.User)
	if err != nil {
		return fmt.Errorf("user repository: %w", err)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	authSvc, err := authsvc.OpenAuthService(ctx, factory, cfg.Auth, registry)
	if err != nil {
		return fmt.Errorf("new auth service: %w", err)
	}
	defer authSvc.Close()

	userSvc := usersvc.NewUserService(authSvc.UserRepo, authSvc.Hasher)

	router := http_.NewRouter(
		authSvc.NewHTTPTransport(cfg.HTTP),
		usersvc.NewHTTPTransport(userSvc, cfg.Users),
		http_.RouteRegistrarFunc(func(mux *http.ServeMux) {
			mux.Handle("GET /metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{Registry: registry}))
		}),
	)

	if err := http_.ListenAndServe(ctx, router, cfg.HTTP.HTTPTransportConfig); err != nil {
		return fmt.Errorf("listen and serve: %w", err)
	}

	return nil
}
