package main

import (
	"context"
	"errors"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	httptransport "github.com/amv-gms/grievance-service/internal/api/http"
	"github.com/amv-gms/grievance-service/internal/api/http/handlers"
	"github.com/amv-gms/grievance-service/internal/auth"
	"github.com/amv-gms/grievance-service/internal/events"
	"github.com/amv-gms/grievance-service/internal/observability"
	"github.com/amv-gms/grievance-service/internal/seed"
	"github.com/amv-gms/grievance-service/internal/service"
	"github.com/amv-gms/grievance-service/internal/web"
	"github.com/amv-gms/grievance-service/internal/worker"
)

const shutdownTimeout = 10 * time.Second

var (
	serveInMemory bool
	serveSeedFile string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP server",
	Long: `Serves the employee pages, the JSON API and the staff dashboard API.

With --in-memory the service runs without PostgreSQL; combine it with --seed
to load employees, dropdowns and staff accounts at startup.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().BoolVar(&serveInMemory, "in-memory", false, "keep all data in process memory instead of PostgreSQL")
	serveCmd.Flags().StringVar(&serveSeedFile, "seed", "", "YAML seed file applied before serving")
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	logStartup(serveInMemory)

	st, err := openStores(ctx, serveInMemory)
	if err != nil {
		return err
	}
	defer st.close()

	directoryCache, redis := newDirectoryCache()
	var redisPinger handlers.Pinger
	if redis != nil {
		defer redis.Close()
		redisPinger = redis
	}

	dispatcher := events.NewQueuedDispatcher(256, logger)
	notifications := service.NewNotificationService(dispatcher, logger, cfg.Notification)
	// Deliveries drain after the signal context is cancelled.
	notifier := worker.StartNotificationWorker(context.WithoutCancel(ctx), dispatcher, notifications, logger)
	defer notifier.Stop()

	svc, err := newServices(st, directoryCache, dispatcher)
	if err != nil {
		return err
	}

	if serveSeedFile != "" {
		file, err := seed.Load(serveSeedFile)
		if err != nil {
			return err
		}
		res, err := seed.Apply(ctx, file, svc.directory, svc.staff, logger)
		if err != nil {
			return err
		}
		logger.Info("seed applied",
			zap.Int64("employees", res.Employees),
			zap.Int64("dropdown_items", res.DropdownItems),
			zap.Int("staff_created", res.StaffCreated))
	}

	metrics := observability.NewMetrics()
	app := httptransport.NewApp(cfg.App.Name, logger)
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())
	web.NewHandler(cfg.App.OfficeName, svc.directory, svc.grievances, logger).Register(app)
	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, st.pinger, redisPinger, metrics),
		Grievances:     handlers.NewGrievancesHandler(svc.directory, svc.grievances),
		Staff:          handlers.NewStaffHandler(svc.auth, svc.staff),
		Dashboard:      handlers.NewDashboardHandler(svc.dashboard),
		AuthMiddleware: auth.NewAuthMiddleware(svc.auth.TokenManager(), st.staff),
	})

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return app.Listen(cfg.App.Addr())
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down", zap.NamedError("cause", context.Cause(gctx)))
		return app.ShutdownWithTimeout(shutdownTimeout)
	})
	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
