package main

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/amv-gms/grievance-service/internal/cache"
	"github.com/amv-gms/grievance-service/internal/events"
	"github.com/amv-gms/grievance-service/internal/persistence"
	"github.com/amv-gms/grievance-service/internal/report"
	"github.com/amv-gms/grievance-service/internal/repository"
	"github.com/amv-gms/grievance-service/internal/repository/memory"
	"github.com/amv-gms/grievance-service/internal/service"
)

var errNoDatabase = errors.New("POSTGRES_DSN is required")

// stores groups the repositories behind one backend.
type stores struct {
	employees  repository.EmployeeRepository
	dropdowns  repository.DropdownRepository
	staff      repository.StaffRepository
	grievances repository.GrievanceRepository
	history    repository.GrievanceHistoryRepository
	resets     repository.PasswordResetRepository

	pinger interface{ Ping(context.Context) error }
	close  func()
}

func connectPostgres(ctx context.Context, migrate bool) (*persistence.Postgres, error) {
	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		return nil, err
	}
	if pg.PoolHandle() == nil {
		return nil, errNoDatabase
	}
	if migrate {
		if err := persistence.RunMigrations(ctx, pg.PoolHandle(), cfg.Postgres.MigrationsDir, logger); err != nil {
			pg.Close()
			return nil, err
		}
	}
	return pg, nil
}

func openStores(ctx context.Context, inMemory bool) (*stores, error) {
	if inMemory {
		logger.Warn("using in-memory store; data is lost on exit")
		m := memory.NewStore()
		return &stores{
			employees:  m.Employees(),
			dropdowns:  m.Dropdowns(),
			staff:      m.Staff(),
			grievances: m.Grievances(),
			history:    m.History(),
			resets:     m.PasswordResets(),
			pinger:     m,
			close:      func() {},
		}, nil
	}

	pg, err := connectPostgres(ctx, cfg.Postgres.RunMigrations)
	if err != nil {
		return nil, err
	}
	pool := pg.PoolHandle()
	return &stores{
		employees:  repository.NewEmployeeRepository(pool),
		dropdowns:  repository.NewDropdownRepository(pool),
		staff:      repository.NewStaffRepository(pool),
		grievances: repository.NewGrievanceRepository(pool),
		history:    repository.NewGrievanceHistoryRepository(pool),
		resets:     repository.NewPasswordResetRepository(pool),
		pinger:     pg,
		close:      pg.Close,
	}, nil
}

type services struct {
	directory  *service.DirectoryService
	grievances *service.GrievanceService
	dashboard  *service.DashboardService
	staff      *service.StaffService
	auth       *service.AuthService
}

func newServices(s *stores, directoryCache *cache.DirectoryCache, dispatcher events.Dispatcher) (*services, error) {
	loc, err := cfg.App.Location()
	if err != nil {
		return nil, err
	}
	var font *report.Font
	if cfg.Report.FontPath != "" {
		if font, err = report.LoadFont(cfg.Report.FontPath); err != nil {
			return nil, err
		}
	} else {
		logger.Debug("REPORT_FONT_PATH not set; acknowledgements print Latin text only")
	}
	directory := service.NewDirectoryService(service.DirectoryDependencies{
		EmployeeRepo: s.employees,
		DropdownRepo: s.dropdowns,
		Cache:        directoryCache,
		Logger:       logger,
	})
	return &services{
		directory: directory,
		grievances: service.NewGrievanceService(service.GrievanceDependencies{
			GrievanceRepo: s.grievances,
			HistoryRepo:   s.history,
			Directory:     directory,
			Dispatcher:    dispatcher,
			Logger:        logger,
			ReportFont:    font,
			OfficeName:    cfg.App.OfficeName,
			Location:      loc,
			Clock:         time.Now,
		}),
		dashboard: service.NewDashboardService(service.DashboardDependencies{
			GrievanceRepo: s.grievances,
			HistoryRepo:   s.history,
			StaffRepo:     s.staff,
			Dispatcher:    dispatcher,
			Logger:        logger,
			Location:      loc,
			Clock:         time.Now,
		}),
		staff: service.NewStaffService(*cfg, s.staff),
		auth: service.NewAuthService(*cfg, service.AuthDependencies{
			StaffRepo:         s.staff,
			PasswordResetRepo: s.resets,
		}),
	}, nil
}

// newDirectoryCache connects Redis when caching is on. The returned Redis is
// nil when there is nothing to ping or close.
func newDirectoryCache() (*cache.DirectoryCache, *persistence.Redis) {
	if !cfg.Cache.Enabled {
		return cache.NewDirectoryCache(nil, cfg.Cache, logger), nil
	}
	r := persistence.NewRedis(cfg.Redis, logger)
	if r.Client == nil {
		return cache.NewDirectoryCache(nil, cfg.Cache, logger), nil
	}
	return cache.NewDirectoryCache(r.Client, cfg.Cache, logger), r
}

func logStartup(inMemory bool) {
	logger.Info("starting grievance service",
		zap.String("addr", cfg.App.Addr()),
		zap.String("env", cfg.App.Env),
		zap.String("timezone", cfg.App.Timezone),
		zap.Bool("in_memory", inMemory),
		zap.Bool("cache", cfg.Cache.Enabled))
}
