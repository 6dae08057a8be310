package server

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"dawaam/internal/domain/account"
	"dawaam/internal/domain/audit"
	"dawaam/internal/domain/leads"
	"dawaam/internal/domain/notifications"
	"dawaam/internal/domain/timesheet"
	"dawaam/internal/platform/config"
	cryptoutil "dawaam/internal/platform/crypto"
	"dawaam/internal/platform/db"
	"dawaam/internal/platform/email"
	"dawaam/internal/platform/idempotency"
	"dawaam/internal/platform/jobs"
	"dawaam/internal/platform/metrics"
	adminhandler "dawaam/internal/transport/http/handlers/admin"
	authhandler "dawaam/internal/transport/http/handlers/auth"
	leadshandler "dawaam/internal/transport/http/handlers/leads"
	timesheethandler "dawaam/internal/transport/http/handlers/timesheet"
	"dawaam/internal/transport/http/middleware"
)

type App struct {
	Config     config.Config
	DB         *pgxpool.Pool
	Router     http.Handler
	Jobs       *jobs.Service
	Accounts   *account.Service
	Timesheets *timesheet.Service
	Notify     *notifications.Service
}

// New wires every service and the router. Integration tests construct an
// App directly and drive the Router with httptest.
func New(cfg config.Config, pool *pgxpool.Pool, mailer notifications.Mailer) (*App, error) {
	crypto, err := cryptoutil.New(cfg.DataEncryptionKey)
	if err != nil {
		return nil, fmt.Errorf("encryption setup: %w", err)
	}

	collector := metrics.New()
	notify := notifications.New(notifications.NewStore(pool), mailer, cfg.EmailFrom)
	accounts := account.NewService(account.NewStore(pool), crypto)
	timesheets := timesheet.NewService(timesheet.NewStore(pool), crypto)
	leadStore := leads.NewStore(pool)
	auditSvc := audit.New(pool)
	idemStore := idempotency.NewStore(pool)
	jobsSvc := jobs.New(pool)

	reminder := pendingReminder(timesheets, accounts.Store, notify)
	if cfg.ReminderSchedule != "" {
		if err := jobsSvc.Schedule(cfg.ReminderSchedule, jobs.JobPendingReminder, reminder); err != nil {
			return nil, err
		}
	}

	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.SecurityHeaders)
	router.Use(middleware.Logger(collector))
	router.Use(middleware.Recoverer)
	router.Use(middleware.BodyLimit(cfg.MaxBodyBytes))
	router.Use(middleware.RateLimit(cfg.RateLimitPerMinute))
	router.Use(middleware.Auth(cfg.JWTSecret))

	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	router.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := pool.Ping(ctx); err != nil {
			http.Error(w, "db not ready", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
	})

	router.Route("/api/v1", func(r chi.Router) {
		authhandler.NewHandler(accounts, cfg.JWTSecret, cfg.SessionTTL).RegisterRoutes(r)
		leadshandler.NewHandler(leadStore, notify, cfg.OfficeInboxEmail).RegisterRoutes(r)
		timesheethandler.NewHandler(timesheets, accounts.Store, notify, auditSvc, collector, idemStore, cfg.OfficeInboxEmail).RegisterRoutes(r)
		adminhandler.NewHandler(accounts, leadStore, timesheets, auditSvc, collector, jobsSvc, reminder, notify).RegisterRoutes(r)
	})

	return &App{
		Config:     cfg,
		DB:         pool,
		Router:     router,
		Jobs:       jobsSvc,
		Accounts:   accounts,
		Timesheets: timesheets,
		Notify:     notify,
	}, nil
}

// Start launches the background worker and cron scheduler.
func (a *App) Start(ctx context.Context) {
	a.Jobs.Start(ctx)
}

func Run() {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("config invalid: %v", err)
	}

	ctx := context.Background()
	pool, err := db.Connect(ctx, cfg)
	if err != nil {
		log.Fatalf("db connect failed: %v", err)
	}
	defer pool.Close()

	if cfg.RunMigrations {
		if err := db.Migrate(ctx, pool, "migrations"); err != nil {
			log.Fatalf("migrations failed: %v", err)
		}
	}
	if cfg.RunSeed {
		if err := db.Seed(ctx, pool, cfg); err != nil {
			log.Fatalf("seed failed: %v", err)
		}
	}

	app, err := New(cfg, pool, email.New(cfg))
	if err != nil {
		log.Fatalf("server setup failed: %v", err)
	}
	app.Start(ctx)

	log.Printf("dawaam server listening on %s", cfg.Addr)
	if err := http.ListenAndServe(cfg.Addr, app.Router); err != nil {
		log.Fatalf("server failed: %v", err)
	}
}

// pendingReminder emails every approver a digest of timesheets waiting on
// a decision. Runs on the cron schedule and on demand from the admin API.
func pendingReminder(timesheets *timesheet.Service, accounts *account.Store, notify *notifications.Service) jobs.Runner {
	return func(ctx context.Context) (any, error) {
		pending, err := timesheets.ListPending(ctx)
		if err != nil {
			return nil, err
		}
		if len(pending) == 0 {
			return map[string]any{"pending": 0, "notified": 0}, nil
		}

		approvers, err := accounts.ApproverEmails(ctx)
		if err != nil {
			return nil, err
		}

		body := fmt.Sprintf("%d timesheet(s) are waiting for approval:\n", len(pending))
		for _, sheet := range pending {
			body += fmt.Sprintf("- %s %s, %s (submitted %s)\n",
				sheet.FirstName, sheet.LastName, sheet.PeriodText, sheet.CreatedAt.Format("2 Jan 2006"))
		}
		for _, addr := range approvers {
			notify.Notify(ctx, addr, notifications.TypePendingReminder, "Timesheets pending approval", body)
		}
		return map[string]any{"pending": len(pending), "notified": len(approvers)}, nil
	}
}
