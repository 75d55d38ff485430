package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"adespota/internal/api/handlers/http/account"
	"adespota/internal/api/handlers/http/reporting"
	"adespota/internal/api/handlers/http/system"
	"adespota/internal/config"
	"adespota/internal/domain"
	"adespota/internal/middleware"
	"adespota/internal/service"
)

type Server struct {
	logger *slog.Logger
	router *chi.Mux
	cfg    config.Config
}

func NewServer(
	ctx context.Context,
	cfg *config.Config,
	logger *slog.Logger,
	svc *service.Service,
	obs middleware.HTTPObserver,
	gatherer prometheus.Gatherer,
	deps map[string]system.Pinger,
) *Server {
	accountHandler := account.NewHandler(logger, svc.AuthService, svc.VerificationService, svc.ProgressService)
	reportingHandler := reporting.NewHandler(logger, svc.WizardService, svc.ReportService)
	systemHandler := system.NewHandler(logger, deps)

	r := InitRouter(ctx, cfg, logger, svc.AuthService, obs, gatherer, accountHandler, reportingHandler, systemHandler)

	return &Server{
		logger: logger,
		router: r,
		cfg:    *cfg,
	}
}

func InitRouter(
	ctx context.Context,
	cfg *config.Config,
	logger *slog.Logger,
	auth middleware.Authenticator,
	obs middleware.HTTPObserver,
	gatherer prometheus.Gatherer,
	accountHandler *account.Handler,
	reportingHandler *reporting.Handler,
	systemHandler *system.Handler,
) *chi.Mux {
	r := chi.NewMux()

	r.Use(chimw.RequestID)
	r.Use(chimw.Recoverer)
	r.Use(chimw.Logger)
	r.Use(middleware.Metrics(obs))

	r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))

	r.Route("/api/v1", func(api chi.Router) {
		api.Use(middleware.Authenticate(auth, logger))

		// AUTH
		api.Route("/auth", func(ar chi.Router) {
			ar.Use(middleware.Limit(ctx, cfg.Http.RateLimitRPS, cfg.Http.RateLimitBurst, 10*time.Minute, logger))

			ar.Post("/signup", middleware.BindJSON[domain.SignUpRequest]()(accountHandler.SignUp))
			ar.Post("/signin", middleware.BindJSON[domain.SignInRequest]()(accountHandler.SignIn))
			ar.With(middleware.RequireSession).Post("/signout", accountHandler.SignOut)
		})

		// VERIFICATION
		api.Route("/verification", func(vr chi.Router) {
			vr.Use(middleware.RequireSession)

			vr.Get("/", accountHandler.VerificationStatus)
			vr.Post("/", accountHandler.VerificationBegin)
			vr.With(middleware.Limit(ctx, cfg.Http.RateLimitRPS, cfg.Http.RateLimitBurst, 10*time.Minute, logger)).
				Post("/code", middleware.BindJSON[domain.CodeRequest]()(accountHandler.VerificationCode))
			vr.Post("/resend", accountHandler.VerificationResend)
			vr.Post("/switch", accountHandler.VerificationSwitch)
		})

		// WIZARDS, session optional until submit
		api.Route("/wizards", func(wr chi.Router) {
			wr.Post("/", reportingHandler.WizardStart)

			wr.Route("/{id}", func(ir chi.Router) {
				ir.Get("/", reportingHandler.WizardGet)
				ir.Delete("/", reportingHandler.WizardDiscard)
				ir.Patch("/draft", middleware.BindJSON[domain.DraftPatch]()(reportingHandler.WizardUpdateDraft))
				ir.Post("/tags/{tag}", reportingHandler.WizardToggleTag)
				ir.Put("/image", middleware.BindJSON[domain.ImageRequest]()(reportingHandler.WizardSetImage))
				ir.Post("/location", middleware.BindJSON[domain.LocationRequest]()(reportingHandler.WizardLocation))
				ir.Post("/advance", reportingHandler.WizardAdvance)
				ir.Post("/back", reportingHandler.WizardBack)
				ir.Post("/submit", reportingHandler.WizardSubmit)
			})
		})

		// REPORTS
		api.Route("/reports", func(rr chi.Router) {
			rr.Get("/", reportingHandler.Dashboard)
			rr.Get("/{id}/share", reportingHandler.ShareLink)
		})

		// RANKS
		api.With(middleware.RequireSession).Get("/me/progress", accountHandler.MyProgress)
		api.Get("/ranks", accountHandler.Ranks)

		// SYSTEM
		api.Get("/health", systemHandler.SystemHealth)
	})

	return r
}

func (s *Server) Handler() http.Handler { return s.router }

func (s *Server) Run(ctx context.Context) error {
	port := s.cfg.Http.Port
	if !strings.HasPrefix(port, ":") {
		port = ":" + port
	}

	srv := &http.Server{
		Addr:         port,
		Handler:      s.router,
		ReadTimeout:  s.cfg.Http.ReadTimeout,
		WriteTimeout: s.cfg.Http.WriteTimeout,
		IdleTimeout:  30 * time.Second,
	}

	errChan := make(chan error, 1)

	go func() {
		s.logger.Info("Starting HTTP server",
			slog.String("addr", srv.Addr),
			slog.Duration("read_timeout", s.cfg.Http.ReadTimeout),
			slog.Duration("write_timeout", s.cfg.Http.WriteTimeout),
		)

		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- fmt.Errorf("ListenAndServe error: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		s.logger.Info("Shutting down HTTP server", slog.String("reason", ctx.Err().Error()))

		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.Http.ShutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			s.logger.Error("Server shutdown failed", slog.Any("error", err))
			return err
		}
		return nil

	case err := <-errChan:
		return err
	}
}
