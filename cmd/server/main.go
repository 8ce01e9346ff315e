package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"sort"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/sandeepkv93/session-lifecycle-service/internal/app"
	"github.com/sandeepkv93/session-lifecycle-service/internal/config"
	"github.com/sandeepkv93/session-lifecycle-service/internal/credentials"
	"github.com/sandeepkv93/session-lifecycle-service/internal/domain"
	"github.com/sandeepkv93/session-lifecycle-service/internal/health"
	"github.com/sandeepkv93/session-lifecycle-service/internal/http/handler"
	"github.com/sandeepkv93/session-lifecycle-service/internal/http/middleware"
	"github.com/sandeepkv93/session-lifecycle-service/internal/http/router"
	"github.com/sandeepkv93/session-lifecycle-service/internal/observability"
	"github.com/sandeepkv93/session-lifecycle-service/internal/repository"
	"github.com/sandeepkv93/session-lifecycle-service/internal/security"
	"github.com/sandeepkv93/session-lifecycle-service/internal/service"
	"github.com/sandeepkv93/session-lifecycle-service/internal/session"
	"github.com/sandeepkv93/session-lifecycle-service/internal/tools/common"
	"github.com/sandeepkv93/session-lifecycle-service/internal/tools/loadgen"
)

func main() {
	root := &cobra.Command{
		Use:           "session-lifecycle-service",
		Short:         "Session lifecycle tracking service",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newServeCommand())
	root.AddCommand(newStatsCommand())
	root.AddCommand(newLoadgenCommand())
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func newServeCommand() *cobra.Command {
	var envFile string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP server and expiry sweeper",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := common.LoadEnvFile(envFile); err != nil {
				return err
			}
			return serve(cmd.Context())
		},
	}
	cmd.Flags().StringVar(&envFile, "env-file", ".env", "dotenv file loaded before config")
	return cmd
}

func serve(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger, loggerProvider, err := observability.InitLogging(ctx, cfg)
	if err != nil {
		return fmt.Errorf("init logging: %w", err)
	}
	runtime, err := observability.InitRuntime(ctx, cfg, logger, loggerProvider)
	if err != nil {
		return fmt.Errorf("init observability: %w", err)
	}

	readiness := health.NewProbeRunner(2*time.Second, 5*time.Second)

	var redisClient redis.UniversalClient
	var revoker session.TokenRevoker = credentials.NewNoopTokenRevoker()
	var revocations middleware.RevocationChecker
	if cfg.RedisAddr != "" {
		client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword})
		redisClient = client
		redisRevoker := credentials.NewRedisTokenRevoker(client, "revoked_sessions", cfg.TokenHashPepper, cfg.RevocationTTL)
		revoker = redisRevoker
		revocations = redisRevoker
		readiness.Register(health.RedisChecker{Client: client})
		logger.Info("revocation denylist enabled", "addr", cfg.RedisAddr)
	} else {
		logger.Warn("no redis configured, revocations are process-local only")
	}

	var audit session.AuditRecorder = service.NewNoopAuditRecorder()
	if cfg.DatabaseURL != "" || cfg.Profile != "prod" {
		db, err := openDatabase(cfg)
		if err != nil {
			return fmt.Errorf("open database: %w", err)
		}
		if err := db.AutoMigrate(&domain.SessionEvent{}); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
		audit = service.NewPersistingAuditRecorder(repository.NewSessionEventRepository(db))
		readiness.Register(health.DatabaseChecker{DB: db})
	}

	limits := session.Limits{
		IdleTimeout:     cfg.IdleTimeout,
		AbsoluteTimeout: cfg.AbsoluteTimeout,
		WarningLeadTime: cfg.WarningLeadTime,
	}
	tracker := session.NewTracker(session.NewRegistry(), limits, revoker, audit, logger, time.Now)
	sweeper := session.NewSweeper(tracker, cfg.SweepInterval, logger)

	jwtMgr := security.NewJWTManager(cfg.JWTIssuer, cfg.JWTAudience, cfg.JWTAccessSecret)
	admin := service.NewSessionAdminService(tracker, time.Now)

	mux := router.NewRouter(router.Dependencies{
		SessionHandler: handler.NewSessionHandler(admin),
		JWTManager:     jwtMgr,
		Tracker:        tracker,
		Revocations:    revocations,
		Readiness:      readiness,
		EnableOTelHTTP: cfg.OTELTracesEnabled,
	})
	server := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	a := app.New(cfg, logger, server, runtime, sweeper, redisClient, readiness, nil)
	return a.Run(ctx)
}

func openDatabase(cfg *config.Config) (*gorm.DB, error) {
	gormCfg := &gorm.Config{Logger: gormlogger.Default.LogMode(gormlogger.Silent)}
	if cfg.DatabaseURL != "" {
		return gorm.Open(postgres.Open(cfg.DatabaseURL), gormCfg)
	}
	// Dev fallback keeps audit events queryable without a running Postgres.
	return gorm.Open(sqlite.Open("file:session-events?mode=memory&cache=shared"), gormCfg)
}

type statsOptions struct {
	baseURL string
	token   string
}

func newStatsCommand() *cobra.Command {
	opts := &statsOptions{}
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Render live registry statistics from a running server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStats(cmd.Context(), opts, cmd.OutOrStdout())
		},
	}
	cmd.Flags().StringVar(&opts.baseURL, "base-url", "http://localhost:8080", "API base URL")
	cmd.Flags().StringVar(&opts.token, "token", "", "operator access token")
	return cmd
}

func runStats(ctx context.Context, opts *statsOptions, out io.Writer) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, opts.baseURL+"/api/v1/admin/sessions/stats", nil)
	if err != nil {
		return err
	}
	if opts.token != "" {
		req.Header.Set("Authorization", "Bearer "+opts.token)
	}
	client := &http.Client{Timeout: 10 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("fetch stats: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("fetch stats: unexpected status %d", resp.StatusCode)
	}

	var payload struct {
		Data service.RegistryStats `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return fmt.Errorf("decode stats: %w", err)
	}

	fmt.Fprintln(out, renderStats(payload.Data))
	return nil
}

func newLoadgenCommand() *cobra.Command {
	cfg := loadgen.Config{}
	cmd := &cobra.Command{
		Use:   "loadgen",
		Short: "Generate synthetic session traffic against a running server",
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := loadgen.Run(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "requests=%d failures=%d classes=%v\n",
				res.TotalRequests, res.Failures, res.StatusClasses)
			return nil
		},
	}
	cmd.Flags().StringVar(&cfg.BaseURL, "base-url", "http://localhost:8080", "API base URL")
	cmd.Flags().StringVar(&cfg.Profile, "profile", "mixed", "traffic profile: me, devices or mixed")
	cmd.Flags().DurationVar(&cfg.Duration, "duration", 10*time.Second, "how long to run")
	cmd.Flags().IntVar(&cfg.RPS, "rps", 20, "target requests per second")
	cmd.Flags().IntVar(&cfg.Concurrency, "concurrency", 6, "concurrent workers")
	cmd.Flags().Int64Var(&cfg.Seed, "seed", 42, "random seed")
	cmd.Flags().StringVar(&cfg.JWTIssuer, "jwt-issuer", "session-lifecycle-service", "issuer for minted tokens")
	cmd.Flags().StringVar(&cfg.JWTAudience, "jwt-audience", "session-lifecycle-service", "audience for minted tokens")
	cmd.Flags().StringVar(&cfg.JWTAccessSecret, "jwt-secret", "", "signing secret shared with the server")
	cmd.Flags().IntVar(&cfg.Users, "users", 5, "distinct simulated users")
	cmd.Flags().IntVar(&cfg.DevicesPerUser, "devices-per-user", 2, "sessions per simulated user")
	return cmd
}

var (
	statsTitleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("81"))
	statsLabelStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Width(18)
	statsValueStyle = lipgloss.NewStyle().Bold(true)
	statsBoxStyle   = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 2)
)

func renderStats(stats service.RegistryStats) string {
	lines := []string{
		statsTitleStyle.Render("Active Sessions"),
		statsLabelStyle.Render("sessions") + statsValueStyle.Render(fmt.Sprintf("%d", stats.ActiveSessions)),
		statsLabelStyle.Render("users") + statsValueStyle.Render(fmt.Sprintf("%d", stats.ActiveUsers)),
	}
	users := make([]string, 0, len(stats.SessionsByUser))
	for user := range stats.SessionsByUser {
		users = append(users, user)
	}
	sort.Strings(users)
	for _, user := range users {
		lines = append(lines, statsLabelStyle.Render(user)+fmt.Sprintf("%d", stats.SessionsByUser[user]))
	}
	return statsBoxStyle.Render(lipgloss.JoinVertical(lipgloss.Left, lines...))
}
