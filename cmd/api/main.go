package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/bradfitz/gomemcache/memcache"
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/extra/redisotel/v9"
	"github.com/redis/go-redis/v9"
	"github.com/rs/xid"
	"go.opentelemetry.io/contrib/instrumentation/github.com/labstack/echo/otelecho"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.7.0"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	"gorm.io/plugin/opentelemetry/tracing"

	"github.com/totegamma/personagens"
	"github.com/totegamma/personagens/core"
	"github.com/totegamma/personagens/internal/buildinfo"
	"github.com/totegamma/personagens/x/character"
)

type CustomHandler struct {
	slog.Handler
}

func (h *CustomHandler) Handle(ctx context.Context, r slog.Record) error {

	r.AddAttrs(slog.String("type", "app"))

	span := trace.SpanFromContext(ctx)
	if span.SpanContext().IsValid() {
		r.AddAttrs(slog.String("traceID", span.SpanContext().TraceID().String()))
		r.AddAttrs(slog.String("spanID", span.SpanContext().SpanID().String()))
	}

	return h.Handler.Handle(ctx, r)
}

var (
	version = "unknown"
)

func main() {

	version = buildinfo.Version(version)

	handler := &CustomHandler{Handler: slog.NewJSONHandler(os.Stdout, nil)}
	slogger := slog.New(handler)
	slog.SetDefault(slogger)

	slog.Info(fmt.Sprintf("personagens %s starting...", version))

	e := echo.New()
	e.HidePort = true
	e.HideBanner = true

	config := core.Config{}
	configPath := os.Getenv("PERSONAGENS_CONFIG")
	if configPath == "" {
		configPath = "/etc/personagens/config.yaml"
	}

	err := config.Load(configPath)
	if err != nil {
		slog.Error("failed to load config", slog.String("error", err.Error()))
		os.Exit(1)
	}

	if config.Server.EnableTrace {
		cleanup, err := setupTraceProvider(config.Server.TraceEndpoint, "personagens", version)
		if err != nil {
			panic(err)
		}
		defer cleanup()

		skipper := otelecho.WithSkipper(
			func(c echo.Context) bool {
				return c.Path() == "/metrics" || c.Path() == "/health"
			},
		)
		e.Use(otelecho.Middleware("api", skipper))
	}

	e.Pre(middleware.RemoveTrailingSlash())

	e.Use(middleware.RequestIDWithConfig(middleware.RequestIDConfig{
		Generator: func() string {
			return xid.New().String()
		},
	}))

	e.Use(echoprometheus.NewMiddlewareWithConfig(echoprometheus.MiddlewareConfig{
		Namespace: "personagens",
		Skipper: func(c echo.Context) bool {
			return c.Path() == "/metrics" || c.Path() == "/health"
		},
	}))

	e.Use(middleware.Recover())

	db, err := openDatabase(config.Server)
	if err != nil {
		slog.Error("failed to open database", slog.String("error", err.Error()))
		os.Exit(1)
	}
	sqlDB, err := db.DB()
	if err != nil {
		slog.Error("failed to open database", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer sqlDB.Close()

	rdb, err := openRedis(config.Server)
	if err != nil {
		slog.Error("failed to setup redis", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer rdb.Close()

	mc := memcache.New(config.Server.MemcachedAddr)
	defer mc.Close()

	characterService := personagens.SetupCharacterService(db, rdb, mc)
	characterHandler := character.NewHandler(characterService)

	character.Mount(e.Group(core.CharacterBasePath), characterHandler)

	e.GET("/health", func(c echo.Context) (err error) {
		ctx := c.Request().Context()

		err = sqlDB.PingContext(ctx)
		if err != nil {
			return c.String(http.StatusInternalServerError, "db error")
		}

		err = rdb.Ping(ctx).Err()
		if err != nil {
			return c.String(http.StatusInternalServerError, "redis error")
		}

		return c.String(http.StatusOK, "ok")
	})

	go reportResourceCount(characterService)

	e.GET("/metrics", echoprometheus.NewHandler())

	slog.Info(fmt.Sprintf("listening on %s", config.Server.Listen))
	e.Logger.Fatal(e.Start(config.Server.Listen))
}

// openDatabase connects to postgres with tracing and migrates the characters table
func openDatabase(server core.Server) (*gorm.DB, error) {
	gormLogger := logger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags),
		logger.Config{
			SlowThreshold:             300 * time.Millisecond,
			LogLevel:                  logger.Warn,
			IgnoreRecordNotFoundError: true,
		},
	)

	db, err := gorm.Open(postgres.Open(server.Dsn), &gorm.Config{Logger: gormLogger})
	if err != nil {
		return nil, fmt.Errorf("connect: %w", err)
	}

	err = db.Use(tracing.NewPlugin(tracing.WithDBName("postgres")))
	if err != nil {
		return nil, fmt.Errorf("tracing plugin: %w", err)
	}

	slog.Info("start migrate")
	err = db.AutoMigrate(&core.Character{})
	if err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return db, nil
}

func openRedis(server core.Server) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr: server.RedisAddr,
		DB:   server.RedisDB,
	})

	err := redisotel.InstrumentTracing(
		rdb,
		redisotel.WithAttributes(attribute.String("db.name", "redis")),
	)
	if err != nil {
		return nil, err
	}
	return rdb, nil
}

// reportResourceCount refreshes the resource gauge every 15 seconds
func reportResourceCount(service core.CharacterService) {
	resourceCount := prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "personagens",
			Name:      "resources_count",
			Help:      "number of live resources by type",
		},
		[]string{"type"},
	)
	prometheus.MustRegister(resourceCount)

	ticker := time.NewTicker(15 * time.Second)
	defer ticker.Stop()

	for range ticker.C {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		count, err := service.Count(ctx)
		cancel()
		if err != nil {
			slog.Error("failed to count characters", slog.String("error", err.Error()))
			continue
		}
		resourceCount.WithLabelValues("character").Set(float64(count))
	}
}

func setupTraceProvider(endpoint string, serviceName string, serviceVersion string) (func(), error) {

	exporter, err := otlptracehttp.New(
		context.Background(),
		otlptracehttp.WithEndpoint(endpoint),
		otlptracehttp.WithInsecure(),
	)

	if err != nil {
		return nil, err
	}

	resource := resource.NewWithAttributes(
		semconv.SchemaURL,
		semconv.ServiceNameKey.String(serviceName),
		semconv.ServiceVersionKey.String(serviceVersion),
	)

	tracerProvider := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
		sdktrace.WithResource(resource),
	)
	otel.SetTracerProvider(tracerProvider)

	propagator := propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	)
	otel.SetTextMapPropagator(propagator)

	cleanup := func() {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		if err := tracerProvider.Shutdown(ctx); err != nil {
			slog.Error(fmt.Sprintf("Failed to shutdown tracer provider: %v", err))
		}
	}
	return cleanup, nil
}
