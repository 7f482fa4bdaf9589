package testutil

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"net/http/httptest"
	"sync"
	"time"

	"github.com/bradfitz/gomemcache/memcache"
	"github.com/labstack/echo/v4"
	"github.com/ory/dockertest"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/totegamma/personagens/core"
)

var (
	user        = "postgres"
	password    = "secret"
	dbName      = "unittest"
	dsnTemplate = "postgres://%s:%s@localhost:%s/%s?sslmode=disable"
)

var pool *dockertest.Pool
var poolLock = &sync.Mutex{}
var dbLock = &sync.Mutex{}

var tracer = otel.Tracer("testutil")

func SetupMockTraceProvider() *tracetest.InMemoryExporter {

	spanChecker := tracetest.NewInMemoryExporter()
	provider := sdktrace.NewTracerProvider(sdktrace.WithSyncer(spanChecker))
	otel.SetTracerProvider(provider)

	return spanChecker
}

func CreateHttpRequest() (echo.Context, *http.Request, *httptest.ResponseRecorder, string) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()

	c := e.NewContext(req, rec)
	ctx, span := tracer.Start(c.Request().Context(), "testRoot")
	defer span.End()
	c.SetRequest(c.Request().WithContext(ctx))
	traceID := span.SpanContext().TraceID().String()

	return c, req, rec, traceID
}

// startContainer runs image and returns the host port mapped to containerPort
func startContainer(opts *dockertest.RunOptions, containerPort string) (*dockertest.Pool, string, func()) {
	pool := getPool()

	resource, err := pool.RunWithOptions(opts)
	if err != nil {
		log.Fatalf("Could not start %s: %s", opts.Repository, err)
	}

	port := resource.GetPort(containerPort)
	log.Printf("%s running on port %s", opts.Repository, port)

	return pool, port, func() { closeContainer(pool, resource) }
}

// CreateDB starts postgres and migrates the characters table
func CreateDB() (*gorm.DB, func()) {
	dbLock.Lock()
	defer dbLock.Unlock()

	pool, port, cleanup := startContainer(&dockertest.RunOptions{
		Repository: "postgres",
		Tag:        "latest",
		Env: []string{
			"POSTGRES_USER=" + user,
			"POSTGRES_PASSWORD=" + password,
			"POSTGRES_DB=" + dbName,
		},
		ExposedPorts: []string{"5432/tcp"},
	}, "5432/tcp")

	dsn := fmt.Sprintf(dsnTemplate, user, password, port, dbName)

	var db *gorm.DB
	err := pool.Retry(func() error {
		time.Sleep(2 * time.Second)

		var err error
		db, err = gorm.Open(postgres.Open(dsn), &gorm.Config{})
		if err != nil {
			return err
		}
		sqlDB, err := db.DB()
		if err != nil {
			return err
		}
		return sqlDB.Ping()
	})
	if err != nil {
		log.Fatalf("postgres never became ready: %s", err)
	}

	if err := db.AutoMigrate(&core.Character{}); err != nil {
		log.Fatalf("Could not migrate: %s", err)
	}

	return db, cleanup
}

// CreateMC starts memcached for the character counter
func CreateMC() (*memcache.Client, func()) {
	pool, port, cleanup := startContainer(&dockertest.RunOptions{
		Repository:   "memcached",
		Tag:          "1.6.7",
		ExposedPorts: []string{"11211/tcp"},
	}, "11211/tcp")

	mc := memcache.New("localhost:" + port)
	err := pool.Retry(func() error {
		time.Sleep(time.Second)
		return mc.Ping()
	})
	if err != nil {
		log.Fatalf("memcached never became ready: %s", err)
	}
	return mc, cleanup
}

// CreateRDB starts redis for the get-by-id cache
func CreateRDB() (*redis.Client, func()) {
	pool, port, cleanup := startContainer(&dockertest.RunOptions{
		Repository:   "redis",
		Tag:          "latest",
		ExposedPorts: []string{"6379/tcp"},
	}, "6379/tcp")

	rdb := redis.NewClient(&redis.Options{Addr: "localhost:" + port})
	err := pool.Retry(func() error {
		time.Sleep(time.Second)
		return rdb.Ping(context.Background()).Err()
	})
	if err != nil {
		log.Fatalf("redis never became ready: %s", err)
	}
	return rdb, cleanup
}

func closeContainer(pool *dockertest.Pool, resource *dockertest.Resource) {
	if err := pool.Purge(resource); err != nil {
		log.Fatalf("Could not purge resource: %s", err)
	}
}

func getPool() *dockertest.Pool {
	poolLock.Lock()
	defer poolLock.Unlock()
	if pool == nil {
		var err error
		pool, err = dockertest.NewPool("")
		if err != nil {
			log.Fatalf("Could not connect to docker: %s", err)
		}
		pool.MaxWait = time.Second * 30
	}
	return pool
}
