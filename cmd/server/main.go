package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	_ "github.com/jackc/pgx/v5/stdlib"

	"ride-dispatch-service/internal/adapters/cache"
	"ride-dispatch-service/internal/adapters/routing"
	"ride-dispatch-service/internal/adapters/solver"
	"ride-dispatch-service/internal/api"
	"ride-dispatch-service/internal/config"
	"ride-dispatch-service/internal/dispatch"
	"ride-dispatch-service/internal/platform/db"
	"ride-dispatch-service/internal/platform/obs"
	"ride-dispatch-service/internal/ports"
)

// main is the application composition root.
// It wires concrete adapters (ORS, VROOM, caches) behind ports and starts
// the HTTP server.
func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found (using environment variables)")
	}

	if level, err := logrus.ParseLevel(config.Get("LOG_LEVEL", "info")); err == nil {
		obs.Logger.SetLevel(level)
	}

	port := config.Get("PORT", "8080")

	orsKey := os.Getenv("ORS_API_KEY")
	if strings.TrimSpace(orsKey) == "" {
		log.Fatal("ORS_API_KEY is required")
	}

	travelCache, closeCache, err := buildCache()
	if err != nil {
		log.Fatal(err)
	}
	defer closeCache()

	provider, err := routing.NewORSMatrixProvider(orsKey, travelCache)
	if err != nil {
		log.Fatal(err)
	}
	if base := os.Getenv("ORS_BASE_URL"); base != "" {
		provider = provider.WithBaseURL(base)
	}

	// Without an external engine the in-process greedy solver serves the
	// same contract.
	var engine ports.RouteSolver
	if vroomURL := os.Getenv("VROOM_URL"); vroomURL != "" {
		engine, err = solver.NewVROOMSolver(vroomURL)
		if err != nil {
			log.Fatal(err)
		}
	} else {
		log.Println("VROOM_URL not set, using in-process solver")
		engine = solver.NewGreedySolver()
	}

	planner := dispatch.NewPlanner(provider, engine, dispatch.DefaultSolveTimeout)
	router := api.NewRouter(planner)

	// Timeouts are tuned for cold-cache dispatch runs (external API latency).
	log.Printf("Server listening addr=:%s", port)
	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      120 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	log.Fatal(srv.ListenAndServe())
}

// buildCache picks the travel cost cache backend: Redis when REDIS_ADDR is
// set, Postgres when DATABASE_URL is set, otherwise in-memory.
func buildCache() (ports.TravelCostCache, func(), error) {
	if addr := os.Getenv("REDIS_ADDR"); addr != "" {
		client := redis.NewClient(&redis.Options{
			Addr:     addr,
			Password: os.Getenv("REDIS_PASSWORD"),
		})
		log.Printf("Using Redis travel cost cache addr=%s", addr)
		return cache.NewRedisTravelCostCache(client, cache.DefaultTTL), func() { client.Close() }, nil
	}

	if databaseURL := os.Getenv("DATABASE_URL"); databaseURL != "" {
		pg, err := db.Open(databaseURL)
		if err != nil {
			return nil, nil, err
		}
		if err := cache.InitSchema(context.Background(), pg); err != nil {
			pg.Close()
			return nil, nil, err
		}
		log.Println("Using Postgres travel cost cache")
		return cache.NewPostgresTravelCostCache(pg), func() { pg.Close() }, nil
	}

	log.Println("Using in-memory travel cost cache")
	mem := cache.NewMemoryTravelCostCache(cache.DefaultCapacity, cache.DefaultTTL)
	return mem, func() {}, nil
}
