package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/smukkama/riskwatch/internal/analysis"
	"github.com/smukkama/riskwatch/internal/database"
	"github.com/smukkama/riskwatch/internal/events"
	"github.com/smukkama/riskwatch/internal/llm"
	"github.com/smukkama/riskwatch/internal/queue"
	"github.com/smukkama/riskwatch/internal/riskengine"
	"github.com/smukkama/riskwatch/internal/sources"
	"github.com/smukkama/riskwatch/internal/weather"
	"github.com/smukkama/riskwatch/pkg/config"
)

func main() {
	manufacturerFlag := flag.String("manufacturer", "", "Manufacturer id to analyze (all manufacturers when empty)")
	supplierFlag := flag.String("supplier", "", "Supplier id for the shipment exposure report")
	exposureFlag := flag.Bool("exposure", false, "Run the weather exposure pipeline instead of an analysis run")
	transitDaysFlag := flag.Int("transit-days", 0, "Transit days for the exposure report (configured default when 0)")
	startDateFlag := flag.String("start-date", "", "Shipment start date YYYY-MM-DD (today when empty)")
	intervalFlag := flag.Duration("interval", 0, "Run analysis on this interval (single run when 0)")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	fmt.Println("Starting Riskwatch Agent...")

	// Connect to database
	db, err := database.Connect(cfg.Database.ConnectionString())
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()
	fmt.Println("Connected to database")

	// Run migrations
	if err := db.RunMigrations("migrations"); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	// Release runs left behind by a crashed process
	if pruned, err := db.PruneStaleRuns(2 * time.Hour); err != nil {
		fmt.Printf("Note: Could not prune stale runs: %v\n", err)
	} else if pruned > 0 {
		fmt.Printf("Marked %d stale run(s) as errored\n", pruned)
	}

	// Redis-backed city weather store
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer redisClient.Close()
	cityStore := weather.NewCityStore(redisClient, cfg.Weather.CacheTTL)

	// Create Kafka topics
	if err := queue.CreateTopic(cfg.Kafka.Brokers, cfg.Kafka.TopicStatus, 1, 1); err != nil {
		fmt.Printf("Note: Topic creation failed (may already exist): %v\n", err)
	}
	if err := queue.CreateTopic(cfg.Kafka.Brokers, cfg.Kafka.TopicSnapshot, 1, 1); err != nil {
		fmt.Printf("Note: Topic creation failed (may already exist): %v\n", err)
	}

	statusProducer := queue.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.TopicStatus)
	defer statusProducer.Close()
	snapshotProducer := queue.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.TopicSnapshot)
	defer snapshotProducer.Close()
	broadcaster := events.NewKafkaBroadcaster(statusProducer, snapshotProducer)
	fmt.Println("Kafka producers initialized")

	// Inference backend; nil means deterministic fallbacks
	invoker := llm.New(cfg.LLM)
	if invoker == nil {
		fmt.Println("No inference backend configured, using deterministic analysis")
	} else {
		fmt.Printf("Inference backend: %s\n", invoker.Provider())
	}

	// Weather exposure pipeline
	var live weather.LiveProvider
	if cfg.Weather.UseLiveData {
		live = weather.NewAPIProvider(cfg.Weather)
		fmt.Println("Live weather provider enabled")
	}
	pipeline := weather.NewPipeline(db, cityStore, live, riskengine.NewEngine(), cfg.Agent.DefaultTransitDays)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if *exposureFlag {
		runExposure(ctx, pipeline, *manufacturerFlag, *supplierFlag, *startDateFlag, *transitDaysFlag)
		return
	}

	// Source feeds share one cached HTTP client
	cachedClient := sources.NewCachedClient(cfg.Agent.FetchTimeout, cfg.Agent.SourceCacheTTL)
	manager := sources.DefaultManager(cfg.Agent.SupplyChainBaseURL, cachedClient)
	if cfg.Agent.SupplyChainBaseURL != "" {
		fmt.Printf("Fetching source data from %s\n", cfg.Agent.SupplyChainBaseURL)
	} else {
		fmt.Println("Using mock source data")
	}

	orchestrator := analysis.NewOrchestrator(
		db,
		manager,
		analysis.NewExtractor(invoker),
		analysis.NewPlanner(invoker),
		broadcaster,
	)

	manufacturerID := uuid.Nil
	if *manufacturerFlag != "" {
		manufacturerID, err = uuid.Parse(*manufacturerFlag)
		if err != nil {
			log.Fatalf("Invalid manufacturer id %q: %v", *manufacturerFlag, err)
		}
	}

	trigger := func() {
		if err := orchestrator.Trigger(ctx, manufacturerID); err != nil {
			if errors.Is(err, analysis.ErrRunActive) {
				fmt.Println("Skipping trigger: run already active")
				return
			}
			fmt.Printf("Analysis run failed: %v\n", err)
		}
	}

	trigger()

	if *intervalFlag <= 0 {
		return
	}

	fmt.Printf("Scheduling analysis every %s\n", *intervalFlag)
	ticker := time.NewTicker(*intervalFlag)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			fmt.Println("Shutting down...")
			return
		case <-ticker.C:
			trigger()
		}
	}
}

// runExposure executes the weather pipeline once and prints the report
func runExposure(ctx context.Context, pipeline *weather.Pipeline, manufacturerStr, supplierStr, startDateStr string, transitDays int) {
	req := weather.Request{TransitDays: transitDays}

	var err error
	if manufacturerStr != "" {
		req.ManufacturerID, err = uuid.Parse(manufacturerStr)
		if err != nil {
			log.Fatalf("Invalid manufacturer id %q: %v", manufacturerStr, err)
		}
	}
	if supplierStr != "" {
		req.SupplierID, err = uuid.Parse(supplierStr)
		if err != nil {
			log.Fatalf("Invalid supplier id %q: %v", supplierStr, err)
		}
	}
	if startDateStr != "" {
		req.StartDate, err = time.Parse("2006-01-02", startDateStr)
		if err != nil {
			log.Fatalf("Invalid start date %q: %v", startDateStr, err)
		}
	}

	report, err := pipeline.Run(ctx, req)
	if err != nil {
		log.Fatalf("Exposure pipeline failed: %v", err)
	}

	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(report); err != nil {
		log.Fatalf("Failed to encode report: %v", err)
	}
}
