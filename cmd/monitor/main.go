package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/smukkama/riskwatch/internal/protocol"
	"github.com/smukkama/riskwatch/internal/queue"
	"github.com/smukkama/riskwatch/pkg/config"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	fmt.Println("Starting Riskwatch Monitor...")

	statusConsumer := queue.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.TopicStatus, "monitor-group")
	defer statusConsumer.Close()
	snapshotConsumer := queue.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.TopicSnapshot, "monitor-group")
	defer snapshotConsumer.Close()
	fmt.Println("Kafka consumers initialized")

	ctx := context.Background()

	fmt.Println("\n✓ Monitor is running")
	fmt.Println("✓ Press Ctrl+C to stop")

	// Run status stream
	go func() {
		for {
			msg, err := statusConsumer.Consume(ctx)
			if err != nil {
				log.Printf("Failed to consume status message: %v\n", err)
				continue
			}

			status, err := protocol.DecodeRunStatus(msg.Value)
			if err != nil {
				log.Printf("Failed to decode run status: %v\n", err)
				statusConsumer.Commit(ctx, msg)
				continue
			}

			task := status.CurrentTask
			if task == "" {
				task = "-"
			}
			fmt.Printf("[run %s] %s: %s (risks=%d opportunities=%d plans=%d)\n",
				status.RunID, status.State, task,
				status.RisksDetected, status.OpportunitiesIdentified, status.PlansGenerated)
			if status.ErrorMessage != "" {
				fmt.Printf("[run %s] error: %s\n", status.RunID, status.ErrorMessage)
			}

			if err := statusConsumer.Commit(ctx, msg); err != nil {
				log.Printf("Failed to commit status offset: %v\n", err)
			}
		}
	}()

	// Supplier snapshot stream
	go func() {
		for {
			msg, err := snapshotConsumer.Consume(ctx)
			if err != nil {
				log.Printf("Failed to consume snapshot message: %v\n", err)
				continue
			}

			snapshot, err := protocol.DecodeSupplierSnapshot(msg.Value)
			if err != nil {
				log.Printf("Failed to decode supplier snapshot: %v\n", err)
				snapshotConsumer.Commit(ctx, msg)
				continue
			}

			fmt.Printf("[manufacturer %s] %d supplier(s):\n", snapshot.ManufacturerID, len(snapshot.Suppliers))
			for _, s := range snapshot.Suppliers {
				score := "-"
				if s.LatestRiskScore != nil {
					score = fmt.Sprintf("%.1f", *s.LatestRiskScore)
				}
				level := "-"
				if s.LatestRiskLevel != nil {
					level = *s.LatestRiskLevel
				}
				fmt.Printf("  %-24s score=%s level=%s risks=%d\n", s.Name, score, level, s.RiskSummary.Count)
			}

			if err := snapshotConsumer.Commit(ctx, msg); err != nil {
				log.Printf("Failed to commit snapshot offset: %v\n", err)
			}
		}
	}()

	// Wait for interrupt signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	fmt.Println("\nShutting down gracefully...")
}
