package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"construction-tracking-api/config"
	"construction-tracking-api/models"
	"construction-tracking-api/services"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
)

// reconcile re-derives every BOQ activity aggregate from its KPI rows.
// Run once by default, or on a cron schedule with -schedule (e.g. "0 2 * * *"
// for a nightly sweep).
func main() {
	schedule := flag.String("schedule", os.Getenv("RECONCILE_SCHEDULE"), "cron schedule; empty runs one sweep and exits")
	flag.Parse()

	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	logFile, _ := config.InitLogging()
	if logFile != nil {
		defer logFile.Close()
	}
	config.InitDB()

	if *schedule == "" {
		sweep(context.Background())
		return
	}

	c := cron.New()
	if _, err := c.AddFunc(*schedule, func() { sweep(context.Background()) }); err != nil {
		log.Fatal("Invalid cron schedule:", err)
	}
	c.Start()
	config.GetLogger().WithField("schedule", *schedule).Info("reconcile sweep scheduled")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	<-c.Stop().Done()
}

func sweep(ctx context.Context) {
	logger := config.GetLogger()

	var activities []models.BOQActivity
	if err := config.DB.Where("delete_at IS NULL").Find(&activities).Error; err != nil {
		logger.WithError(err).Error("failed to list BOQ activities")
		return
	}

	agg := services.NewBOQAggregator(nil, nil, logger)
	matched, missing := 0, 0
	for _, activity := range activities {
		code := activity.ProjectFullCode
		if code == "" {
			code = activity.ProjectCode
		}
		result, err := agg.Recompute(ctx, code, activity.ActivityName)
		if err != nil {
			logger.WithError(err).WithField("activity", activity.ActivityName).Warn("recompute failed")
			continue
		}
		if result.Matched {
			matched++
		} else {
			missing++
		}
	}

	logger.WithField("recomputed", matched).WithField("unmatched", missing).Info("reconcile sweep finished")
}
