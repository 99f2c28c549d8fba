package main

import (
	"context"
	"flag"
	"time"

	"github.com/dhanavadh/eldercare-backend/internal"
	"github.com/dhanavadh/eldercare-backend/internal/config"
	"github.com/dhanavadh/eldercare-backend/internal/logging"
	"github.com/dhanavadh/eldercare-backend/internal/services"
	"github.com/dhanavadh/eldercare-backend/internal/storage"
	"github.com/dhanavadh/eldercare-backend/internal/utils"

	log "github.com/sirupsen/logrus"
)

func main() {
	days := flag.Int("days", 180, "Remove submissions older than this many days")
	dryRun := flag.Bool("dry-run", false, "Show what would be removed without making changes")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load configuration: ", err)
	}
	logging.Setup(cfg.Log)

	if *days <= 0 {
		log.Fatal("-days must be positive")
	}
	if !cfg.Database.Enabled() {
		log.Fatal("DB_HOST is not set, nothing to clean up")
	}

	db, err := internal.OpenDB(cfg)
	if err != nil {
		log.Fatal("Failed to initialize database: ", err)
	}
	defer internal.CloseDB(db)

	var files utils.ObjectDeleter
	if cfg.GCS.BucketName != "" {
		gcsClient, err := storage.NewGCSClient(cfg.GCS.BucketName, cfg.GCS.CredentialsPath, cfg.GCS.Public)
		if err != nil {
			log.Fatal("Failed to initialize GCS client: ", err)
		}
		defer gcsClient.Close()
		files = gcsClient
	}

	cutoff := time.Now().AddDate(0, 0, -*days)
	if *dryRun {
		log.Info("Running in DRY RUN mode - no changes will be made")
	} else {
		log.Infof("Removing submissions created before %s", cutoff.Format(time.RFC3339))
	}

	res, err := utils.PruneSubmissions(context.Background(), services.NewSubmissionLog(db), files, cutoff, *dryRun)
	if err != nil {
		log.Fatal("Failed to clean up submissions: ", err)
	}

	log.WithFields(log.Fields{
		"records": res.Records,
		"objects": res.Objects,
		"skipped": res.Skipped,
	}).Info("Cleanup completed")
}
