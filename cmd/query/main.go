package main

import (
	"context"
	"flag"
	"os"

	"github.com/jobsift/jobsift/internal/clients/mongodb"
	"github.com/jobsift/jobsift/internal/export"
	"github.com/jobsift/jobsift/internal/logger"
	"github.com/jobsift/jobsift/internal/query"
	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

func envOr(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func main() {

	_ = godotenv.Load()

	var (
		output     = flag.String("output", "final_jobs.csv", "path of the CSV file to write")
		limit      = flag.Int64("limit", 0, "maximum number of records to export, 0 for all")
		company    = flag.String("company", "", "filter by company, case-insensitive substring")
		jobType    = flag.String("job-type", "", "filter by job type, case-insensitive substring")
		location   = flag.String("location", "", "filter by location, case-insensitive substring")
		mongoURI   = flag.String("mongo-uri", envOr("MONGO_URI", "mongodb://localhost:27017/"), "MongoDB connection URI")
		mongoDB    = flag.String("mongo-db", envOr("MONGO_DATABASE", "jobs_data"), "MongoDB database name")
		collection = flag.String("collection", envOr("MONGO_COLLECTION", "jobs"), "MongoDB collection name")
	)
	flag.Parse()

	ctx := context.Background()

	store, err := mongodb.NewClient(ctx, *mongoURI, *mongoDB)
	if err != nil {
		log.Fatalf("can't connect to document store: %v", err)
	}
	defer func() { _ = store.Close(ctx) }()

	engine := query.NewEngine(store, *collection)

	documents, err := engine.Query(ctx, query.Criteria{
		Company:  *company,
		JobType:  *jobType,
		Location: *location,
		Limit:    *limit,
	})
	if err != nil {
		log.Fatalf("query failed: %v", err)
	}

	count, err := export.ToCSV(documents, *output)
	if errors.Is(err, export.ErrNothingToExport) {
		log.Warn("No data found matching the query criteria")
		return
	}
	if err != nil {
		log.WithField(logger.ErrorTypeField, logger.ErrorTypeExport).Fatalf("export failed: %v", err)
	}

	log.Infof("wrote %d records to %s", count, *output)
}
