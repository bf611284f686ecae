package main

import (
	"context"
	"log"
	"os"
	"path/filepath"
	"time"

	flag "github.com/spf13/pflag"

	"github.com/i474232898/meteo-dashboard/internal/barometer"
	"github.com/i474232898/meteo-dashboard/internal/config"
	"github.com/i474232898/meteo-dashboard/internal/logging"
)

const flagDateFormat = "2006-01-02"

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	lg := logging.New(cfg, "barometer-import")

	defaultDB := cfg.BarometerDBPath
	if defaultDB == "" {
		defaultDB = filepath.Join("data", "barometer.db")
	}

	var dir = flag.StringP("dir", "d", "barometer_txt_files", "folder with barometer .txt files")
	var dbPath = flag.String("db", defaultDB, "SQLite database file")
	var onlyDate = flag.String("only-date", "", "import only samples of this day (yyyy-mm-dd)")

	flag.Parse()

	var day time.Time
	if *onlyDate != "" {
		day, err = time.ParseInLocation(flagDateFormat, *onlyDate, time.UTC)
		if err != nil {
			flag.Usage()
			log.Fatal(err)
		}
	}

	files, err := barometer.TextFiles(*dir)
	if err != nil {
		lg.Error("failed to list barometer files", "dir", *dir, "error", err)
		os.Exit(1)
	}
	if len(files) == 0 {
		lg.Warn("no .txt files found", "dir", *dir)
		return
	}

	repo, err := barometer.NewSQLiteRepository(*dbPath, lg)
	if err != nil {
		lg.Error("failed to open database", "path", *dbPath, "error", err)
		os.Exit(1)
	}
	defer repo.Close()

	ctx := context.Background()
	var total, inserted int
	for _, f := range files {
		samples, skipped, err := barometer.ParseFile(f)
		if err != nil {
			lg.Error("failed to parse file", "file", f, "error", err)
			continue
		}
		if !day.IsZero() {
			samples = onDay(samples, day)
		}

		n, err := repo.Save(ctx, samples)
		if err != nil {
			lg.Error("failed to save samples", "file", f, "error", err)
			continue
		}
		lg.Info("imported file", "file", filepath.Base(f), "parsed", len(samples), "inserted", n, "skipped", skipped)
		total += len(samples)
		inserted += n
	}

	lg.Info("import finished", "files", len(files), "parsed", total, "inserted", inserted, "duplicates", total-inserted)
}

func onDay(samples []barometer.Sample, day time.Time) []barometer.Sample {
	var out []barometer.Sample
	for _, s := range samples {
		if s.Datetime.Format(flagDateFormat) == day.Format(flagDateFormat) {
			out = append(out, s)
		}
	}
	return out
}
