package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"time"

	flag "github.com/spf13/pflag"

	"github.com/i474232898/meteo-dashboard/internal/config"
	"github.com/i474232898/meteo-dashboard/internal/logging"
	"github.com/i474232898/meteo-dashboard/internal/sodar"
)

const flagDateFormat = "2006-01-02"

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	lg := logging.New(cfg, "sodar-import")

	defaultAddr := cfg.Influx.Addr
	if defaultAddr == "" {
		defaultAddr = "http://localhost:8086"
	}

	var upload = flag.Bool("upload", false, "pass to upload data to InfluxDB, otherwise the data will be output")
	var influxAddr = flag.String("influx-addr", defaultAddr, "InfluxDB HTTP address")
	var influxUser = flag.String("influx-user", cfg.Influx.User, "InfluxDB username")
	var influxPass = flag.String("influx-password", cfg.Influx.Password, "InfluxDB password")
	var influxDB = flag.String("influx-db", cfg.Influx.Database, "InfluxDB database")
	var measurementName = flag.String("measurement-name", cfg.Influx.Measurement, "measurement name")
	var urlTemplate = flag.String("url-template", sodar.DefaultURLTemplate, "SODAR file URL, {date} is replaced by yymmdd")
	var startDateFlag = flag.StringP("start-date", "s", "", "start date (yyyy-mm-dd), default is today")
	var endDateFlag = flag.StringP("end-date", "e", "", "end date (yyyy-mm-dd), default is the start date")

	flag.Parse()

	if *startDateFlag == "" {
		*startDateFlag = time.Now().UTC().Format(flagDateFormat)
	}
	if *endDateFlag == "" {
		*endDateFlag = *startDateFlag
	}

	startDate, err := time.ParseInLocation(flagDateFormat, *startDateFlag, time.UTC)
	if err != nil {
		log.Fatal(err)
	}
	endDate, err := time.ParseInLocation(flagDateFormat, *endDateFlag, time.UTC)
	if err != nil {
		log.Fatal(err)
	}
	if endDate.Before(startDate) {
		flag.Usage()
		log.Fatal("end date must not be before start date")
	}

	dl := sodar.Downloader{
		Client:      &http.Client{Timeout: cfg.HTTPTimeout},
		URLTemplate: *urlTemplate,
	}

	ctx := context.Background()
	var obs []sodar.Observation
	for day := startDate; !day.After(endDate); day = day.AddDate(0, 0, 1) {
		res, err := dl.Fetch(ctx, day)
		if err != nil {
			lg.Warn("failed to fetch sodar file", "date", day.Format(flagDateFormat), "error", err)
			continue
		}
		lg.Info("fetched sodar file", "date", day.Format(flagDateFormat), "observations", len(res.Observations), "skipped", res.Skipped)
		obs = append(obs, res.Observations...)
	}

	if *upload {
		st, err := sodar.NewInfluxStore(config.InfluxConfig{
			Addr:        *influxAddr,
			User:        *influxUser,
			Password:    *influxPass,
			Database:    *influxDB,
			Measurement: *measurementName,
		})
		if err != nil {
			log.Fatal(err)
		}
		defer st.Close()

		if err := st.Ping(time.Second); err != nil {
			log.Fatal(err)
		}
		if err := st.Write(obs); err != nil {
			lg.Error("failed to write points", "error", err)
			os.Exit(1)
		}
		lg.Info("uploaded observations", "count", len(obs), "db", *influxDB)
		return
	}

	bp, err := sodar.Points(*influxDB, *measurementName, obs)
	if err != nil {
		log.Fatal(err)
	}
	for _, p := range bp.Points() {
		if p == nil {
			continue
		}
		fmt.Println(p.PrecisionString("ns"))
	}
}
