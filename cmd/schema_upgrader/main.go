package main

import (
	"context"
	"flag"
	"fmt"
	"net/url"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	kpgheatcare "github.com/heatcare/heatcare/pkg/domain/heatcare/db/postgres"
	"github.com/labstack/gommon/log"
)

func main() {
	os.Exit(run())
}

// run upgrades the schema and returns the exit code.
func run() int {
	logger := log.New("schema_upgrader")
	logger.SetHeader("${time_rfc3339} ${level} ${prefix}")
	logger.SetLevel(log.INFO)

	ctx, cancel := signal.NotifyContext(
		context.Background(), os.Interrupt, syscall.SIGTERM,
	)
	defer cancel()

	port := 5432
	if sp := os.Getenv("DB_PORT"); sp != "" {
		if p, err := strconv.Atoi(sp); err == nil {
			port = p
		}
	}

	host := flag.String("host", os.Getenv("DB_HOST"), "The host of the database.")
	pport := flag.Int("port", port, "The port of the database.")
	user := flag.String("user", os.Getenv("DB_USER"), "The user of the database.")
	password := flag.String("pass", os.Getenv("DB_PASSWORD"), "The password of the database.")
	database := flag.String("database", os.Getenv("DB_NAME"), "The name of the database.")
	schema := flag.String("schema", os.Getenv("HEATCARE_SCHEMA"), "The path to the schema repository directory.")
	flag.Parse()

	if *schema == "" {
		logger.Error("schema repository is not specified (-schema or HEATCARE_SCHEMA)")
		return 1
	}

	dsn := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(*user, *password),
		Host:   fmt.Sprintf("%s:%d", *host, *pport),
		Path:   "/" + *database,
	}

	db, err := kpgheatcare.New(ctx, dsn.String(), kpgheatcare.WithSchemaRepository(*schema))
	if err != nil {
		logger.Errorf("cannot connect to database: %s", err)
		return 1
	}
	defer db.Close()

	before, err := db.Schema().Version(ctx)
	if err != nil {
		logger.Errorf("cannot get schema version: %s", err)
		return 1
	}
	latest, err := db.Schema().Latest()
	if err != nil {
		logger.Errorf("cannot read schema repository: %s", err)
		return 1
	}
	if latest <= before {
		logger.Infof("schema is up to date (version %d)", before)
		return 0
	}

	logger.Infof("upgrading schema: %d -> %d", before, latest)
	if err := db.Schema().Upgrade(ctx); err != nil {
		logger.Errorf("failed to upgrade schema: %s", err)
		return 1
	}
	logger.Infof("schema is upgraded to version %d", latest)
	return 0
}
