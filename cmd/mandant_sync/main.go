// mandant_sync synchronizes associations between objects and mandants once.
//
// The database is given by -database, the config file (-config or HEATCARE_CONFIG),
// or, when neither is given, libpq environment variables (PGHOST, PGUSER, PGPASSWORD, PGDATABASE, ...).
//
// It exits with 0 when the synchronization has been done, even if some objects failed.
// Otherwise, it exits with 1.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	kconf "github.com/heatcare/heatcare/pkg/configs/heatcare"
	kpgheatcare "github.com/heatcare/heatcare/pkg/domain/heatcare/db/postgres"
	"github.com/heatcare/heatcare/pkg/echoutil"
	"github.com/heatcare/heatcare/pkg/mandantsync"
	"github.com/heatcare/heatcare/pkg/utils/args"
	"github.com/labstack/gommon/log"
)

func main() {
	os.Exit(run())
}

func run() int {
	logger := log.New("mandant_sync")
	logger.SetHeader("${time_rfc3339} ${level} ${prefix}")

	ctx, cancel := signal.NotifyContext(
		context.Background(), os.Interrupt, syscall.SIGTERM,
	)
	defer cancel()

	pconfig := flag.String("config", os.Getenv("HEATCARE_CONFIG"), "path to config file")
	pdatabase := flag.String("database", "", "connection string of database. overrides config.")
	conflict := args.Parser(mandantsync.ParseConflictPolicy)
	flag.Var(conflict, "conflict-policy", "first-wins|last-wins|merge|error. overrides config.")
	missing := args.Parser(mandantsync.ParseMissingConfigPolicy)
	flag.Var(missing, "missing-config", "clear|keep. overrides config.")
	ploglevel := flag.String("loglevel", "info", "debug|info|warn|error|off")
	flag.Parse()

	lvl, err := echoutil.ParseLevel(*ploglevel)
	if err != nil {
		logger.Error(err)
		return 1
	}
	logger.SetLevel(lvl)

	conf, err := loadConfig(*pconfig, *pdatabase)
	if err != nil {
		logger.Errorf("cannot load config: %s", err)
		return 1
	}

	db, err := kpgheatcare.New(
		ctx, conf.Database(), kpgheatcare.WithMaxConns(conf.Pool().MaxConns()),
	)
	if err != nil {
		logger.Errorf("cannot connect to database: %s", err)
		return 1
	}
	defer db.Close()

	options := append(conf.Sync().Options(), mandantsync.WithLogger(logger))
	if conflict.IsSet() {
		options = append(options, mandantsync.WithConflictPolicy(conflict.Value()))
	}
	if missing.IsSet() {
		options = append(options, mandantsync.WithMissingConfigPolicy(missing.Value()))
	}

	if timeout := conf.Sync().Timeout(); 0 < timeout {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	sync := mandantsync.New(db.Object(), db.Mandant(), db.Association(), options...)
	summary, err := sync.Run(ctx)
	if err != nil {
		logger.Errorf("synchronization failed: %s", err)
		return 1
	}
	if 0 < summary.Failed {
		logger.Warnf("%d objects failed to be synchronized", summary.Failed)
	}
	return 0
}

func loadConfig(path string, database string) (*kconf.Config, error) {
	if path == "" {
		return kconf.Default(database)
	}
	conf, err := kconf.Load(path)
	if err != nil {
		return nil, err
	}
	return conf.WithDatabase(database), nil
}
