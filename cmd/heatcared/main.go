// heatcared is the admin daemon of heatcare.
//
// It synchronizes object-mandant associations on demand and on schedule,
// resolves Grafana panel URLs and exposes metrics.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/heatcare/heatcare/cmd/heatcared/background"
	"github.com/heatcare/heatcare/cmd/heatcared/handlers"
	kconf "github.com/heatcare/heatcare/pkg/configs/heatcare"
	kpgheatcare "github.com/heatcare/heatcare/pkg/domain/heatcare/db/postgres"
	"github.com/heatcare/heatcare/pkg/echoutil"
	"github.com/heatcare/heatcare/pkg/grafana"
	"github.com/heatcare/heatcare/pkg/loop/recurring"
	"github.com/heatcare/heatcare/pkg/mandantsync"
	"github.com/heatcare/heatcare/pkg/metrics"
	"github.com/heatcare/heatcare/pkg/utils/args"
	"github.com/heatcare/heatcare/pkg/utils/filewatch"
	"github.com/heatcare/heatcare/pkg/utils/try"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	ctx, cancel := signal.NotifyContext(
		context.Background(), os.Interrupt, syscall.SIGTERM,
	)
	defer cancel()

	pconfig := flag.String("config", os.Getenv("HEATCARE_CONFIG"), "path to config file")
	pSchemaRepo := flag.String("schema-repo", os.Getenv("HEATCARE_SCHEMA"), "schema repository path")
	policy := args.ParserWithDefault(recurring.ParsePolicy, recurring.None())
	flag.Var(
		policy, "policy",
		`background synchronization policy (syntax: none|forever[:COOLDOWN]|until-error[:COOLDOWN]).`+
			` "none" = synchronize on demand only.`+
			` "forever[:COOLDOWN]" = synchronize repeatedly, waiting COOLDOWN (default: 10m) between runs.`+
			` "until-error[:COOLDOWN]" = as forever, but stop at the first failed run.`,
	)
	ploglevel := flag.String("loglevel", "", "log level. debug|info|warn|error|off. overrides config.")
	flag.Parse()

	e := echo.New()
	e.HideBanner = true
	e.JSONSerializer = echoutil.JSONSerializer{}
	e.Pre(middleware.AddTrailingSlash())
	e.HTTPErrorHandler = func(err error, c echo.Context) {
		e.DefaultHTTPErrorHandler(err, c)
		e.Logger.Error(err)
	}
	e.Use(echoutil.LogHandlerFunc)

	conf := try.To(kconf.Load(*pconfig)).OrFatal(e.Logger)
	loglevel := conf.Server().Loglevel()
	if *ploglevel != "" {
		loglevel = *ploglevel
	}
	echoutil.SetLevel(e, loglevel)

	{
		// restart when config is modified.
		wctx, cancel, err := filewatch.UntilModifyContext(ctx, *pconfig)
		if err != nil {
			e.Logger.Fatalf("cannot watch config: %s", err)
		}
		defer cancel()
		ctx = wctx
	}

	db := try.To(kpgheatcare.New(
		ctx, conf.Database(),
		kpgheatcare.WithSchemaRepository(*pSchemaRepo),
		kpgheatcare.WithMaxConns(conf.Pool().MaxConns()),
	)).OrFatal(e.Logger)
	defer db.Close()
	if *pSchemaRepo != "" {
		// restart when the database schema gets outdated.
		sctx, cancel := db.Schema().Context(ctx)
		defer cancel()
		ctx = sctx
	}

	if path := conf.Grafana(); path != "" {
		if _, err := grafana.Load(path); err != nil {
			e.Logger.Warnf("cannot load grafana config (panel urls are unavailable until fixed): %s", err)
		}
		if err := filewatch.OnModify(ctx, path, func(ev fsnotify.Event) {
			if err := grafana.Reload(path, ev.Op); err != nil {
				e.Logger.Warnf("cannot reload grafana config (%s), keeping the last one: %s", ev.Op, err)
				return
			}
			if _, ok := grafana.Current(); !ok {
				e.Logger.Warnf("grafana config is gone (%s)", ev.Op)
				return
			}
			e.Logger.Infof("grafana config is reloaded")
		}); err != nil {
			e.Logger.Fatalf("cannot watch grafana config: %s", err)
		}
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	sync := mandantsync.New(
		db.Object(), db.Mandant(), db.Association(),
		append(
			conf.Sync().Options(),
			mandantsync.WithLogger(e.Logger),
			mandantsync.WithObserver(metrics.NewSync(reg)),
		)...,
	)

	e.POST("/api/sync/mandants/", handlers.SyncMandantsHandler(ctx, sync, conf.Sync().Timeout()))
	e.GET(
		"/api/grafana/dashboards/:dashboard/panels/:panel/",
		handlers.GrafanaPanelHandler(grafana.Current, "dashboard", "panel"),
	)
	e.GET("/metrics/", echo.WrapHandler(promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg})))

	for _, r := range e.Routes() {
		e.Logger.Infof("route: %s %s", r.Method, r.Path)
	}

	if p := policy.Value(); p.Enabled() {
		e.Logger.Infof(`start background synchronization /w policy "%s"`, p)
		go func() {
			_, err := background.Run(ctx, sync, p, conf.Sync().Timeout(), e.Logger)
			if err != nil && !errors.Is(err, context.Canceled) {
				e.Logger.Errorf("background synchronization stopped: %s", err)
			}
		}()
	}

	go func() {
		<-ctx.Done()
		e.Logger.Infof("shutting down: %v", context.Cause(ctx))
		graceful, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := e.Shutdown(graceful); err != nil {
			e.Logger.Errorf("error on shutdown: %s", err)
		}
	}()

	if err := e.Start(fmt.Sprintf(":%d", conf.Server().Port())); err != nil && !errors.Is(err, http.ErrServerClosed) {
		e.Logger.Fatal(err)
	}
}
