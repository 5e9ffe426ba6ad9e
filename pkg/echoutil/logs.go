// Package echoutil holds helpers for echo servers.
package echoutil

import (
	"fmt"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/gommon/log"
)

// LogHandlerFunc logs each request and its response.
func LogHandlerFunc(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) (err error) {
		meth := c.Request().Method
		path := c.Request().URL
		begin := time.Now()
		c.Logger().Debugf("< request %s %s", meth, path)

		defer func() {
			c.Logger().Infof(
				"> response status = %d (for %s %s) in %v / error = %v",
				c.Response().Status, meth, path, time.Since(begin), err,
			)
		}()

		return next(c)
	}
}

// ParseLevel parses one of "debug", "info", "warn", "error" or "off".
//
// Empty string is "info".
func ParseLevel(loglevel string) (log.Lvl, error) {
	switch strings.ToLower(loglevel) {
	case "debug":
		return log.DEBUG, nil
	case "", "info":
		return log.INFO, nil
	case "warn":
		return log.WARN, nil
	case "error":
		return log.ERROR, nil
	case "off":
		return log.OFF, nil
	}
	return log.INFO, fmt.Errorf("unknown loglevel: %s (should be one of -- debug|info|warn|error|off)", loglevel)
}

// SetLevel sets loglevel to the logger of e.
//
// Unknown levels fall back to info with a warning.
func SetLevel(e *echo.Echo, loglevel string) {
	lvl, err := ParseLevel(loglevel)
	e.Logger.SetLevel(lvl)
	if err != nil {
		e.Logger.Warnf("%s. fall-backed to info", err)
	}
}
