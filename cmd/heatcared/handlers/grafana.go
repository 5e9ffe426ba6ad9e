package handlers

import (
	"errors"
	"net/http"

	apierr "github.com/heatcare/heatcare/pkg/api/types/errors"
	apigrafana "github.com/heatcare/heatcare/pkg/api/types/grafana"
	"github.com/heatcare/heatcare/pkg/grafana"
	"github.com/labstack/echo/v4"
)

// GrafanaPanelHandler responds the URL of a Grafana panel.
//
// # Args
//
// - current: returns Grafana config in use. When it returns false, the handler responds 503.
//
// - dashboardParam, panelParam: path parameter names of dashboard and panel.
//
// Query parameters "object", "mandant", "from", "to" and "theme" are passed to grafana.Resolve .
func GrafanaPanelHandler(
	current func() (grafana.Config, bool),
	dashboardParam string,
	panelParam string,
) echo.HandlerFunc {
	return func(c echo.Context) error {
		conf, ok := current()
		if !ok {
			return apierr.ServiceUnavailable("grafana is not configured.", nil)
		}

		url, err := grafana.Resolve(
			grafana.Params{
				Dashboard: c.Param(dashboardParam),
				Panel:     c.Param(panelParam),
				Object:    c.QueryParam("object"),
				Mandant:   c.QueryParam("mandant"),
				From:      c.QueryParam("from"),
				To:        c.QueryParam("to"),
				Theme:     c.QueryParam("theme"),
			},
			conf,
		)
		if errors.Is(err, grafana.ErrUnknownDashboard) {
			return apierr.NotFound("dashboard is not found", err)
		} else if errors.Is(err, grafana.ErrUnknownPanel) {
			return apierr.NotFound("panel is not found", err)
		} else if err != nil {
			return apierr.InternalServerError(err)
		}

		return c.JSON(http.StatusOK, apigrafana.PanelUrl{Url: url})
	}
}
