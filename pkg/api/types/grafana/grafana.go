// Package grafana defines payloads of Grafana APIs.
package grafana

// PanelUrl is the response of GET /api/grafana/dashboards/:dashboard/panels/:panel/ .
type PanelUrl struct {
	Url string `json:"url"`
}
