// Package assets embeds static files served by the dashboard.
package assets

import _ "embed"

// DashboardHTML is the single-page dashboard served at "/".
//
//go:embed dashboard.html
var DashboardHTML []byte
