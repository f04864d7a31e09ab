// Package api hosts the read-only HTTP surface over the normalized catalog.
// Routes:
//   - GET /api/games and /api/game/{name} for canonical games.
//   - GET /api/genres and /api/genre/{name} for canonical genres.
//   - GET /healthz for liveness probes.
//   - GET /metrics for Prometheus scraping.
package api
