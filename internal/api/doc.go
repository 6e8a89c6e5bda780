// Package api hosts the HTTP server, middleware, and REST handlers for the
// lead generation workflow. Notable routes:
//   - GET /healthz / readyz for Kubernetes probes.
//   - GET /metrics for Prometheus scraping.
//   - POST /api/upload for CSV ingestion with column mapping.
//   - GET /api/businesses for filtered, paginated listing.
//   - GET /api/businesses/{id}/website and POST /api/businesses/websites for
//     website discovery, POST /api/generate_email for outreach drafting.
package api
