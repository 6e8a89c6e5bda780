// Package main hosts the LeadForge service entrypoint.
//
// Architecture overview:
//   - HTTP API: internal/api.Server exposes health, metrics, and the /api
//     routes. CSV uploads are parsed through internal/ingest using the
//     process-wide column mapping, replace the business store wholesale, and
//     are optionally archived as raw blobs.
//   - Business store: internal/store holds the current dataset behind the
//     lead.Store interface (in-memory by default, Postgres when a DSN is
//     configured). Records are addressable both by UUID and by upload
//     position, which the batch endpoints use.
//   - Enrichment pipeline: internal/enrich runs website identification
//     sequentially per request. Discovery queries Google Programmable Search
//     with a ladder of query templates and filters out documents, social
//     profiles, directories, and restricted domains; verification fetches the
//     candidate with a Colly collector using browser-like headers and rejects
//     blocked or captcha-gated pages. Confirmed websites are written back to
//     the store and announced on Pub/Sub when a topic is configured.
//   - Email drafting: internal/email renders the consultation prompt and
//     calls the Gemini generateContent API.
//   - Configuration & plumbing: Viper populates config from env/files (legacy
//     GOOGLE_API_KEY, GOOGLE_SEARCH_ENGINE_ID, and GEMINI_API_KEY names keep
//     working); zap provides structured logging; Prometheus metrics are
//     exported via the telemetry middleware and the /metrics handler.
//
// Operational notes:
//   - Concurrency model: the HTTP layer is concurrent, but enrichment paces
//     discovery attempts through a rate limiter so the search quota survives
//     batch requests. Shutdown is coordinated via context cancellation.
//   - The service listens on the configured port (overridable via PORT) and
//     reacts to SIGTERM for graceful drain, so it fits Cloud Run style
//     deployments.
//
// Run locally: go run ./cmd/leadforge -config config.yaml (or rely solely on
// env overrides; a .env file is picked up when present).
package main
