// Package services implements the core application logic: the store
// registry, the handle cache, document selection, query orchestration,
// citation extraction, and response formatting.
package services
