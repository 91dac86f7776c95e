// Package http serves navigation pages and the admin endpoints that keep
// the page tree and fragment cache in shape.
//
// Pages are rendered by SiteHandler, a fiber handler that resolves the
// site, language and page of a request path. AdminAPI mounts under
// /admin/api on a net/http mux:
//   - Pages: GET /pages, GET /pages/{id}, POST /pages/{id}/move
//   - Tree: POST /sites/{id}/tree/rebuild
//   - Cache: POST /cache/invalidate
package http
