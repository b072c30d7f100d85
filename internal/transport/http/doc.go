// Package http implements the HTTP handlers of the report shell. Handlers
// stay thin: they parse the request, call a service and translate service
// errors into JSON error responses.
//
// # Routes
//
//	POST /api/reports                 queue a run (multipart "files" or JSON)
//	GET  /api/reports                 list known runs
//	GET  /api/reports/{id}            run status
//	GET  /api/reports/{id}/document   written report (?format=pdf for the PDF)
//	POST /api/simulate                one simulated session
//	GET  /healthz                     health check
//
// The router itself, including middleware order and the /ws and /metrics
// endpoints, is assembled by the app package.
package http
