// Package http implements the local license API served by
// "vocanote-license serve". Handlers stay thin: they decode and validate the
// request, call the license service and render JSON.
//
// # Routes
//
//	GET  /healthz
//	GET  /metrics                      (when telemetry metrics are enabled)
//	GET  /api/license/status
//	GET  /api/license/limit
//	GET  /api/license/activation-code
//	POST /api/license/activate         {"license_key": "..."}
//	POST /api/license/deactivate
//
// Activation answers only {"success": bool} plus the new status. The reason
// a key was refused stays in the server log.
//
// # Error Handling
//
// Malformed requests, rate limiting, unknown routes and panics are answered
// with RFC 7807 problem documents:
//
//	{
//	    "type": "/errors/validation",
//	    "title": "Bad Request",
//	    "status": 400,
//	    "detail": "Request validation failed",
//	    "instance": "/api/license/activate",
//	    "trace_id": "..."
//	}
//
// # Middleware
//
// Every request passes RequestID, optional OpenTelemetry instrumentation,
// StructuredLogger, Recoverer and SecurityHeaders. Activation is additionally
// rate limited.
package http
