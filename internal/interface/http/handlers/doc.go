// Package handlers contains reusable HTTP pieces for the Learnify API:
// health checks and middleware.
//
// # Health Checks
//
// The HealthChecker interface allows registering multiple named health checks
// that are executed in parallel:
//
//	checker := handlers.NewCompositeHealthChecker("v0.1.0")
//	checker.AddCheck("database", handlers.NewPingCheck(conn))
//	checker.AddCheck("redis", handlers.NewPingCheck(cache))
//
// # Middleware
//
// API keys are stored as bcrypt hashes only:
//
//	auth, err := handlers.NewAPIKeyAuth("X-API-Key", hashes)
//	protected := auth.Middleware(myHandler)
//
//	handler := handlers.ChainHandler(
//	    protected,
//	    handlers.SecurityHeadersMiddleware,
//	    handlers.RequestSizeLimitMiddleware(64<<10),
//	)
package handlers
