// Package httpserver runs the HTTP listener with graceful shutdown and
// provides the liveness and readiness handlers.
//
//	srv := httpserver.New(cfg, httpserver.WithLogger(log))
//	if err := srv.Run(ctx, router); err != nil {
//		return err
//	}
//
// Run returns after ctx is cancelled or SIGINT/SIGTERM arrives and
// in-flight requests have drained (bounded by ShutdownTimeout).
package httpserver
