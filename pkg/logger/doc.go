// Package logger builds the service's slog.Logger and names the attributes
// shared across packages.
//
//	log := logger.New(
//		logger.WithEnvironment(environment.Parse(cfg.Env), cfg.ServiceName),
//		logger.WithContextExtractors(requestid.LoggerExtractor()),
//	)
//	log.ErrorContext(ctx, "checkout failed", logger.UserID(id), logger.Error(err))
//
// Development logs are text at debug level; every other environment logs
// JSON at info level.
package logger
