// Package shutdown provides graceful shutdown for long-running commands.
//
// This package handles process termination:
//
//   - Signal handling (SIGINT, SIGTERM)
//   - Programmatic triggering on fatal errors
//   - Timeout-bounded cleanup hooks
//
// Usage:
//
//	h := shutdown.NewHandler(10 * time.Second)
//	h.OnShutdown(func(ctx context.Context) error { return watcher.Stop() })
//	return h.Wait()
package shutdown
