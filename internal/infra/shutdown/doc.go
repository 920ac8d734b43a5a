// Package shutdown provides graceful shutdown for opslab-server.
//
// A Handler waits for SIGINT/SIGTERM (or an explicit Trigger), then runs the
// registered hooks newest-first under a shared deadline:
//
//	h := shutdown.NewHandler(15*time.Second, log)
//	h.OnShutdown("http server", srv.Shutdown)
//	err := h.Wait(ctx)
package shutdown
