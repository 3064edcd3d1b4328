/*
Package api serves the watchdog's optional HTTP endpoints.

The server is started only when a metrics address is configured:

	GET /health   liveness, always 200 while the process runs
	GET /ready    200 once the last reconciliation tick listed containers
	GET /metrics  Prometheus metrics

Example:

	hs := api.NewHealthServer(rec)
	if err := hs.Serve(ctx, ":9090"); err != nil {
		return err
	}
*/
package api
