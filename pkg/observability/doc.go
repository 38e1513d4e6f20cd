/*
Package observability turns planner lifecycle hooks into metrics and logs.

	metrics := observability.NewMetrics(prometheus.DefaultRegisterer)
	hooks := observability.Combine(metrics.Hooks(), observability.LogHooks(logger))
	eng, err := trialset.New("experiment.yaml", trialset.WithHooks(hooks))

Metrics are exposed with promhttp by the HTTP adapter under /metrics.
*/
package observability
