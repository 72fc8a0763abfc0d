/*
Package metrics exposes Prometheus counters and histograms for
job-lifecycle observability (github.com/prometheus/client_golang). No
HTTP scrape endpoint is wired up here — the process has no
network-accessible API — but the metrics remain valid
prometheus.Collectors an embedding application can register with its
own registry/handler. The package tests exercise the Timer helpers
against histograms they construct themselves.

# Metrics

  - kong_jobs_total{status}: current job count by status
  - kong_folders_total: current folder count
  - kong_bulk_operation_duration_seconds{driver,op}: bulk op latency
  - kong_driver_backend_calls_total{driver,op}: outbound back-end calls
  - kong_driver_backend_errors_total{driver,op}: failed back-end calls
  - kong_wait_rounds_total{driver}: poll rounds executed by Wait loops
*/
package metrics
