/*
Package batchbase implements the shared logic every "submit one / query
many / cancel one" batch driver (Slurm, HTCondor, Grid) composes into
the full driver.Driver interface. A concrete driver embeds Base and
supplies a Backend; Base turns the three primitives into
create/submit/sync/kill/wait/resubmit/cleanup/remove, including every
bulk variant, the all-or-nothing precondition checks, and the
transactional write discipline spec.md §4.1/§4.2 require.

The poll loop (Wait/wait_gen) is grounded on the pack's ticker-based
monitor-loop shape (cuemby-warren's pkg/worker/health_monitor.go and
pkg/reconciler's cancellable run loop) and rate-limits outbound back-end
queries with golang.org/x/time/rate — one token per poll interval,
burst 1 — the same throttling idiom ternarybob/quaero's crawler uses
for outbound HTTP.
*/
package batchbase
