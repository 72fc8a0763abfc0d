/*
Package local implements the local-process driver: jobs run as child
processes of the current host, tracked by PID. Grounded on the pack's
worker/container lifecycle idiom (cuemby-warren's pkg/worker.go
PID-tracking map guarded by a mutex) generalised from a containerd
client to os/exec plus direct signalling of the job's PID — the same
"hide the runtime behind a small interface, never shell out from
business logic directly" shape warren uses for containerd.

Submission renders a templated shell script (text/template, the same
library the pack's HTCondor submission-file generator uses) that
exports the KONG_* environment contract, redirects stdout/stderr,
traps signals, and records the payload's exit code to
exit_status.txt.
*/
package local
