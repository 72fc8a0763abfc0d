/*
Package grid implements the Grid/Panda batch driver. Grounded on the
original prun_driver.py: Panda (ATLAS' PanDA workload management
system) submission happens externally via pathena/prun tooling this
driver does not shell out to — CreateJob records the task id the
caller already obtained and writes an audit-only submission
descriptor, same two-file shape as the local/Slurm/HTCondor drivers
for consistency even though nothing execs it.

Status reconciliation queries Panda's monitoring HTTP API (the
original's pandatools.queryPandaMonUtils.query_tasks) for a batch of
jeditaskid values, grounded here on net/http plus encoding/json instead
of shelling out to a Python client library. The status table is a
direct port of the original's map_status. Stdout/Stderr retrieval in
the original drives rucio dataset downloads and tarball extraction —
external storage-system orchestration with no role in this capability
surface — so both return model.ErrNotImplemented here, matching the
original's own stderr() stub.
*/
package grid
