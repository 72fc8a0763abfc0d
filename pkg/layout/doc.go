/*
Package layout computes and materialises the on-disk footprint of a
job: its sharded log and output directories, the rendered submission
scripts placed inside them, and the KONG_* environment contract every
job script exports regardless of which driver ran it.

Sharding keeps any one directory from acquiring an unbounded number of
entries as job ids grow:

	<jobdir>/<id/10000 % 100, 2-digit>/<id/100 % 100, 2-digit>/<id, 6-digit>/
	  jobscript.sh      - local/slurm/htcondor: the KONG_* env + payload command
	  batchfile.sh      - batch drivers only: scheduler resource declaration
	                      (grid: an informational task descriptor)
	  stdout.txt        - local/slurm/htcondor (htcondor merges stderr here)
	  stderr.txt        - local/slurm
	  exit_status.txt   - local/slurm/htcondor
	  slurm_out.txt     - slurm driver only

Templates are rendered with text/template, following the submission-file
generation style used throughout the pack's HTCondor launcher (fixed
template strings executed once per job, never reparsed per call site).
*/
package layout
