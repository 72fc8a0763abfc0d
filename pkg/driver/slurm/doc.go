/*
Package slurm implements the Slurm batch driver on top of
pkg/driver/batchbase.Base: submission renders an sbatch script (the
strootman HTCondor launcher's text/template idiom, generalised to
Slurm's #SBATCH directive block) and the Backend primitives shell out
to sbatch/sacct/scancel, grounded the same way the launcher wraps
condor_submit/condor_rm in os/exec.

sacct output is parsed in its pipe-delimited (-p) form, one line per
batch job id queried. Status mapping treats any scheduler string
beginning "CANCELLED" as cancelled — sacct reports "CANCELLED by
<uid>" for operator-initiated cancellation, so exact-match comparison
silently drops those rows to UNKNOWN.
*/
package slurm
