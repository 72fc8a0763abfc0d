/*
Package htcondor implements the HTCondor batch driver on top of
pkg/driver/batchbase.Base. Grounded on the original Python driver's
ShellHTCondorInterface (condor_submit/-q/-history/-rm behind a small
interface, status codes per
http://pages.cs.wisc.edu/~adesmet/status.html) and on the pack's
condor launcher (other_examples' strootman-condor-launcher, which
shells out to the same four binaries via os/exec and parses
condor_submit's "... N." cluster-id line with a regexp) and
matyasselmeci-golang-htcondor (schedd JSON-attribute shape).

Submission-file rendering again uses text/template, same as the local
and Slurm drivers. HTCondor writes a single shared user log across
every job (self-imposed by the scheduler, not a Kong choice); reading
it past ~50MB risks missing finished-but-unsynced jobs, so construction
warns once the file crosses that size. The vanilla universe this
driver targets redirects stdout and stderr to the same file, so Stderr
returns model.ErrNotImplemented — there is nothing to separate.
*/
package htcondor
