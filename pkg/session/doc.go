/*
Package session implements the orchestration Session: the single
struct that holds the store, the default driver, the registry of
every configured driver, and the cwd folder a shell builds its
ls/mkdir/cd/mv/rm/submit/kill/resubmit/wait/refresh commands against.

Grounded on Warren's pkg/manager.Manager, which is constructed once
(NewManager(cfg)) and holds every subsystem it needs as a field rather
than reaching for package-level globals; Session follows the same
shape minus the subsystems (raft, grpc, dns, ingress) that have no
role in a single-user local process.
*/
package session
