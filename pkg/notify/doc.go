/*
Package notify defines the Notifier collaborator the session invokes
after a wait completes or times out. Dispatch to a real chat/email
provider is out of scope (see SPEC_FULL.md §1's non-goals); this
package carries only the interface plus a console implementation that
logs via pkg/log, grounded on Warren's pattern of keeping external
collaborators behind small interfaces the core calls without knowing
the concrete implementation (see pkg/worker's runtime.ContainerdRuntime
seam).
*/
package notify
