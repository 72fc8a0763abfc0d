/*
Package log provides structured logging using zerolog.

The log package wraps zerolog to provide JSON-structured logging with
context-specific child loggers, a configurable level/output, and
helper functions for common logging patterns. All logs include
timestamps and support filtering by severity level.

# Architecture

	┌──────────────────── LOGGING SYSTEM ──────────────────────┐
	│                                                            │
	│  ┌────────────────────────────────────────────┐          │
	│  │            Global Logger                    │          │
	│  │  - Zerolog instance                         │          │
	│  │  - Initialized via log.Init()               │          │
	│  │  - Thread-safe for concurrent use           │          │
	│  └──────────────────┬─────────────────────────┘          │
	│                     │                                      │
	│  ┌──────────────────▼─────────────────────────┐          │
	│  │           Configuration                     │          │
	│  │  - Level: debug/info/warn/error             │          │
	│  │  - Format: JSON or console (human)          │          │
	│  │  - Output: stdout, file, or custom writer   │          │
	│  └──────────────────┬─────────────────────────┘          │
	│                     │                                      │
	│  ┌──────────────────▼─────────────────────────┐          │
	│  │         Context Loggers                     │          │
	│  │  - WithComponent("batchbase")                │          │
	│  │  - WithDriver("kong.driver.slurm")           │          │
	│  │  - WithJobID(12345)                          │          │
	│  │  - WithFolderID(7)                           │          │
	│  └──────────────────┬─────────────────────────┘          │
	│                     │                                      │
	│  ┌──────────────────▼─────────────────────────┐          │
	│  │            Log Output                       │          │
	│  │  {"level":"info","driver":"kong.driver.local", │        │
	│  │   "job_id":12345,"time":"...","message":"submitted"} │  │
	│  └────────────────────────────────────────────┘           │
	└────────────────────────────────────────────────────────┘

# Usage

	log.Init(log.Config{Level: log.InfoLevel, JSONOutput: true, Output: os.Stdout})

	log.Info("store opened")
	log.Logger.Error().Err(err).Int64("job_id", job.ID).Msg("submit failed")

	driverLog := log.WithDriver(d.Tag())
	driverLog.Info().Int("count", len(jobs)).Msg("bulk submit")

# Integration Points

  - pkg/driver/batchbase: warns on failed cancels, best-effort kills and cleanup errors
  - pkg/driver/local: warns on failed kills, cleanup errors and child handle release
  - pkg/driver/htcondor: warns when the shared user log grows large
  - pkg/session: logs folder creation
  - pkg/notify: the Console notifier logs wait completion
*/
package log
