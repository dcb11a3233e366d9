// Package daemon supervises the long-running pipeline process: one worker
// per stage, a cron-driven repair pass, and a lock file guaranteeing a single
// instance per log directory. Workers coordinate only through the ledger, so
// the daemon holds no pipeline state of its own.
package daemon
