// Command shuttle is the operator CLI for the interview pipeline: ledger
// status and audit inspection, gate management, manual repair passes, and a
// foreground daemon runner.
package main
