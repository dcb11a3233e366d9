// Package repair implements the backward half of self-healing: periodic
// sweeps that purge completion records whose on-disk artifact has vanished,
// so the owning stage regenerates them on its next poll. Purges go through
// the per-stage healers and are inert when self-heal is disabled.
package repair
