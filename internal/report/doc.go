// Package report renders per-interview summary PDFs for interviews whose
// quick QC verdict allows reporting. When report generation is permanently
// impossible the stage both gates the candidate and flips report_possible on
// the QC row so the reason is visible from either table.
package report
