package report

import (
	"fmt"
	"time"

	"github.com/go-pdf/fpdf"

	"shuttle/internal/ledger"
)

// render writes a single-page summary PDF for one interview.
func render(path string, probe *ledger.ProbeRecord, qc *ledger.QCRecord) error {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetTitle("Interview Summary: "+probe.InterviewName, false)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 16)
	pdf.CellFormat(0, 10, "Interview Summary", "", 1, "C", false, 0, "")
	pdf.SetFont("Helvetica", "", 11)
	pdf.CellFormat(0, 7, probe.InterviewName, "", 1, "C", false, 0, "")
	pdf.Ln(6)

	verdict := "FAILED"
	if qc.Passed {
		verdict = "PASSED"
	}

	rows := [][2]string{
		{"Study", probe.StudyID},
		{"Source file", probe.SourcePath},
		{"Container", probe.FormatName},
		{"Duration", fmt.Sprintf("%.1f s", probe.DurationSeconds)},
		{"Size", fmt.Sprintf("%d bytes", probe.SizeBytes)},
		{"Video streams", fmt.Sprintf("%d", probe.VideoStreams)},
		{"Audio streams", fmt.Sprintf("%d", probe.AudioStreams)},
		{"Resolution", fmt.Sprintf("%dx%d", probe.Width, probe.Height)},
		{"QC verdict", verdict},
	}
	if qc.Notes != "" {
		rows = append(rows, [2]string{"QC notes", qc.Notes})
	}

	pdf.SetFont("Helvetica", "", 10)
	for _, row := range rows {
		pdf.SetFont("Helvetica", "B", 10)
		pdf.CellFormat(45, 8, row[0], "1", 0, "L", false, 0, "")
		pdf.SetFont("Helvetica", "", 10)
		pdf.MultiCell(0, 8, row[1], "1", "L", false)
	}

	pdf.Ln(8)
	pdf.SetFont("Helvetica", "I", 8)
	pdf.CellFormat(0, 5, "Generated "+time.Now().UTC().Format(time.RFC3339), "", 1, "L", false, 0, "")

	return pdf.OutputFileAndClose(path)
}
