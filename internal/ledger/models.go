package ledger

import "time"

// Stage names used as gating discriminators and audit module labels.
const (
	StageMetadata = "metadata"
	StageVideoQC  = "video_qc"
	StageReport   = "report"
)

// InterviewFile is an upstream row describing one transferred recording.
type InterviewFile struct {
	FilePath      string
	InterviewName string
	StudyID       string
	InterviewType string
	TransferredAt time.Time
}

// ProbeRecord is the metadata stage's completion record for one file.
type ProbeRecord struct {
	SourcePath      string
	InterviewName   string
	StudyID         string
	FormatName      string
	DurationSeconds float64
	SizeBytes       int64
	VideoStreams    int
	AudioStreams    int
	Width           int
	Height          int
	RawJSON         string
	ProbedAt        time.Time
}

// QCRecord is the video quick-QC stage's completion record for one file.
type QCRecord struct {
	SourcePath     string
	InterviewName  string
	StudyID        string
	Passed         bool
	ReportPossible bool
	Notes          string
	CheckedAt      time.Time
}

// ReportRecord is the report stage's completion record for one interview.
type ReportRecord struct {
	InterviewName string
	StudyID       string
	SourcePath    string
	ReportPath    string
	GeneratedAt   time.Time
}

// Exclusion is a gating marker that keeps a candidate out of eligibility.
type Exclusion struct {
	Stage        string
	CandidateKey string
	Reason       string
	CreatedAt    time.Time
}

// LogEntry is one audit row written by worker sweeps and repair passes.
type LogEntry struct {
	ID       int64
	Module   string
	Message  string
	LoggedAt time.Time
}

// StageCounts aggregates per-stage ledger totals for status output.
type StageCounts struct {
	Studies        int
	InterviewFiles int
	Probed         int
	Checked        int
	Reports        int
	Exclusions     int
}
