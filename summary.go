package exportsync

// Summary holds the outcome of a run.
type Summary struct {
	Candidates     int
	Downloaded     int
	Skipped        int
	Uploaded       int
	UploadFailed   int
	DownloadFailed int
	Rejected       int

	// DryRun is set when uploads were only reported.
	DryRun bool

	// Failures lists every per-candidate error in the order it occurred.
	Failures []error
}

// ProgressType indicates the type of progress event.
type ProgressType int

const (
	ProgressSelected ProgressType = iota
	ProgressRejected
	ProgressSkipped
	ProgressDownloaded
	ProgressDownloadFailed
	ProgressUploaded
	ProgressUploadFailed
)

// String returns a short label for the event type.
func (t ProgressType) String() string {
	switch t {
	case ProgressSelected:
		return "select"
	case ProgressRejected:
		return "reject"
	case ProgressSkipped:
		return "skip"
	case ProgressDownloaded:
		return "download"
	case ProgressDownloadFailed:
		return "download failed"
	case ProgressUploaded:
		return "upload"
	case ProgressUploadFailed:
		return "upload failed"
	}
	return "unknown"
}

// Progress reports a step taken for one link during a run.
type Progress struct {
	Type ProgressType

	// URL is the link being processed. Candidate is nil for rejections and
	// for ProgressSelected, which only carries Total.
	URL       string
	Candidate *Candidate

	// Dest is the upload destination for upload events.
	Dest string

	// Bytes written for ProgressDownloaded.
	Bytes int64

	Completed int
	Total     int
	Error     error
}

// ProgressFunc is called as links are processed.
type ProgressFunc func(Progress)
