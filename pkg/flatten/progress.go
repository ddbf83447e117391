package flatten

import (
	"io"
	"time"
)

// Progress reporting thresholds
const (
	progressReportInterval = 50 * time.Millisecond // Minimum time between progress reports
	progressReportBytes    = 64 * 1024             // Minimum bytes between reports (64KB)
)

// progressReader wraps an io.Reader to report bytes read so far
type progressReader struct {
	reader         io.Reader
	read           int64
	lastReported   int64
	lastReportTime time.Time
	onProgress     func(bytesRead int64)
}

func newProgressReader(r io.Reader, onProgress func(int64)) *progressReader {
	return &progressReader{
		reader:         r,
		lastReportTime: time.Now(),
		onProgress:     onProgress,
	}
}

func (pr *progressReader) Read(p []byte) (int, error) {
	n, err := pr.reader.Read(p)
	if n > 0 {
		pr.read += int64(n)
	}

	if pr.onProgress == nil || pr.read == pr.lastReported {
		return n, err
	}

	// Report on the byte or time threshold, and always on the final read
	if pr.read-pr.lastReported >= progressReportBytes ||
		time.Since(pr.lastReportTime) >= progressReportInterval ||
		err != nil {
		pr.onProgress(pr.read)
		pr.lastReported = pr.read
		pr.lastReportTime = time.Now()
	}

	return n, err
}
