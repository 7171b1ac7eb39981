package asset

import (
	"fmt"
	"io"
	"io/fs"
)

// ProgressFunc receives the number of bytes read so far and the total size.
// Total is 0 when the size is unknown.
type ProgressFunc func(loaded, total int64)

// ProgressReader reports progress on every Read.
type ProgressReader struct {
	R          io.Reader
	Total      int64
	OnProgress ProgressFunc

	loaded int64
}

// Read implements io.Reader.
func (p *ProgressReader) Read(b []byte) (int, error) {
	n, err := p.R.Read(b)
	if n > 0 {
		p.loaded += int64(n)
		if p.OnProgress != nil {
			p.OnProgress(p.loaded, p.Total)
		}
	}
	return n, err
}

// Loaded returns the bytes read so far.
func (p *ProgressReader) Loaded() int64 {
	return p.loaded
}

// Percent converts a progress report to a percentage. Unknown totals yield 0.
func Percent(loaded, total int64) float64 {
	if total <= 0 {
		return 0
	}
	return float64(loaded) / float64(total) * 100
}

// Open opens path in fsys and returns it with its size.
func Open(fsys fs.FS, path string) (fs.File, int64, error) {
	f, err := fsys.Open(path)
	if err != nil {
		return nil, 0, fmt.Errorf("open %s: %w", path, err)
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, 0, fmt.Errorf("stat %s: %w", path, err)
	}
	return f, info.Size(), nil
}
