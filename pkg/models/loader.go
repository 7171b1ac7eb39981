package models

import (
	"fmt"
	"io/fs"
	"path"
	"strings"

	"github.com/taigrr/stlview/pkg/asset"
)

// Loader reads model files from a filesystem on a background goroutine.
type Loader struct {
	FS         fs.FS
	OnProgress asset.ProgressFunc
}

// Load starts loading the model at p (slash separated, relative to FS).
// The decoder is chosen by extension.
func (l *Loader) Load(p string) *asset.Future[*Geometry] {
	return asset.Go(func() (*Geometry, error) {
		return l.load(p)
	})
}

func (l *Loader) load(p string) (*Geometry, error) {
	ext := strings.ToLower(path.Ext(p))
	switch ext {
	case ".stl", ".glb":
	default:
		return nil, fmt.Errorf("unsupported format: %s (use .stl or .glb)", ext)
	}

	f, size, err := asset.Open(l.FS, p)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := &asset.ProgressReader{R: f, Total: size, OnProgress: l.OnProgress}
	name := path.Base(p)

	if ext == ".glb" {
		return DecodeGLB(r, name)
	}
	return DecodeSTL(r, name)
}
