package save

import (
	"os"
	"sync"
	"sync/atomic"
)

// Blob is a staged temporary copy of an in-memory payload.
//
// The file lives until Release is called; Release removes it on the first
// call and does nothing afterwards.
type Blob struct {
	path     string
	size     int64
	once     sync.Once
	releases atomic.Int32
}

// Stage writes data to a new temporary file in dir. An empty dir uses the
// default temporary directory.
func Stage(dir string, data []byte) (*Blob, error) {
	file, err := os.CreateTemp(dir, "bulkdl-*.blob")
	if err != nil {
		return nil, err
	}

	if _, err := file.Write(data); err != nil {
		file.Close()
		os.Remove(file.Name())
		return nil, err
	}
	if err := file.Close(); err != nil {
		os.Remove(file.Name())
		return nil, err
	}

	return &Blob{path: file.Name(), size: int64(len(data))}, nil
}

// Path returns the location of the staged file.
func (b *Blob) Path() string {
	return b.path
}

// Size returns the payload size in bytes.
func (b *Blob) Size() int64 {
	return b.size
}

// Release removes the staged file. Only the first call has an effect.
func (b *Blob) Release() error {
	var err error
	b.once.Do(func() {
		b.releases.Add(1)
		if removeErr := os.Remove(b.path); removeErr != nil && !os.IsNotExist(removeErr) {
			err = removeErr
		}
	})
	return err
}

// Released reports whether Release has run.
func (b *Blob) Released() bool {
	return b.releases.Load() > 0
}
