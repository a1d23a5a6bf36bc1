package store

import (
	"context"
	"io"
	"io/ioutil"
	"os"
	"path/filepath"

	log "github.com/sirupsen/logrus"
)

// Create a fixed dir in tmp.
func MakeFileStoreInTemp() (*FileStore, error) {
	dir, err := ioutil.TempDir("", "artifacts")
	if err != nil {
		return nil, err
	}
	return MakeFileStore(dir)
}

func MakeFileStore(dir string) (*FileStore, error) {
	log.Infof("Making new FileStore at dir: %s", dir)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}
	return &FileStore{dir}, nil
}

type FileStore struct {
	dir string
}

func (s *FileStore) path(name string) (string, error) {
	clean, err := checkName(name)
	if err != nil {
		return "", err
	}
	return filepath.Join(s.dir, filepath.FromSlash(clean)), nil
}

func (s *FileStore) OpenForRead(ctx context.Context, name string) (*Resource, error) {
	p, err := s.path(name)
	if err != nil {
		return nil, err
	}
	r, err := os.Open(p)
	if err != nil {
		return nil, err
	}
	fi, err := r.Stat()
	if err != nil {
		r.Close()
		return nil, err
	}
	return NewResource(r, fi.Size()), nil
}

func (s *FileStore) Exists(ctx context.Context, name string) (bool, error) {
	p, err := s.path(name)
	if err != nil {
		return false, err
	}
	_, err = os.Stat(p)
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, err
}

// Write goes through a temp file in the destination dir so readers never see a partial artifact.
func (s *FileStore) Write(ctx context.Context, name string, r io.Reader, size int64) error {
	p, err := s.path(name)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(p), 0755); err != nil {
		return err
	}
	log.Debugf("Writing %s to %s", name, p)
	f, err := ioutil.TempFile(filepath.Dir(p), ".tmp-"+filepath.Base(p))
	if err != nil {
		return err
	}
	defer os.Remove(f.Name())

	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	return os.Rename(f.Name(), p)
}

func (s *FileStore) Root() string {
	return s.dir
}
