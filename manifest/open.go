package manifest

import (
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"github.com/spf13/afero"
)

// Open parses the manifest at p. "-" reads standard input.
func Open(fs afero.Fs, p string) (*Manifest, error) {
	if p == "-" {
		return Parse(os.Stdin, "stdin")
	}
	f, err := fs.Open(p)
	if err != nil {
		return nil, errors.Wrap(err, "opening manifest")
	}
	defer f.Close()
	return Parse(f, filepath.Base(p))
}

// Save writes m to p, replacing any existing file.
func Save(fs afero.Fs, p string, m *Manifest) error {
	f, err := fs.Create(p)
	if err != nil {
		return errors.Wrap(err, "creating manifest")
	}
	if _, err = m.WriteTo(f); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}
