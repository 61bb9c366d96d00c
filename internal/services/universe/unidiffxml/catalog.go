package unidiffxml

import (
	"io/fs"
	"log"
	"path"
	"strings"

	"github.com/louisbranch/starpatch/internal/services/universe/domain/diff"
)

// LoadCatalog indexes every *.xml document under root in fsys by the name in
// its header. Documents are parsed in full only when the catalog first needs
// them. Unreadable headers and duplicate names are logged and skipped; the
// first document providing a name wins.
func LoadCatalog(fsys fs.FS, root string, cat *diff.Catalog, logger *log.Logger) (int, error) {
	if logger == nil {
		logger = log.Default()
	}
	added := 0
	err := fs.WalkDir(fsys, root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.EqualFold(path.Ext(p), ".xml") {
			return nil
		}
		name, err := readHeaderFile(fsys, p)
		if err != nil {
			logger.Printf("unidiff catalog: %s: %v", p, err)
			return nil
		}
		source := p
		loader := func() (*diff.Definition, error) {
			f, err := fsys.Open(source)
			if err != nil {
				return nil, err
			}
			defer f.Close()
			return Parse(f, source, logger)
		}
		if err := cat.Add(name, source, loader); err != nil {
			logger.Printf("unidiff catalog: %v", err)
			return nil
		}
		added++
		return nil
	})
	if err != nil {
		return added, err
	}
	logger.Printf("unidiff catalog: loaded %d diff(s) from %s", added, root)
	return added, nil
}

func readHeaderFile(fsys fs.FS, p string) (string, error) {
	f, err := fsys.Open(p)
	if err != nil {
		return "", err
	}
	defer f.Close()
	return ReadHeader(f)
}
