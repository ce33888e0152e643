package assets

import (
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"slices"

	"github.com/klauspost/compress/gzip"
	"github.com/rs/zerolog/log"
)

var compressible = []string{".js", ".css", ".html", ".map", ".json", ".svg"}

// precompress writes a .gz sibling for every compressible file under dir.
func precompress(dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !slices.Contains(compressible, filepath.Ext(path)) {
			return nil
		}

		if err := gzipFile(path); err != nil {
			return err
		}

		log.Debug().Str("file", path+".gz").Msg("Compressed file")
		return nil
	})
}

func gzipFile(path string) error {
	src, err := os.Open(path)
	if err != nil {
		return err
	}
	defer src.Close()

	dst, err := os.OpenFile(path+".gz", os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o600)
	if err != nil {
		return err
	}
	defer dst.Close()

	zw, err := gzip.NewWriterLevel(dst, gzip.BestCompression)
	if err != nil {
		return err
	}
	zw.Name = filepath.Base(path)

	if _, err := io.Copy(zw, src); err != nil {
		return err
	}
	if err := zw.Close(); err != nil {
		return err
	}
	return dst.Close()
}
