package romloader

import (
	"fmt"
	"io"
	"path/filepath"

	"github.com/bodgit/sevenzip"
	"github.com/klauspost/compress/zip"
	"github.com/nwaples/rardecode/v2"
)

// extractFromZIP extracts the first ROM file from a ZIP archive
func extractFromZIP(r io.ReaderAt, size int64) (ROM, error) {
	zr, err := zip.NewReader(r, size)
	if err != nil {
		return ROM{}, fmt.Errorf("failed to open zip: %w", err)
	}

	for _, f := range zr.File {
		if f.FileInfo().IsDir() || !isROMFile(f.Name) {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return ROM{}, fmt.Errorf("failed to open %s in zip: %w", f.Name, err)
		}
		data, err := limitedRead(rc)
		rc.Close()
		if err != nil {
			return ROM{}, fmt.Errorf("failed to read %s: %w", f.Name, err)
		}
		return ROM{Data: data, Name: filepath.Base(f.Name)}, nil
	}

	return ROM{}, ErrNoROMFile
}

// extractFrom7z extracts the first ROM file from a 7z archive
func extractFrom7z(r io.ReaderAt, size int64) (ROM, error) {
	sz, err := sevenzip.NewReader(r, size)
	if err != nil {
		return ROM{}, fmt.Errorf("failed to open 7z: %w", err)
	}

	for _, f := range sz.File {
		if f.FileInfo().IsDir() || !isROMFile(f.Name) {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return ROM{}, fmt.Errorf("failed to open %s in 7z: %w", f.Name, err)
		}
		data, err := limitedRead(rc)
		rc.Close()
		if err != nil {
			return ROM{}, fmt.Errorf("failed to read %s: %w", f.Name, err)
		}
		return ROM{Data: data, Name: filepath.Base(f.Name)}, nil
	}

	return ROM{}, ErrNoROMFile
}

// extractFromRAR extracts the first ROM file from a RAR archive
func extractFromRAR(r io.Reader) (ROM, error) {
	rr, err := rardecode.NewReader(r)
	if err != nil {
		return ROM{}, fmt.Errorf("failed to open rar: %w", err)
	}

	for {
		header, err := rr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return ROM{}, fmt.Errorf("failed to read rar entry: %w", err)
		}

		if header.IsDir || !isROMFile(header.Name) {
			continue
		}

		data, err := limitedRead(rr)
		if err != nil {
			return ROM{}, fmt.Errorf("failed to read %s: %w", header.Name, err)
		}
		return ROM{Data: data, Name: filepath.Base(header.Name)}, nil
	}

	return ROM{}, ErrNoROMFile
}
