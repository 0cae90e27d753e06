package romloader

import (
	"archive/tar"
	"bytes"
	"fmt"
	"io"
	"path/filepath"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/ulikunitz/xz"
)

// A tarball may carry more than the image itself.
const maxStreamSize = 4 * maxROMSize

// extractFromStream decompresses a single-stream file. The payload is either
// the image itself or a tar holding it.
func extractFromStream(r io.Reader, format formatType, name string) (ROM, error) {
	var dr io.Reader
	switch format {
	case formatGzip:
		gz, err := gzip.NewReader(r)
		if err != nil {
			return ROM{}, fmt.Errorf("failed to open gzip: %w", err)
		}
		defer gz.Close()
		dr = gz
	case formatXZ:
		xr, err := xz.NewReader(r)
		if err != nil {
			return ROM{}, fmt.Errorf("failed to open xz: %w", err)
		}
		dr = xr
	case formatZstd:
		zr, err := zstd.NewReader(r)
		if err != nil {
			return ROM{}, fmt.Errorf("failed to open zstd: %w", err)
		}
		defer zr.Close()
		dr = zr
	default:
		return ROM{}, fmt.Errorf("%w: %s stream", ErrUnsupportedFormat, format)
	}

	data, err := io.ReadAll(io.LimitReader(dr, maxStreamSize+1))
	if err != nil {
		return ROM{}, fmt.Errorf("failed to decompress %s: %w", format, err)
	}
	if len(data) > maxStreamSize {
		return ROM{}, ErrFileTooLarge
	}

	if isTar(data) {
		return extractFromTar(bytes.NewReader(data))
	}
	if len(data) > maxROMSize {
		return ROM{}, ErrFileTooLarge
	}
	return ROM{Data: data, Name: name}, nil
}

// isTar checks for the ustar magic in the first header block.
func isTar(data []byte) bool {
	const magicOffset = 257
	return len(data) >= magicOffset+5 && string(data[magicOffset:magicOffset+5]) == "ustar"
}

// extractFromTar extracts the first ROM file from a tar stream
func extractFromTar(r io.Reader) (ROM, error) {
	tr := tar.NewReader(r)
	for {
		header, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return ROM{}, fmt.Errorf("failed to read tar entry: %w", err)
		}
		if header.Typeflag != tar.TypeReg || !isROMFile(header.Name) {
			continue
		}
		data, err := limitedRead(tr)
		if err != nil {
			return ROM{}, fmt.Errorf("failed to read %s: %w", header.Name, err)
		}
		return ROM{Data: data, Name: filepath.Base(header.Name)}, nil
	}
	return ROM{}, ErrNoROMFile
}
