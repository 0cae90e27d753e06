// Package romloader handles loading ROM files from various sources,
// including compressed archives (ZIP, 7z, RAR) and compressed streams
// (gzip, xz, zstd, optionally wrapping a tar).
package romloader

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
)

// Magic bytes for format detection
var (
	magicZIP    = []byte{0x50, 0x4B, 0x03, 0x04}
	magicZIPEnd = []byte{0x50, 0x4B, 0x05, 0x06} // empty zip
	magic7z     = []byte{0x37, 0x7A, 0xBC, 0xAF, 0x27, 0x1C}
	magicGzip   = []byte{0x1F, 0x8B}
	magicRAR    = []byte{0x52, 0x61, 0x72, 0x21} // "Rar!"
	magicXZ     = []byte{0xFD, 0x37, 0x7A, 0x58, 0x5A, 0x00}
	magicZstd   = []byte{0x28, 0xB5, 0x2F, 0xFD}
)

// Maximum ROM size (8MB safety limit)
const maxROMSize = 8 * 1024 * 1024

// ROMExt is the extension of a raw ROM image.
const ROMExt = ".pb"

var (
	// ErrNoROMFile is returned when an archive holds no ROM image.
	ErrNoROMFile = errors.New("no " + ROMExt + " file found in archive")

	// ErrUnsupportedFormat is returned for unrecognized file formats
	ErrUnsupportedFormat = errors.New("unsupported file format")

	// ErrFileTooLarge is returned when extracted content exceeds size limit
	ErrFileTooLarge = errors.New("file exceeds maximum size limit")
)

type formatType int

const (
	formatUnknown formatType = iota
	formatRaw
	formatZIP
	format7z
	formatGzip
	formatRAR
	formatXZ
	formatZstd
)

func (f formatType) String() string {
	switch f {
	case formatRaw:
		return "raw"
	case formatZIP:
		return "zip"
	case format7z:
		return "7z"
	case formatGzip:
		return "gzip"
	case formatRAR:
		return "rar"
	case formatXZ:
		return "xz"
	case formatZstd:
		return "zstd"
	}
	return "unknown"
}

// ROM is a loaded image and the name of the file it came from.
type ROM struct {
	Data []byte
	Name string
}

// LoadROM loads a ROM from path on fs. Archives and compressed streams are
// detected by content first and extension second.
func LoadROM(fs afero.Fs, path string) (ROM, error) {
	f, err := fs.Open(path)
	if err != nil {
		return ROM{}, fmt.Errorf("failed to open file: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return ROM{}, fmt.Errorf("failed to stat file: %w", err)
	}

	header := make([]byte, 16)
	n, err := io.ReadFull(f, header)
	if err != nil && err != io.EOF && err != io.ErrUnexpectedEOF {
		return ROM{}, fmt.Errorf("failed to read file header: %w", err)
	}
	header = header[:n]

	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return ROM{}, fmt.Errorf("failed to seek file: %w", err)
	}

	switch format := detectFormat(header, path); format {
	case formatRaw:
		data, err := limitedRead(f)
		if err != nil {
			return ROM{}, fmt.Errorf("failed to read ROM: %w", err)
		}
		return ROM{Data: data, Name: filepath.Base(path)}, nil

	case formatZIP:
		return extractFromZIP(f, info.Size())

	case format7z:
		return extractFrom7z(f, info.Size())

	case formatRAR:
		return extractFromRAR(f)

	case formatGzip, formatXZ, formatZstd:
		return extractFromStream(f, format, streamName(path))

	default:
		return ROM{}, fmt.Errorf("%w: %s", ErrUnsupportedFormat, path)
	}
}

// detectFormat determines the file format based on magic bytes and extension
func detectFormat(header []byte, path string) formatType {
	switch {
	case bytes.HasPrefix(header, magicZIP), bytes.HasPrefix(header, magicZIPEnd):
		return formatZIP
	case bytes.HasPrefix(header, magicRAR):
		return formatRAR
	case bytes.HasPrefix(header, magic7z):
		return format7z
	case bytes.HasPrefix(header, magicXZ):
		return formatXZ
	case bytes.HasPrefix(header, magicZstd):
		return formatZstd
	case bytes.HasPrefix(header, magicGzip):
		return formatGzip
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ROMExt:
		return formatRaw
	case ".zip":
		return formatZIP
	case ".7z":
		return format7z
	case ".gz", ".tgz":
		return formatGzip
	case ".rar":
		return formatRAR
	case ".xz", ".txz":
		return formatXZ
	case ".zst", ".tzst":
		return formatZstd
	}
	return formatUnknown
}

// isROMFile checks if a filename has the ROM extension (case-insensitive)
func isROMFile(name string) bool {
	return strings.EqualFold(filepath.Ext(name), ROMExt)
}

// streamName is the name of the image inside a single-file compressed
// stream: game.pb.gz holds game.pb.
func streamName(path string) string {
	base := filepath.Base(path)
	lower := strings.ToLower(base)
	for _, ext := range []string{".tar.gz", ".tar.xz", ".tar.zst", ".tgz", ".txz", ".tzst"} {
		if strings.HasSuffix(lower, ext) {
			return base[:len(base)-len(ext)] + ROMExt
		}
	}
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// limitedRead reads from r up to maxROMSize bytes, returning an error if exceeded
func limitedRead(r io.Reader) ([]byte, error) {
	lr := io.LimitReader(r, maxROMSize+1)
	data, err := io.ReadAll(lr)
	if err != nil {
		return nil, err
	}
	if len(data) > maxROMSize {
		return nil, ErrFileTooLarge
	}
	return data, nil
}
