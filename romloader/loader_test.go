package romloader

import (
	"archive/tar"
	"bytes"
	"errors"
	"testing"
	"time"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zip"
	"github.com/klauspost/compress/zstd"
	"github.com/spf13/afero"
	"github.com/ulikunitz/xz"
)

func writeTestFile(t *testing.T, fs afero.Fs, path string, data []byte) {
	t.Helper()
	if err := afero.WriteFile(fs, path, data, 0644); err != nil {
		t.Fatalf("Failed to write %s: %v", path, err)
	}
}

func zipBytes(t *testing.T, files map[string][]byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	for name, data := range files {
		fw, err := w.Create(name)
		if err != nil {
			t.Fatalf("Failed to create file in zip: %v", err)
		}
		if _, err := fw.Write(data); err != nil {
			t.Fatalf("Failed to write to zip: %v", err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Failed to close zip: %v", err)
	}
	return buf.Bytes()
}

func gzipBytes(t *testing.T, data []byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	w := gzip.NewWriter(&buf)
	if _, err := w.Write(data); err != nil {
		t.Fatalf("Failed to write to gzip: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Failed to close gzip: %v", err)
	}
	return buf.Bytes()
}

func tarBytes(t *testing.T, name string, data []byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	w := tar.NewWriter(&buf)
	readme := []byte("hello")
	if err := w.WriteHeader(&tar.Header{Name: "readme.txt", Mode: 0644, Size: int64(len(readme)), Typeflag: tar.TypeReg}); err != nil {
		t.Fatalf("Failed to write tar header: %v", err)
	}
	w.Write(readme)
	if err := w.WriteHeader(&tar.Header{Name: name, Mode: 0644, Size: int64(len(data)), Typeflag: tar.TypeReg}); err != nil {
		t.Fatalf("Failed to write tar header: %v", err)
	}
	w.Write(data)
	if err := w.Close(); err != nil {
		t.Fatalf("Failed to close tar: %v", err)
	}
	return buf.Bytes()
}

func TestLoader_RawLoad(t *testing.T) {
	fs := afero.NewMemMapFs()
	testData := []byte{0x01, 0x02, 0x03, 0x04, 0x05}
	writeTestFile(t, fs, "/roms/test.pb", testData)

	rom, err := LoadROM(fs, "/roms/test.pb")
	if err != nil {
		t.Fatalf("LoadROM failed: %v", err)
	}
	if !bytes.Equal(rom.Data, testData) {
		t.Errorf("Data mismatch: expected %v, got %v", testData, rom.Data)
	}
	if rom.Name != "test.pb" {
		t.Errorf("Name mismatch: expected test.pb, got %s", rom.Name)
	}
}

func TestLoader_ZipLoad(t *testing.T) {
	fs := afero.NewMemMapFs()
	testData := []byte{0xAA, 0xBB, 0xCC, 0xDD}
	writeTestFile(t, fs, "/roms/test.zip", zipBytes(t, map[string][]byte{"dir/game.pb": testData}))

	rom, err := LoadROM(fs, "/roms/test.zip")
	if err != nil {
		t.Fatalf("LoadROM failed: %v", err)
	}
	if !bytes.Equal(rom.Data, testData) {
		t.Errorf("Data mismatch: expected %v, got %v", testData, rom.Data)
	}
	if rom.Name != "game.pb" {
		t.Errorf("Name mismatch: expected game.pb, got %s", rom.Name)
	}
}

func TestLoader_GzipLoad(t *testing.T) {
	fs := afero.NewMemMapFs()
	testData := []byte{0x11, 0x22, 0x33, 0x44, 0x55}
	writeTestFile(t, fs, "/roms/test.pb.gz", gzipBytes(t, testData))

	rom, err := LoadROM(fs, "/roms/test.pb.gz")
	if err != nil {
		t.Fatalf("LoadROM failed: %v", err)
	}
	if !bytes.Equal(rom.Data, testData) {
		t.Errorf("Data mismatch: expected %v, got %v", testData, rom.Data)
	}
	if rom.Name != "test.pb" {
		t.Errorf("Name mismatch: expected test.pb, got %s", rom.Name)
	}
}

func TestLoader_TarGzLoad(t *testing.T) {
	fs := afero.NewMemMapFs()
	testData := []byte{0x10, 0x20, 0x30}
	writeTestFile(t, fs, "/roms/pack.tar.gz", gzipBytes(t, tarBytes(t, "pack/game.pb", testData)))

	rom, err := LoadROM(fs, "/roms/pack.tar.gz")
	if err != nil {
		t.Fatalf("LoadROM failed: %v", err)
	}
	if !bytes.Equal(rom.Data, testData) {
		t.Errorf("Data mismatch: expected %v, got %v", testData, rom.Data)
	}
	if rom.Name != "game.pb" {
		t.Errorf("Name mismatch: expected game.pb, got %s", rom.Name)
	}
}

func TestLoader_XZLoad(t *testing.T) {
	fs := afero.NewMemMapFs()
	testData := []byte{0x66, 0x77, 0x88}

	var buf bytes.Buffer
	w, err := xz.NewWriter(&buf)
	if err != nil {
		t.Fatalf("Failed to create xz writer: %v", err)
	}
	w.Write(testData)
	if err := w.Close(); err != nil {
		t.Fatalf("Failed to close xz: %v", err)
	}
	writeTestFile(t, fs, "/roms/test.pb.xz", buf.Bytes())

	rom, err := LoadROM(fs, "/roms/test.pb.xz")
	if err != nil {
		t.Fatalf("LoadROM failed: %v", err)
	}
	if !bytes.Equal(rom.Data, testData) {
		t.Errorf("Data mismatch: expected %v, got %v", testData, rom.Data)
	}
}

func TestLoader_ZstdLoad(t *testing.T) {
	fs := afero.NewMemMapFs()
	testData := []byte{0x99, 0xAA, 0xBB, 0xCC}

	var buf bytes.Buffer
	w, err := zstd.NewWriter(&buf)
	if err != nil {
		t.Fatalf("Failed to create zstd writer: %v", err)
	}
	w.Write(testData)
	if err := w.Close(); err != nil {
		t.Fatalf("Failed to close zstd: %v", err)
	}
	writeTestFile(t, fs, "/roms/test.pb.zst", buf.Bytes())

	rom, err := LoadROM(fs, "/roms/test.pb.zst")
	if err != nil {
		t.Fatalf("LoadROM failed: %v", err)
	}
	if !bytes.Equal(rom.Data, testData) {
		t.Errorf("Data mismatch: expected %v, got %v", testData, rom.Data)
	}
}

func TestLoader_FormatDetectionMagic(t *testing.T) {
	testCases := []struct {
		header   []byte
		expected formatType
	}{
		{[]byte{0x50, 0x4B, 0x03, 0x04}, formatZIP},
		{[]byte{0x50, 0x4B, 0x05, 0x06}, formatZIP},
		{[]byte{0x37, 0x7A, 0xBC, 0xAF, 0x27, 0x1C}, format7z},
		{[]byte{0x1F, 0x8B}, formatGzip},
		{[]byte{0x52, 0x61, 0x72, 0x21}, formatRAR},
		{[]byte{0xFD, 0x37, 0x7A, 0x58, 0x5A, 0x00}, formatXZ},
		{[]byte{0x28, 0xB5, 0x2F, 0xFD}, formatZstd},
	}

	for _, tc := range testCases {
		result := detectFormat(tc.header, "file.dat")
		if result != tc.expected {
			t.Errorf("detectFormat(%v): expected %s, got %s", tc.header, tc.expected, result)
		}
	}
}

func TestLoader_FormatDetectionExtension(t *testing.T) {
	testCases := []struct {
		path     string
		expected formatType
	}{
		{"game.pb", formatRaw},
		{"game.PB", formatRaw},
		{"game.zip", formatZIP},
		{"game.ZIP", formatZIP},
		{"game.7z", format7z},
		{"game.gz", formatGzip},
		{"game.tgz", formatGzip},
		{"game.tar.gz", formatGzip},
		{"game.rar", formatRAR},
		{"game.xz", formatXZ},
		{"game.zst", formatZstd},
		{"game.unknown", formatUnknown},
	}

	for _, tc := range testCases {
		result := detectFormat([]byte{}, tc.path)
		if result != tc.expected {
			t.Errorf("detectFormat([], %s): expected %s, got %s", tc.path, tc.expected, result)
		}
	}
}

func TestLoader_StreamName(t *testing.T) {
	testCases := map[string]string{
		"/roms/game.pb.gz":  "game.pb",
		"/roms/game.tar.gz": "game.pb",
		"/roms/game.tgz":    "game.pb",
		"/roms/game.pb.zst": "game.pb",
	}
	for path, want := range testCases {
		if got := streamName(path); got != want {
			t.Errorf("streamName(%s): expected %s, got %s", path, want, got)
		}
	}
}

func TestLoader_NoROMInArchive(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeTestFile(t, fs, "/roms/test.zip", zipBytes(t, map[string][]byte{"readme.txt": []byte("hello")}))

	_, err := LoadROM(fs, "/roms/test.zip")
	if !errors.Is(err, ErrNoROMFile) {
		t.Errorf("Expected ErrNoROMFile, got %v", err)
	}
}

func TestLoader_Unsupported(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeTestFile(t, fs, "/roms/notes.txt", []byte("not a rom"))

	_, err := LoadROM(fs, "/roms/notes.txt")
	if !errors.Is(err, ErrUnsupportedFormat) {
		t.Errorf("Expected ErrUnsupportedFormat, got %v", err)
	}
}

// testdata holds stored (uncompressed) archives of game.pb, since neither
// format has a Go writer.
var archiveROM = []byte("PARTYBOY-ARCHIVE")

func TestLoader_ArchiveFixtures(t *testing.T) {
	fs := afero.NewReadOnlyFs(afero.NewOsFs())

	for _, path := range []string{"testdata/game.7z", "testdata/game.rar"} {
		t.Run(path, func(t *testing.T) {
			rom, err := LoadROM(fs, path)
			if err != nil {
				t.Fatalf("LoadROM failed: %v", err)
			}
			if !bytes.Equal(rom.Data, archiveROM) {
				t.Errorf("Data mismatch: expected %q, got %q", archiveROM, rom.Data)
			}
			if rom.Name != "game.pb" {
				t.Errorf("Name mismatch: expected game.pb, got %s", rom.Name)
			}
		})
	}
}

func TestLoader_Corrupt7z(t *testing.T) {
	fs := afero.NewMemMapFs()
	data := append([]byte{0x37, 0x7A, 0xBC, 0xAF, 0x27, 0x1C}, make([]byte, 32)...)
	writeTestFile(t, fs, "/roms/bad.7z", data)

	if _, err := LoadROM(fs, "/roms/bad.7z"); err == nil {
		t.Error("Expected error for corrupt 7z archive")
	}
}

func TestLoader_FileTooLarge(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeTestFile(t, fs, "/roms/big.pb", make([]byte, maxROMSize+1))

	_, err := LoadROM(fs, "/roms/big.pb")
	if !errors.Is(err, ErrFileTooLarge) {
		t.Errorf("Expected ErrFileTooLarge, got %v", err)
	}
}

func TestLoader_MissingFile(t *testing.T) {
	if _, err := LoadROM(afero.NewMemMapFs(), "/roms/none.pb"); err == nil {
		t.Error("Expected error for missing file")
	}
}

func TestCache_ReturnsCopies(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeTestFile(t, fs, "/roms/test.pb", []byte{1, 2, 3})

	c, err := NewCache(fs, DefaultCacheSize)
	if err != nil {
		t.Fatalf("NewCache failed: %v", err)
	}

	first, err := c.Load("/roms/test.pb")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	first.Data[0] = 0xFF

	second, err := c.Load("/roms/test.pb")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if second.Data[0] != 1 {
		t.Errorf("cached image was modified through a returned copy")
	}
	if c.Len() != 1 {
		t.Errorf("expected 1 cached image, got %d", c.Len())
	}
}

func TestCache_RewrittenFileReloaded(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeTestFile(t, fs, "/roms/test.pb", []byte{1, 2, 3})

	c, err := NewCache(fs, DefaultCacheSize)
	if err != nil {
		t.Fatalf("NewCache failed: %v", err)
	}
	if _, err := c.Load("/roms/test.pb"); err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	writeTestFile(t, fs, "/roms/test.pb", []byte{4, 5, 6, 7})
	later := time.Now().Add(time.Hour)
	if err := fs.Chtimes("/roms/test.pb", later, later); err != nil {
		t.Fatalf("Chtimes failed: %v", err)
	}

	rom, err := c.Load("/roms/test.pb")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if !bytes.Equal(rom.Data, []byte{4, 5, 6, 7}) {
		t.Errorf("expected rewritten data, got %v", rom.Data)
	}

	c.Purge()
	if c.Len() != 0 {
		t.Errorf("expected empty cache after Purge, got %d", c.Len())
	}
}

func TestCache_InvalidSize(t *testing.T) {
	if _, err := NewCache(afero.NewMemMapFs(), 0); err == nil {
		t.Error("Expected error for zero cache size")
	}
}
