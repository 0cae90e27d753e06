// Package partyboyios is the gomobile binding of the reference core. The
// machine has one timing, so the region arguments of the bridge are fixed.
package partyboyios

import (
	ios "github.com/user-none/eblitui-ios"
	"github.com/user-none/partyboy/adapter"
	"github.com/user-none/partyboy/emu"
)

func init() {
	ios.RegisterFactory(&adapter.Factory{})
}

// Start loads the ROM at path.
func Start(path string) bool { return ios.Init(path, int(emu.RegionNTSC)) }

// CoreVersion identifies the bundled core.
func CoreVersion() string { return emu.Name + " " + emu.Version }

// SetPalette selects "green" or "gray".
func SetPalette(name string) { ios.SetOption("palette", name) }

// Re-export bridge functions for gomobile binding

func Close()                     { ios.Close() }
func RunFrame()                  { ios.RunFrame() }
func GetFrameData() []byte       { return ios.GetFrameData() }
func GetAudioData() []byte       { return ios.GetAudioData() }
func SetButtons(buttons int)     { ios.SetInput(0, buttons) }
func FrameWidth() int            { return ios.FrameWidth() }
func FrameStride() int           { return ios.FrameStride() }
func FrameHeight() int           { return ios.FrameHeight() }
func SystemInfoJSON() string     { return ios.SystemInfoJSON() }
func GetFPS() int                { return ios.GetFPS() }
func SaveState() bool            { return ios.SaveState() }
func StateLen() int              { return ios.StateLen() }
func StateByte(i int) int        { return ios.StateByte(i) }
func LoadState(data []byte) bool { return ios.LoadState(data) }
func HasSRAM() bool              { return ios.HasSRAM() }
func PrepareSRAM()               { ios.PrepareSRAM() }
func SRAMLen() int               { return ios.SRAMLen() }
func SRAMByte(i int) int         { return ios.SRAMByte(i) }
func LoadSRAM(data []byte)       { ios.LoadSRAM(data) }
func ExtractAndStoreROM(srcPath, destDir string) (string, error) {
	return ios.ExtractAndStoreROM(srcPath, destDir)
}
func GetCRC32FromPath(path string) int64 { return ios.GetCRC32FromPath(path) }
