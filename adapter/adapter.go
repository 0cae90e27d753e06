package adapter

import (
	emucore "github.com/user-none/eblitui/api"
	"github.com/user-none/partyboy/core"
	"github.com/user-none/partyboy/emu"
)

// Compile-time interface check.
var _ emucore.CoreFactory = (*Factory)(nil)

// Factory implements emucore.CoreFactory for the reference core.
type Factory struct{}

// SystemInfo returns system metadata for UI configuration.
func (f *Factory) SystemInfo() emucore.SystemInfo {
	return emucore.SystemInfo{
		Name:            emu.Name,
		ConsoleName:     "Partyboy",
		Extensions:      []string{".pb"},
		ScreenWidth:     core.ScreenWidth,
		MaxScreenHeight: core.ScreenHeight,
		AspectRatio:     float64(core.ScreenWidth) / float64(core.ScreenHeight),
		SampleRate:      48000,
		Buttons: []emucore.Button{
			{Name: "A", ID: 4, DefaultKey: "O", DefaultPad: "A"},
			{Name: "B", ID: 5, DefaultKey: "K", DefaultPad: "B"},
			{Name: "Select", ID: 6, DefaultKey: "N", DefaultPad: "Select"},
			{Name: "Start", ID: 7, DefaultKey: "M", DefaultPad: "Start"},
		},
		Players: 1,
		CoreOptions: []emucore.CoreOption{
			{
				Key:         "palette",
				Label:       "Palette",
				Description: "Colours used for the four display shades",
				Type:        emucore.CoreOptionSelect,
				Default:     emu.PaletteNames[0],
				Values:      emu.PaletteNames,
				Category:    emucore.CoreOptionCategoryVideo,
			},
		},
		DataDirName:   emu.Name,
		CoreName:      emu.Name,
		CoreVersion:   emu.Version,
		SerializeSize: emu.SerializeSize(),
	}
}

// CreateEmulator creates a new emulator instance with the given ROM. The
// machine has a single timing, so region is ignored.
func (f *Factory) CreateEmulator(rom []byte, region emucore.Region) (emucore.Emulator, error) {
	e, err := emu.NewEmulator(rom, nil)
	if err != nil {
		return nil, err
	}
	return e, nil
}

// DetectRegion always reports the only region. The bool return is false
// since no ROM database is consulted.
func (f *Factory) DetectRegion(rom []byte) (emucore.Region, bool) {
	return emu.DetectRegion(rom), false
}
