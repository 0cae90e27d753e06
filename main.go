package main

import (
	"context"
	"flag"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/spf13/afero"
	"github.com/user-none/partyboy/cli"
	"github.com/user-none/partyboy/config"
	"github.com/user-none/partyboy/core"
	"github.com/user-none/partyboy/emu"
	"github.com/user-none/partyboy/host"
	"github.com/user-none/partyboy/msg"
	"github.com/user-none/partyboy/romloader"
	"github.com/user-none/partyboy/statsview"
	"github.com/user-none/partyboy/storage"
	"github.com/user-none/partyboy/ui"
)

func main() {
	romPath := flag.String("rom", "", "path to ROM file or archive (required)")
	configPath := flag.String("config", defaultConfigPath(), "path to config file")
	writeConfig := flag.Bool("write-config", false, "write the effective config to -config and exit")
	pull := flag.Bool("pull", false, "pace emulation from the audio device instead of a timer")
	volume := flag.Float64("volume", 1.0, "audio volume (0.0 - 1.0)")
	scale := flag.Int("scale", 3, "window scale")
	palette := flag.String("palette", emu.PaletteNames[0], "display palette: "+strings.Join(emu.PaletteNames, ", "))
	saveDir := flag.String("savedir", "", "directory for .srm files (default: beside the ROM)")
	record := flag.String("record", "", "record played audio to this WAV file")
	stats := flag.Bool("statsview", false, "serve runtime charts on "+statsview.DefaultAddress)
	flag.Parse()

	fs := afero.NewOsFs()

	cfg, err := config.Load(fs, *configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Flags given on the command line override the file.
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "pull":
			if *pull {
				cfg.Pacing = host.PacingAudio.String()
			} else {
				cfg.Pacing = host.PacingTimer.String()
			}
		case "volume":
			cfg.Audio.Volume = *volume
		case "scale":
			cfg.Window.Scale = *scale
		}
	})
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid settings: %v", err)
	}

	if *writeConfig {
		if err := config.Save(fs, *configPath, cfg); err != nil {
			log.Fatalf("Failed to write config: %v", err)
		}
		return
	}

	if *romPath == "" {
		log.Fatal("ROM path is required. Usage: partyboy -rom <path>")
	}

	if _, err := emu.ParsePalette(*palette); err != nil {
		log.Fatalf("Invalid palette: %v", err)
	}

	if *stats {
		statsview.Launch(os.Stdout, statsview.DefaultAddress)
	}

	roms, err := romloader.NewCache(fs, romloader.DefaultCacheSize)
	if err != nil {
		log.Fatal(err)
	}
	rom, err := roms.Load(*romPath)
	if err != nil {
		log.Fatalf("Failed to load ROM: %v", err)
	}
	if err := emu.ValidateROM(rom.Data); err != nil {
		log.Fatalf("Invalid ROM %s: %v", rom.Name, err)
	}

	store := storage.New(fs, *saveDir)
	ram, err := store.LoadSaveRAM(*romPath)
	if err != nil {
		log.Printf("Warning: save RAM not loaded: %v", err)
	}

	opts, err := cfg.WorkerOptions()
	if err != nil {
		log.Fatal(err)
	}

	sink, err := ui.NewAudioSink(func() (ui.AudioOutput, error) {
		return ui.NewAudioPlayer(cfg.Audio.SampleRate)
	}, ui.SinkConfig{
		Volume:       cfg.Audio.Volume,
		LowWater:     cfg.Audio.LowWater,
		SafetyMargin: cfg.Audio.SafetyMargin,
		Lead:         cfg.Audio.Lead,
	})
	if err != nil {
		log.Printf("Warning: audio initialization failed: %v", err)
		sink = nil
		if opts.Pacing == host.PacingAudio {
			log.Printf("Warning: no audio device, falling back to timer pacing")
			opts.Pacing = host.PacingTimer
		}
	}

	if *record != "" && sink != nil {
		rec, err := ui.NewWavRecorder(fs, *record, cfg.Audio.SampleRate)
		if err != nil {
			log.Fatalf("Failed to start recording: %v", err)
		}
		sink.SetRecorder(rec)
		defer func() {
			if err := rec.Close(); err != nil {
				log.Printf("Warning: %v", err)
			}
		}()
	}

	build := paletteBuilder(*palette)

	ch := msg.NewChannel(cfg.ChannelBuffer)
	worker := host.NewWorker(ch.Worker(), host.StaticLoader(build), opts)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan struct{})
	go func() {
		defer close(done)
		if err := worker.Run(ctx); err != nil {
			log.Printf("Warning: emulation worker: %v", err)
		}
	}()

	frontend := ui.NewFrontend(ch.UI(), sink, opts.Pacing == host.PacingAudio)
	frontend.Load(rom.Data, ram)

	reload := func() ([]byte, []byte, error) {
		r, err := roms.Load(*romPath)
		if err != nil {
			return nil, nil, err
		}
		ram, err := store.LoadSaveRAM(*romPath)
		return r.Data, ram, err
	}

	title := emu.Name
	if t := emu.Title(rom.Data); t != "" {
		title += " - " + t
	}

	ebiten.SetWindowSize(core.ScreenWidth*cfg.Window.Scale, core.ScreenHeight*cfg.Window.Scale)
	ebiten.SetWindowTitle(title)
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	ebiten.SetWindowSizeLimits(core.ScreenWidth, core.ScreenHeight, -1, -1)

	runner := cli.NewRunner(frontend, reload, title, cfg.Window.ShowFPS)
	runErr := ebiten.RunGame(runner)

	// Save SRAM on exit
	saveRAM := runner.Close()
	cancel()
	<-done
	if err := store.WriteSaveRAM(*romPath, saveRAM); err != nil {
		log.Printf("Warning: save RAM not written: %v", err)
	}

	if runErr != nil {
		log.Fatal(runErr)
	}
}

// paletteBuilder returns a core builder that applies the display palette.
func paletteBuilder(palette string) core.Builder {
	return func(rom, ram []byte) (core.Core, error) {
		e, err := emu.NewEmulator(rom, ram)
		if err != nil {
			return nil, err
		}
		e.SetOption("palette", palette)
		return e, nil
	}
}

func defaultConfigPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "partyboy.yaml"
	}
	return filepath.Join(dir, emu.Name, "config.yaml")
}
