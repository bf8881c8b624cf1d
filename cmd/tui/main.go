package main

import (
	"context"
	"flag"
	"log/slog"
	"math/rand/v2"
	"os"
	"os/signal"
	"syscall"

	"github.com/gdamore/tcell/v2"

	"spinwheel/internal/audio"
	"spinwheel/internal/config"
	"spinwheel/internal/i18n"
	"spinwheel/internal/lib/logger/sl"
	"spinwheel/internal/terminal"
	"spinwheel/internal/wheel"
)

func main() {
	wheelFile := flag.String("wheel", "", "wheel definition (YAML); empty uses the built-in wheel")
	lang := flag.String("lang", "", "message language (en, it)")
	mute := flag.Bool("mute", false, "disable sound")
	flag.Parse()

	cfg := config.MustLoad()
	// The terminal is busy drawing; logs go to stderr only above info.
	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))

	path := cfg.WheelFile
	if *wheelFile != "" {
		path = *wheelFile
	}
	wf, err := config.LoadWheel(path)
	if err != nil {
		log.Error("failed to load wheel", sl.Err(err))
		os.Exit(1)
	}
	w, err := wf.Wheel()
	if err != nil {
		log.Error("failed to build wheel", sl.Err(err))
		os.Exit(1)
	}

	var cues wheel.CuePlayer
	if !*mute {
		speaker := audio.NewSpeaker(log)
		defer speaker.Close()
		if speaker.Enabled() {
			cues = speaker
		}
	}

	src := rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	engine := wheel.NewEngine(w, src, wf.EngineConfig(), cues)

	language := cfg.DefaultLang
	if *lang != "" {
		language = *lang
	}
	printer := i18n.Printer(i18n.Match(language))

	screen, err := tcell.NewScreen()
	if err != nil {
		log.Error("failed to open terminal", sl.Err(err))
		os.Exit(1)
	}
	if err := screen.Init(); err != nil {
		log.Error("failed to init terminal", sl.Err(err))
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app := terminal.NewApp(screen, engine, printer, cfg.FrameInterval)
	err = app.Run(ctx)
	screen.Fini()
	if err != nil {
		log.Error("terminal app", sl.Err(err))
		os.Exit(1)
	}
}
