// Package main provides clipctl, a command line driver for one clipdesk
// session: stage and upload a file, process it, and store the result.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/maauso/clipdesk/internal/bootstrap"
	"github.com/maauso/clipdesk/internal/config"
	"github.com/maauso/clipdesk/internal/request"
	"github.com/maauso/clipdesk/internal/workflow"
)

var errProcessingFailed = errors.New("processing failed")

type options struct {
	backend    string
	file       string
	task       string
	resolution string
	fps        string
	start      string
	duration   string
	mute       bool
	gifQuality string
	deidArgs   string
	out        string
	set        map[string]bool
}

func main() {
	if err := run(os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func parseFlags(args []string, stderr io.Writer) (*options, error) {
	o := &options{set: make(map[string]bool)}
	fs := flag.NewFlagSet("clipctl", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&o.backend, "backend", "", "processing backend base URL (overrides BACKEND_URL)")
	fs.StringVar(&o.file, "file", "", "video file to process")
	fs.StringVar(&o.task, "task", string(request.TaskResize), "task: resize, vgif or deid")
	fs.StringVar(&o.resolution, "resolution", "", "target resolution")
	fs.StringVar(&o.fps, "fps", request.FPSDefault, `frame rate or "default"`)
	fs.StringVar(&o.start, "start", "", "trim start (seconds, M:SS or H:MM:SS)")
	fs.StringVar(&o.duration, "duration", "", "trim length (seconds, M:SS or H:MM:SS)")
	fs.BoolVar(&o.mute, "mute", false, "drop the audio track")
	fs.StringVar(&o.gifQuality, "gif-quality", string(request.QualityCustom), "GIF preset: tiny, small, medium, high or custom")
	fs.StringVar(&o.deidArgs, "deid-args", "", "extra arguments for the deid task")
	fs.StringVar(&o.out, "out", "", "directory for the result (overrides DOWNLOAD_DIR)")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	fs.Visit(func(f *flag.Flag) { o.set[f.Name] = true })

	if o.file == "" {
		return nil, errors.New("-file is required")
	}
	return o, nil
}

// form turns the flags into input controls. For the vgif task a GIF preset
// fills resolution and fps first; explicit flags win over it.
func (o *options) form() request.Form {
	f := request.Form{
		Task:       o.task,
		Mute:       o.mute,
		DeIDArgs:   o.deidArgs,
		StartTime:  o.start,
		Duration:   o.duration,
		FPS:        o.fps,
		Resolution: o.resolution,
		GIFQuality: o.gifQuality,
	}
	if task, ok := request.ParseTask(o.task); !ok || task != request.TaskGIF {
		return f
	}

	f.ApplyPreset(request.GIFQuality(o.gifQuality))
	if o.set["resolution"] {
		f.Resolution = o.resolution
	}
	if o.set["fps"] {
		f.FPS = o.fps
	}
	return f
}

func run(args []string, stdout, stderr io.Writer) error {
	opts, err := parseFlags(args, stderr)
	if err != nil {
		return err
	}
	if opts.backend != "" {
		if err := os.Setenv("BACKEND_URL", opts.backend); err != nil {
			return err
		}
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if opts.out != "" {
		cfg.DownloadDir = opts.out
	}
	logger := cfg.NewLoggerTo(stderr)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	deps, err := bootstrap.NewDependencies(cfg, logger, true,
		workflow.WithObserver(&terminal{out: stderr}),
	)
	if err != nil {
		return fmt.Errorf("initialize dependencies: %w", err)
	}
	session := deps.Session
	defer func() { _ = session.Close(context.WithoutCancel(ctx)) }()

	f, err := os.Open(opts.file)
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()
	info, err := f.Stat()
	if err != nil {
		return err
	}

	if err := session.StageAndUpload(ctx, filepath.Base(opts.file), info.Size(), f); err != nil {
		return err
	}

	res, err := session.Process(ctx, opts.form())
	if err != nil {
		return err
	}
	fmt.Fprintln(stdout, res.Logs)
	if !res.OK {
		return errProcessingFailed
	}

	location, err := session.Download(ctx)
	if err != nil {
		return err
	}
	if location != "" {
		fmt.Fprintln(stdout, location)
	}
	return nil
}

// terminal reports session progress on stderr.
type terminal struct {
	out  io.Writer
	last workflow.State
}

func (t *terminal) SnapshotChanged(s workflow.Snapshot) {
	if s.State == t.last {
		return
	}
	t.last = s.State
	switch s.State {
	case workflow.StateStaged:
		fmt.Fprintf(t.out, "staged %s\n", s.FileInfo)
	case workflow.StateUploaded:
		fmt.Fprintf(t.out, "uploaded as %s\n", s.Handle)
	case workflow.StateProcessing:
		fmt.Fprintln(t.out, s.Logs)
	}
}

func (t *terminal) Alert(message string) {
	fmt.Fprintf(t.out, "! %s\n", message)
}
