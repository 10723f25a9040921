package daemon

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"net"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/leonardotrapani/healthtranslate/internal/bus"
	"github.com/leonardotrapani/healthtranslate/internal/clipboard"
	"github.com/leonardotrapani/healthtranslate/internal/config"
	"github.com/leonardotrapani/healthtranslate/internal/logging"
	"github.com/leonardotrapani/healthtranslate/internal/metrics"
	"github.com/leonardotrapani/healthtranslate/internal/pipeline"
)

// requestTimeout bounds a single control request, including waiting for a
// recording to settle on stop.
const requestTimeout = 10 * time.Second

const rebuildStopTimeout = 5 * time.Second

type Options struct {
	// Manager supplies the config and reloads it on change. Config is used
	// when Manager is nil.
	Manager   *config.Manager
	Config    *config.Config
	Build     BuildFunc
	Clipboard clipboard.Writer
	Metrics   *metrics.Metrics
}

type Daemon struct {
	manager   *config.Manager
	build     BuildFunc
	clipboard clipboard.Writer
	metrics   *metrics.Metrics

	mu       sync.RWMutex
	config   *config.Config
	pipeline pipeline.Pipeline

	ctx    context.Context
	cancel context.CancelFunc
	conns  sync.WaitGroup
}

func New(opts Options) (*Daemon, error) {
	if opts.Build == nil {
		opts.Build = BuildDeps
	}
	if opts.Clipboard == nil {
		opts.Clipboard = clipboard.NewWlCopy()
	}
	if opts.Metrics == nil {
		opts.Metrics = metrics.Default()
	}

	cfg := opts.Config
	if opts.Manager != nil {
		cfg = opts.Manager.GetConfig()
	}
	if cfg == nil {
		return nil, errors.New("daemon: config required")
	}

	d := &Daemon{
		manager:   opts.Manager,
		build:     opts.Build,
		clipboard: opts.Clipboard,
		metrics:   opts.Metrics,
		config:    cfg,
	}

	p, err := d.newPipeline(cfg)
	if err != nil {
		return nil, err
	}
	d.pipeline = p
	return d, nil
}

func (d *Daemon) newPipeline(cfg *config.Config) (pipeline.Pipeline, error) {
	deps, err := d.build(cfg)
	if err != nil {
		return nil, err
	}
	if deps.Metrics == nil {
		deps.Metrics = d.metrics
	}
	return pipeline.New(deps, pipelineConfig(cfg)), nil
}

// Pipeline returns the pipeline currently serving requests.
func (d *Daemon) Pipeline() pipeline.Pipeline {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.pipeline
}

// Run serves the control socket until ctx is done, a signal arrives, or a
// client sends quit.
func (d *Daemon) Run(ctx context.Context) error {
	if err := bus.CheckExistingDaemon(); err != nil {
		return err
	}

	ln, err := bus.Listen()
	if err != nil {
		return err
	}
	defer ln.Close()

	if err := bus.CreatePidFile(); err != nil {
		return fmt.Errorf("failed to create PID file: %w", err)
	}
	defer bus.RemovePidFile()

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGTERM, syscall.SIGINT)
	defer stop()
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	d.mu.Lock()
	d.ctx, d.cancel = ctx, cancel
	d.mu.Unlock()

	d.Pipeline().Run(ctx)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return d.serve(gctx, ln) })

	if d.manager != nil {
		d.manager.OnChange(d.applyConfig)
		g.Go(func() error {
			if err := d.manager.StartWatching(gctx); err != nil {
				logging.Sugar.Warnf("Daemon: config watching disabled: %v", err)
				return nil
			}
			<-gctx.Done()
			d.manager.Stop()
			return nil
		})
	}

	if addr := d.currentConfig().Metrics.ListenAddr; addr != "" {
		g.Go(func() error {
			if err := metrics.NewServer(addr).Run(gctx); err != nil {
				return fmt.Errorf("metrics server: %w", err)
			}
			return nil
		})
	}

	logging.Sugar.Infof("Daemon: started, listening on socket")
	err = g.Wait()

	d.conns.Wait()
	d.Pipeline().Stop()
	logging.Sugar.Infof("Daemon: stopped")
	return err
}

func (d *Daemon) serve(ctx context.Context, ln net.Listener) error {
	go func() {
		<-ctx.Done()
		ln.Close()
	}()

	for {
		c, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil {
				logging.Sugar.Infof("Daemon: shutdown requested")
				return nil
			}
			return fmt.Errorf("accept failed: %w", err)
		}
		d.conns.Add(1)
		go func() {
			defer d.conns.Done()
			d.handle(ctx, c)
		}()
	}
}

func (d *Daemon) handle(ctx context.Context, c net.Conn) {
	defer c.Close()

	line, err := bufio.NewReader(c).ReadString('\n')
	if err != nil {
		logging.Sugar.Warnf("Daemon: client read error: %v", err)
		fmt.Fprint(c, bus.Errorf("read_error: %v", err).Encode())
		return
	}

	req, err := bus.ParseRequest(line)
	if err != nil {
		fmt.Fprint(c, bus.Errorf("%v", err).Encode())
		return
	}

	ctx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()
	fmt.Fprint(c, d.dispatch(ctx, req).Encode())
}

func (d *Daemon) dispatch(ctx context.Context, req bus.Request) bus.Response {
	p := d.Pipeline()

	switch req.Cmd {
	case bus.CmdToggle:
		if err := p.Toggle(ctx); err != nil {
			return bus.Errorf("%v", err)
		}
		if p.Status() == pipeline.Recording {
			return bus.OK("recording")
		}
		return bus.OK("stopped")

	case bus.CmdStatus:
		snap := p.Snapshot()
		return bus.Response{Kind: bus.KindStatus, Body: fmt.Sprintf("status=%s capture=%t", snap.Status, snap.CaptureAvailable)}

	case bus.CmdSnapshot:
		resp, err := toState(p.Snapshot()).Response()
		if err != nil {
			return bus.Errorf("%v", err)
		}
		return resp

	case bus.CmdInput:
		if len(req.Args) != 1 {
			return bus.Errorf("input takes one argument")
		}
		if err := p.SetInput(req.Args[0]); err != nil {
			return bus.Errorf("%v", err)
		}
		return bus.OK("input set")

	case bus.CmdLanguages:
		if len(req.Args) != 2 {
			return bus.Errorf("languages takes source and target")
		}
		if err := p.SetLanguages(req.Args[0], req.Args[1]); err != nil {
			return bus.Errorf("%v", err)
		}
		snap := p.Snapshot()
		return bus.OK(fmt.Sprintf("source=%s target=%s", snap.SourceLanguage, snap.TargetLanguage))

	case bus.CmdTranslate:
		r, ok := p.Translate()
		if !ok {
			return bus.OK("nothing to translate")
		}
		return bus.OK(fmt.Sprintf("submitted id=%d", r.ID))

	case bus.CmdSpeak:
		if p.Snapshot().TranslatedText == "" {
			return bus.OK("nothing to speak")
		}
		if err := p.Speak(); err != nil {
			return bus.Errorf("%v", err)
		}
		return bus.OK("speaking")

	case bus.CmdCopy:
		text := p.Snapshot().TranslatedText
		if text == "" {
			return bus.OK("nothing to copy")
		}
		if err := d.clipboard.Copy(ctx, text); err != nil {
			return bus.Errorf("%v", err)
		}
		return bus.OK("copied")

	case bus.CmdVersion:
		return bus.Response{Kind: bus.KindStatus, Body: "proto=" + bus.ProtoVer}

	case bus.CmdQuit:
		d.shutdown()
		return bus.OK("quitting")

	default:
		logging.Sugar.Warnf("Daemon: unknown command: %c", req.Cmd)
		return bus.Errorf("unknown=%q", req.Cmd)
	}
}

func (d *Daemon) shutdown() {
	d.mu.RLock()
	cancel := d.cancel
	d.mu.RUnlock()
	if cancel != nil {
		cancel()
	}
}

func (d *Daemon) currentConfig() *config.Config {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.config
}

// applyConfig follows a config reload. Language changes are applied in
// place; anything else rebuilds the pipeline, carrying the input and the
// displayed translation over.
func (d *Daemon) applyConfig(old, updated *config.Config) {
	if old.General != updated.General {
		if err := logging.InitializeWithConfig(updated.General.ToLogConfig()); err != nil {
			logging.Sugar.Warnf("Daemon: logging reconfigure failed: %v", err)
		}
	}

	if !needsRebuild(old, updated) {
		d.mu.Lock()
		d.config = updated
		p := d.pipeline
		d.mu.Unlock()
		if old.Languages != updated.Languages {
			if err := p.SetLanguages(updated.Languages.Source, updated.Languages.Target); err != nil {
				logging.Sugar.Warnf("Daemon: %v", err)
			}
		}
		return
	}

	next, err := d.newPipeline(updated)
	if err != nil {
		logging.Sugar.Errorf("Daemon: keeping previous pipeline: %v", err)
		return
	}

	d.mu.Lock()
	prev := d.pipeline
	ctx := d.ctx
	d.pipeline = next
	d.config = updated
	d.mu.Unlock()

	// Settle a running recording first so its last snapshot is carried over.
	stopCtx, cancel := context.WithTimeout(context.Background(), rebuildStopTimeout)
	if err := prev.StopRecording(stopCtx); err != nil {
		logging.Sugar.Warnf("Daemon: stop recording before rebuild: %v", err)
	}
	cancel()
	carried := prev.Snapshot()
	prev.Stop()
	if err := next.Restore(carried); err != nil {
		logging.Sugar.Warnf("Daemon: carry state: %v", err)
	}
	if ctx != nil {
		next.Run(ctx)
	}
	logging.Sugar.Infof("Daemon: pipeline rebuilt after config change")
}

func toState(s pipeline.Snapshot) bus.State {
	return bus.State{
		Status:             string(s.Status),
		Input:              s.Input,
		InputLength:        s.InputLength,
		InputLimit:         pipeline.InputLimit,
		CorrectedText:      s.CorrectedText,
		TranslatedText:     s.TranslatedText,
		SourceLanguage:     s.SourceLanguage,
		TargetLanguage:     s.TargetLanguage,
		TargetLanguageName: s.TargetLanguageName,
		CaptureAvailable:   s.CaptureAvailable,
		Translation:        s.Translation.String(),
		LastError:          s.LastError,
	}
}
