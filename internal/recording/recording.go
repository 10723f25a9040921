package recording

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/leonardotrapani/healthtranslate/internal/logging"
)

// AudioFrame is one read from pw-record. Level is the normalized RMS of the
// frame in [0,1] for s16 audio and zero for other formats.
type AudioFrame struct {
	Data      []byte
	Timestamp time.Time
	Level     float64
}

type Config struct {
	SampleRate        int
	Channels          int
	Format            string
	BufferSize        int
	Device            string
	ChannelBufferSize int
}

func DefaultConfig() Config {
	return Config{
		SampleRate:        16000,
		Channels:          1,
		Format:            "s16",
		BufferSize:        8192,
		ChannelBufferSize: 30,
	}
}

// Validate reports the first unusable field.
func (c Config) Validate() error {
	switch {
	case c.SampleRate <= 0:
		return fmt.Errorf("invalid sample_rate: %d", c.SampleRate)
	case c.Channels <= 0:
		return fmt.Errorf("invalid channels: %d", c.Channels)
	case c.BufferSize <= 0:
		return fmt.Errorf("invalid buffer_size: %d", c.BufferSize)
	case c.ChannelBufferSize <= 0:
		return fmt.Errorf("invalid channel_buffer_size: %d", c.ChannelBufferSize)
	case c.Format == "":
		return fmt.Errorf("invalid format: empty")
	}
	return nil
}

// Recorder streams microphone PCM from pw-record. A Recorder can be started
// again once the previous capture has drained.
type Recorder struct {
	config    Config
	recording atomic.Bool

	mu     sync.Mutex // guards cancel
	cancel context.CancelFunc

	wg sync.WaitGroup
}

func NewRecorder(config Config) *Recorder {
	return &Recorder{config: config}
}

func NewDefaultRecorder() *Recorder { return NewRecorder(DefaultConfig()) }

func (r *Recorder) IsRecording() bool {
	return r.recording.Load()
}

// Start launches pw-record. The frame channel closes when capture ends; the
// error channel carries at most one error and closes with it.
func (r *Recorder) Start(ctx context.Context) (<-chan AudioFrame, <-chan error, error) {
	if err := r.config.Validate(); err != nil {
		return nil, nil, err
	}
	if !r.recording.CompareAndSwap(false, true) {
		return nil, nil, fmt.Errorf("already recording")
	}

	if err := CheckPipeWireAvailable(ctx); err != nil {
		r.recording.Store(false)
		return nil, nil, fmt.Errorf("PipeWire not available: %w", err)
	}

	captureCtx, cancel := context.WithCancel(ctx)
	cmd := exec.CommandContext(captureCtx, "pw-record", r.buildPwRecordArgs()...)

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		cancel()
		r.recording.Store(false)
		return nil, nil, fmt.Errorf("create stdout pipe: %w", err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		cancel()
		r.recording.Store(false)
		return nil, nil, fmt.Errorf("create stderr pipe: %w", err)
	}
	if err := cmd.Start(); err != nil {
		cancel()
		r.recording.Store(false)
		return nil, nil, fmt.Errorf("start pw-record: %w", err)
	}

	r.mu.Lock()
	r.cancel = cancel
	r.mu.Unlock()

	go func() {
		scanner := bufio.NewScanner(stderr)
		for scanner.Scan() {
			logging.Sugar.Debugf("Recording: pw-record: %s", scanner.Text())
		}
	}()

	frameCh := make(chan AudioFrame, r.config.ChannelBufferSize)
	errCh := make(chan error, 1)

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		defer func() {
			_ = cmd.Wait()
			cancel()
			r.mu.Lock()
			r.cancel = nil
			r.mu.Unlock()
			r.recording.Store(false)
		}()
		r.pump(captureCtx, stdout, frameCh, errCh)
	}()

	return frameCh, errCh, nil
}

// Stop asks pw-record to exit. It does not wait; use Wait for that.
func (r *Recorder) Stop() error {
	r.mu.Lock()
	cancel := r.cancel
	r.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	return nil
}

func (r *Recorder) Wait() {
	r.wg.Wait()
}

// pump copies frames from src to frameCh until EOF, a read error or ctx ends.
// A full frameCh drops the frame instead of stalling the reader.
func (r *Recorder) pump(ctx context.Context, src io.Reader, frameCh chan<- AudioFrame, errCh chan<- error) {
	defer close(errCh)
	defer close(frameCh)

	pcm := r.config.Format == "s16" || r.config.Format == "s16le"
	buffer := make([]byte, r.config.BufferSize)
	dropped := 0
	lastDropLog := time.Now()

	for {
		n, readErr := src.Read(buffer)
		if n > 0 {
			frame := AudioFrame{Data: append([]byte(nil), buffer[:n]...), Timestamp: time.Now()}
			if pcm {
				frame.Level = Level(frame.Data)
			}

			select {
			case frameCh <- frame:
			case <-ctx.Done():
				return
			default:
				dropped++
				if time.Since(lastDropLog) > time.Second {
					logging.Sugar.Warnf("Recording: dropped %d frames due to backpressure", dropped)
					lastDropLog = time.Now()
					dropped = 0
				}
			}
		}

		if readErr != nil {
			if errors.Is(readErr, io.EOF) || ctx.Err() != nil {
				return
			}
			err := fmt.Errorf("read audio: %w", readErr)
			logging.Sugar.Errorf("Recording error: %v", err)
			errCh <- err
			return
		}
	}
}

func (r *Recorder) buildPwRecordArgs() []string {
	args := []string{
		"--format", r.config.Format,
		"--rate", strconv.Itoa(r.config.SampleRate),
		"--channels", strconv.Itoa(r.config.Channels),
		"-",
	}
	if r.config.Device != "" {
		args = append(args, "--target", r.config.Device)
	}
	return args
}

func CheckPipeWireAvailable(ctx context.Context) error {
	if _, err := exec.LookPath("pw-record"); err != nil {
		return fmt.Errorf("pw-record not found: %w (install pipewire-tools)", err)
	}
	if ctx == nil {
		ctx = context.Background()
	}
	checkCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := exec.CommandContext(checkCtx, "pw-cli", "info").Run(); err != nil {
		return fmt.Errorf("PipeWire not running or accessible: %w", err)
	}
	return nil
}
