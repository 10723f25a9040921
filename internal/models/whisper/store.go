package whisper

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
)

const DefaultBaseURL = "https://huggingface.co/ggerganov/whisper.cpp/resolve/main"

var ErrUnknownModel = errors.New("unknown model")

// ProgressFunc receives bytes written so far and the expected total.
type ProgressFunc func(downloaded, total int64)

// Store is a directory of downloaded models.
type Store struct {
	Dir     string
	BaseURL string
	Client  *http.Client
}

// DefaultStore keeps models under ~/.local/share/healthtranslate/models.
func DefaultStore() (*Store, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, err
	}
	return &Store{
		Dir:     filepath.Join(home, ".local", "share", "healthtranslate", "models"),
		BaseURL: DefaultBaseURL,
		Client:  http.DefaultClient,
	}, nil
}

func (s *Store) Path(id string) (string, error) {
	m, ok := Lookup(id)
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownModel, id)
	}
	return filepath.Join(s.Dir, m.Filename), nil
}

func (s *Store) Installed(id string) bool {
	path, err := s.Path(id)
	if err != nil {
		return false
	}
	info, err := os.Stat(path)
	return err == nil && info.Size() > 0
}

// Download fetches the model into the store and returns its path. The file
// only appears under its final name once complete.
func (s *Store) Download(ctx context.Context, id string, onProgress ProgressFunc) (string, error) {
	m, ok := Lookup(id)
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownModel, id)
	}
	if err := os.MkdirAll(s.Dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create models directory: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.BaseURL+"/"+m.Filename, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	client := s.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to download: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("download failed with status: %s", resp.Status)
	}

	total := resp.ContentLength
	if total < 0 {
		total = m.SizeBytes
	}

	dest := filepath.Join(s.Dir, m.Filename)
	tmp := dest + ".downloading"
	out, err := os.Create(tmp)
	if err != nil {
		return "", fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp)

	_, err = io.Copy(out, &progressReader{r: resp.Body, total: total, fn: onProgress})
	if closeErr := out.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return "", fmt.Errorf("failed to write model: %w", err)
	}

	if err := os.Rename(tmp, dest); err != nil {
		return "", fmt.Errorf("failed to finalize download: %w", err)
	}
	return dest, nil
}

func (s *Store) Remove(id string) error {
	path, err := s.Path(id)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("model not installed: %s", id)
		}
		return fmt.Errorf("failed to remove model: %w", err)
	}
	return nil
}

type progressReader struct {
	r     io.Reader
	total int64
	done  int64
	fn    ProgressFunc
}

func (p *progressReader) Read(b []byte) (int, error) {
	n, err := p.r.Read(b)
	if n > 0 {
		p.done += int64(n)
		if p.fn != nil {
			p.fn(p.done, p.total)
		}
	}
	return n, err
}
