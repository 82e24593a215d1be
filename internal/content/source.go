// Package content loads the externally authored exercise content of a language.
package content

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/spf13/afero"

	"github.com/conorfennell/wordquiz/internal/gitsource"
)

// ErrNotFound is returned by a Source when a content file does not exist.
var ErrNotFound = errors.New("content file not found")

// Source opens content files by slash-separated name relative to its root.
type Source interface {
	Open(ctx context.Context, name string) (io.ReadCloser, error)
	String() string
}

// Syncer is implemented by sources that keep a local copy up to date.
type Syncer interface {
	Sync(ctx context.Context) error
}

// HTTPSource fetches files below a base URL.
type HTTPSource struct {
	baseURL string
	client  *http.Client
}

// NewHTTPSource returns a source reading from baseURL with the given request timeout.
func NewHTTPSource(baseURL string, timeout time.Duration) *HTTPSource {
	return &HTTPSource{
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
	}
}

func (s *HTTPSource) String() string { return s.baseURL }

func (s *HTTPSource) Open(ctx context.Context, name string) (io.ReadCloser, error) {
	target, err := url.JoinPath(s.baseURL, name)
	if err != nil {
		return nil, fmt.Errorf("failed to build url for %s: %w", name, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request for %s: %w", target, err)
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to download %s: %w", target, err)
	}
	switch {
	case resp.StatusCode == http.StatusNotFound:
		resp.Body.Close()
		return nil, fmt.Errorf("%s: %w", target, ErrNotFound)
	case resp.StatusCode != http.StatusOK:
		resp.Body.Close()
		return nil, fmt.Errorf("failed to download %s: status %s", target, resp.Status)
	}
	return resp.Body, nil
}

// DirSource reads files below a directory of an afero filesystem.
type DirSource struct {
	fs   afero.Fs
	root string
}

func NewDirSource(fs afero.Fs, root string) *DirSource {
	return &DirSource{fs: fs, root: root}
}

func (s *DirSource) String() string { return s.root }

func (s *DirSource) Open(_ context.Context, name string) (io.ReadCloser, error) {
	path := filepath.Join(s.root, filepath.FromSlash(name))
	f, err := s.fs.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%s: %w", path, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	return f, nil
}

// GitSource reads files from a local checkout of a git repository. The
// checkout is cloned on first use and pulled on every Sync.
type GitSource struct {
	url  string
	dir  *DirSource
	path string

	mu     sync.Mutex
	synced bool
}

// NewGitSource checks out repoURL below cacheDir.
func NewGitSource(repoURL, cacheDir string) (*GitSource, error) {
	path, err := gitsource.LocalPath(cacheDir, repoURL)
	if err != nil {
		return nil, err
	}
	return &GitSource{
		url:  repoURL,
		path: path,
		dir:  NewDirSource(afero.NewOsFs(), path),
	}, nil
}

func (s *GitSource) String() string { return s.url }

func (s *GitSource) Sync(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := gitsource.Sync(ctx, s.url, s.path); err != nil {
		return err
	}
	s.synced = true
	return nil
}

func (s *GitSource) Open(ctx context.Context, name string) (io.ReadCloser, error) {
	s.mu.Lock()
	synced := s.synced
	s.mu.Unlock()
	if !synced {
		if err := s.Sync(ctx); err != nil {
			return nil, err
		}
	}
	return s.dir.Open(ctx, name)
}
