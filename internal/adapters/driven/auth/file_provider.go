package auth

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"

	"github.com/custodia-labs/sercha-extract/internal/core/domain"
	"github.com/custodia-labs/sercha-extract/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-extract/internal/logger"
)

// Ensure FileTokenProvider implements the TokenProvider interface.
var _ driven.TokenProvider = (*FileTokenProvider)(nil)

// FileTokenProvider reads a token from a file and reloads it when the file
// changes, so rotated material is picked up by the next pass.
type FileTokenProvider struct {
	path   string
	method domain.AuthMethod

	mu    sync.RWMutex
	token string
	err   error

	watcher *fsnotify.Watcher
	done    chan struct{}
	wg      sync.WaitGroup
}

// NewFileTokenProvider loads path and starts watching it. The parent
// directory is watched so editors that replace the file are handled.
func NewFileTokenProvider(path string, method domain.AuthMethod) (*FileTokenProvider, error) {
	path = expandHome(path)
	p := &FileTokenProvider{
		path:   filepath.Clean(path),
		method: method,
		done:   make(chan struct{}),
	}
	p.reload()

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	if err := w.Add(filepath.Dir(p.path)); err != nil {
		_ = w.Close()
		return nil, fmt.Errorf("watch %s: %w", filepath.Dir(p.path), err)
	}
	p.watcher = w

	p.wg.Add(1)
	go p.watch()
	return p, nil
}

func (p *FileTokenProvider) watch() {
	defer p.wg.Done()
	for {
		select {
		case <-p.done:
			return
		case event, ok := <-p.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != p.path {
				continue
			}
			switch {
			case event.Has(fsnotify.Create), event.Has(fsnotify.Write):
				p.reload()
				logger.Debug("token file %s reloaded", p.path)
			case event.Has(fsnotify.Remove), event.Has(fsnotify.Rename):
				p.set("", fmt.Errorf("%w: token file %s removed", domain.ErrAuthRequired, p.path))
			}
		case err, ok := <-p.watcher.Errors:
			if !ok {
				return
			}
			logger.Warn("token file watcher: %v", err)
		}
	}
}

func (p *FileTokenProvider) reload() {
	data, err := os.ReadFile(p.path)
	if err != nil {
		p.set("", fmt.Errorf("%w: read token file: %w", domain.ErrAuthRequired, err))
		return
	}
	token := strings.TrimSpace(string(data))
	if token == "" {
		p.set("", fmt.Errorf("%w: token file %s is empty", domain.ErrAuthRequired, p.path))
		return
	}
	p.set(token, nil)
}

func (p *FileTokenProvider) set(token string, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.token = token
	p.err = err
}

// GetToken returns the most recently loaded token.
func (p *FileTokenProvider) GetToken(_ context.Context) (string, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.token, p.err
}

// AuthMethod returns the declared method.
func (p *FileTokenProvider) AuthMethod() domain.AuthMethod {
	return p.method
}

// IsAuthenticated reports whether a token is currently loaded.
func (p *FileTokenProvider) IsAuthenticated() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.token != ""
}

// Close stops watching the file.
func (p *FileTokenProvider) Close() error {
	select {
	case <-p.done:
		return nil
	default:
	}
	close(p.done)
	err := p.watcher.Close()
	p.wg.Wait()
	return err
}

func expandHome(path string) string {
	if !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, path[2:])
}
