package shader

import (
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/Carmen-Shannon/automation/tools/worker"
	"go.uber.org/zap"
)

// Source is one shader to preload.
type Source struct {
	Key  string
	Code string
}

// Library caches reflected shaders by key. It is safe for concurrent use.
type Library struct {
	mu      sync.RWMutex
	shaders map[string]Shader
	pp      PreProcessor
	logger  *zap.Logger

	validate bool
	workers  int
}

// LibraryOption configures a Library.
type LibraryOption func(*Library)

// WithLibraryLogger sets the library logger.
func WithLibraryLogger(logger *zap.Logger) LibraryOption {
	return func(l *Library) {
		if logger != nil {
			l.logger = logger
		}
	}
}

// WithLibraryValidation validates every loaded shader with naga.
func WithLibraryValidation(enabled bool) LibraryOption {
	return func(l *Library) {
		l.validate = enabled
	}
}

// WithWorkers sets the number of preload workers.
func WithWorkers(n int) LibraryOption {
	return func(l *Library) {
		if n > 0 {
			l.workers = n
		}
	}
}

// NewLibrary creates an empty Library with its own include PreProcessor.
func NewLibrary(opts ...LibraryOption) *Library {
	l := &Library{
		shaders: make(map[string]Shader),
		pp:      NewPreProcessor(),
		logger:  zap.NewNop(),
		workers: 4,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// PreProcessor returns the include pre-processor applied to every loaded source.
func (l *Library) PreProcessor() PreProcessor {
	return l.pp
}

// Load reflects source and caches it under key. Loading an existing key returns the cached shader
// without reflecting again.
//
// Parameters:
//   - key: the shader key
//   - source: the WGSL source
//
// Returns:
//   - Shader: the cached or newly reflected shader
//   - error: reflection or validation error
func (l *Library) Load(key, source string) (Shader, error) {
	if s, ok := l.Get(key); ok {
		return s, nil
	}

	start := time.Now()
	s, err := NewShader(key, source, WithPreProcessor(l.pp), WithValidation(l.validate))
	if err != nil {
		return nil, err
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if existing, ok := l.shaders[key]; ok {
		return existing, nil
	}
	l.shaders[key] = s
	l.logger.Debug("shader loaded",
		zap.String("shader", key),
		zap.Int("bindings", len(s.Descriptor().Bindings)),
		zap.Duration("elapsed", time.Since(start)),
	)
	return s, nil
}

// Get returns the shader cached under key.
func (l *Library) Get(key string) (Shader, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	s, ok := l.shaders[key]
	return s, ok
}

// MustGet returns the shader cached under key and panics when it is missing.
func (l *Library) MustGet(key string) Shader {
	s, ok := l.Get(key)
	if !ok {
		panic(fmt.Sprintf("shader: %q not loaded", key))
	}
	return s
}

// Keys returns the cached keys in sorted order.
func (l *Library) Keys() []string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	keys := make([]string, 0, len(l.shaders))
	for k := range l.shaders {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Preload reflects and validates sources on a worker pool and blocks until every source is done.
// All failures are joined into the returned error; successful sources stay cached.
//
// Parameters:
//   - sources: the shaders to load
//
// Returns:
//   - error: the joined load errors, nil when every source loaded
func (l *Library) Preload(sources []Source) error {
	if len(sources) == 0 {
		return nil
	}
	pool := worker.NewDynamicWorkerPool(min(l.workers, len(sources)), 256, 1*time.Second)

	var (
		wg     sync.WaitGroup
		errMu  sync.Mutex
		errs   []error
		loaded int
	)
	for i, src := range sources {
		wg.Add(1)
		s := src
		pool.SubmitTask(worker.Task{
			ID: i,
			Do: func() (any, error) {
				defer wg.Done()
				_, err := l.Load(s.Key, s.Code)

				errMu.Lock()
				defer errMu.Unlock()
				if err != nil {
					errs = append(errs, err)
					return nil, err
				}
				loaded++
				return nil, nil
			},
		})
	}
	wg.Wait()

	l.logger.Info("shaders preloaded", zap.Int("loaded", loaded), zap.Int("failed", len(errs)))
	return errors.Join(errs...)
}

// Release releases every cached shader module.
func (l *Library) Release() {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, s := range l.shaders {
		s.Release()
	}
}
