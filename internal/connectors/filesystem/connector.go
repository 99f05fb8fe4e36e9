// Package filesystem turns a local drop folder into a stream of upload items.
// Scan yields what is already there; Watch follows new and rewritten files.
package filesystem

import (
	"context"
	"fmt"
	"io/fs"
	"mime"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/gabriel-vasile/mimetype"

	"github.com/lessonkit/refpipe/internal/core/domain"
	"github.com/lessonkit/refpipe/internal/logger"
)

// DefaultSettleDelay is how long a path must stay quiet before it is emitted.
const DefaultSettleDelay = 500 * time.Millisecond

// DefaultMaxFileSize skips files larger than this.
const DefaultMaxFileSize = 256 << 20

// Connector reads lesson materials from a local directory tree.
type Connector struct {
	root     string
	lessonID string
	category string
	settle   time.Duration
	maxSize  int64

	mu      sync.Mutex
	watcher *fsnotify.Watcher
	closed  bool
}

// Option configures a Connector.
type Option func(*Connector)

// WithCategory labels every item with a target category.
func WithCategory(category string) Option {
	return func(c *Connector) {
		c.category = category
	}
}

// WithSettleDelay sets the quiet period before a changed file is emitted.
// Zero emits on every event.
func WithSettleDelay(d time.Duration) Option {
	return func(c *Connector) {
		if d >= 0 {
			c.settle = d
		}
	}
}

// WithMaxFileSize skips files larger than n bytes.
func WithMaxFileSize(n int64) Option {
	return func(c *Connector) {
		if n > 0 {
			c.maxSize = n
		}
	}
}

// New creates a connector for root whose items belong to lessonID.
func New(root, lessonID string, opts ...Option) *Connector {
	c := &Connector{
		root:     root,
		lessonID: lessonID,
		settle:   DefaultSettleDelay,
		maxSize:  DefaultMaxFileSize,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Root returns the watched directory.
func (c *Connector) Root() string {
	return c.root
}

// Validate checks the root is an existing directory.
func (c *Connector) Validate() error {
	if c.root == "" {
		return fmt.Errorf("%w: root path is required", domain.ErrInvalidInput)
	}
	info, err := os.Stat(c.root)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%w: %s is not a directory", domain.ErrInvalidInput, c.root)
	}
	return nil
}

// Scan walks the tree and yields every visible file.
// Both channels are closed when the walk ends.
func (c *Connector) Scan(ctx context.Context) (<-chan domain.UploadItem, <-chan error) {
	items := make(chan domain.UploadItem)
	errs := make(chan error, 1)

	go func() {
		defer close(items)
		defer close(errs)

		err := filepath.WalkDir(c.root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if path != c.root && isHidden(d.Name()) {
				if d.IsDir() {
					return filepath.SkipDir
				}
				return nil
			}
			if d.IsDir() {
				return nil
			}

			item, err := c.read(path)
			if err != nil {
				logger.Warn("skip %s: %v", path, err)
				return nil
			}
			if item == nil {
				return nil
			}
			select {
			case items <- *item:
			case <-ctx.Done():
				return ctx.Err()
			}
			return nil
		})
		if err != nil {
			errs <- err
		}
	}()

	return items, errs
}

// Watch follows the tree for created and rewritten files.
// The channel is closed when ctx is cancelled or the connector is closed.
func (c *Connector) Watch(ctx context.Context) (<-chan domain.UploadItem, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil, fmt.Errorf("%w: connector closed", domain.ErrInvalidInput)
	}
	if c.watcher != nil {
		return nil, fmt.Errorf("%w: already watching %s", domain.ErrInvalidInput, c.root)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	if err := c.addTree(watcher, c.root); err != nil {
		_ = watcher.Close()
		return nil, err
	}
	c.watcher = watcher

	out := make(chan domain.UploadItem)
	go c.loop(ctx, watcher, out)
	return out, nil
}

func (c *Connector) loop(ctx context.Context, watcher *fsnotify.Watcher, out chan<- domain.UploadItem) {
	defer close(out)

	ready := make(chan string)
	done := make(chan struct{})
	defer close(done)
	pending := make(map[string]*time.Timer)
	defer func() {
		for _, t := range pending {
			t.Stop()
		}
	}()

	emit := func(path string) {
		delete(pending, path)
		item := c.handleFsEvent(fsnotify.Event{Name: path, Op: fsnotify.Write})
		if item == nil {
			return
		}
		select {
		case out <- *item:
		case <-ctx.Done():
		}
	}

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if event.Has(fsnotify.Create) {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() && !isHidden(info.Name()) {
					if err := c.addTree(watcher, event.Name); err != nil {
						logger.Warn("watch %s: %v", event.Name, err)
					}
					continue
				}
			}
			if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
				continue
			}
			if c.settle == 0 {
				emit(event.Name)
				continue
			}
			if t, ok := pending[event.Name]; ok {
				t.Reset(c.settle)
				continue
			}
			path := event.Name
			pending[path] = time.AfterFunc(c.settle, func() {
				select {
				case ready <- path:
				case <-done:
				}
			})

		case path := <-ready:
			emit(path)

		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			logger.Warn("watch %s: %v", c.root, err)
		}
	}
}

// addTree registers dir and every visible subdirectory with the watcher.
func (c *Connector) addTree(watcher *fsnotify.Watcher, dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != c.root && isHidden(d.Name()) {
			return filepath.SkipDir
		}
		if err := watcher.Add(path); err != nil {
			return fmt.Errorf("watch %s: %w", path, err)
		}
		return nil
	})
}

// handleFsEvent converts a filesystem event into an upload item.
// Removals, renames, permission changes, directories and hidden files yield nil.
func (c *Connector) handleFsEvent(event fsnotify.Event) *domain.UploadItem {
	if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
		return nil
	}
	if c.hidden(event.Name) {
		return nil
	}
	item, err := c.read(event.Name)
	if err != nil {
		logger.Debug("skip %s: %v", event.Name, err)
		return nil
	}
	return item
}

// read loads a regular file as an upload item. Directories and
// oversized or empty files yield nil without error.
func (c *Connector) read(path string) (*domain.UploadItem, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if info.IsDir() || !info.Mode().IsRegular() {
		return nil, nil
	}
	if info.Size() == 0 {
		return nil, nil
	}
	if info.Size() > c.maxSize {
		logger.Warn("skip %s: %d bytes exceeds limit of %d", path, info.Size(), c.maxSize)
		return nil, nil
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	name := path
	if rel, err := filepath.Rel(c.root, path); err == nil {
		name = filepath.ToSlash(rel)
	}

	return &domain.UploadItem{
		Name:     name,
		MIMEType: detectMIMEType(content),
		Content:  content,
		LessonID: c.lessonID,
		Category: c.category,
	}, nil
}

// Close stops watching. It is idempotent.
func (c *Connector) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil
	}
	c.closed = true
	if c.watcher != nil {
		return c.watcher.Close()
	}
	return nil
}

// hidden checks for dot-prefixed elements below the root.
func (c *Connector) hidden(path string) bool {
	if rel, err := filepath.Rel(c.root, path); err == nil {
		return isHidden(rel)
	}
	return isHidden(path)
}

// detectMIMEType sniffs the content type without parameters.
func detectMIMEType(content []byte) string {
	detected := mimetype.Detect(content).String()
	mediaType, _, err := mime.ParseMediaType(detected)
	if err != nil {
		return detected
	}
	return mediaType
}

// isHidden reports whether any element of path starts with a dot.
// "." and ".." are not hidden.
func isHidden(path string) bool {
	for _, part := range strings.Split(filepath.ToSlash(path), "/") {
		if len(part) > 1 && part[0] == '.' && part != ".." {
			return true
		}
	}
	return false
}
