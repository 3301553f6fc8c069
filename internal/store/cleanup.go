package store

import (
	"log/slog"
	"sync"
)

// ImageDeleter removes a stored image. Implementations must treat a missing
// file as success and ignore paths they do not manage.
type ImageDeleter interface {
	DeleteImage(path string) error
}

// cleaner runs image deletions in the background, one at a time and in the
// order they were requested. Failures are logged and otherwise dropped: a
// failed delete leaves an orphaned file, never a dangling reference.
type cleaner struct {
	images ImageDeleter
	logger *slog.Logger

	mu     sync.Mutex
	queue  []string
	closed bool

	wake chan struct{}
	done chan struct{}
}

func newCleaner(images ImageDeleter, logger *slog.Logger) *cleaner {
	c := &cleaner{
		images: images,
		logger: logger,
		wake:   make(chan struct{}, 1),
		done:   make(chan struct{}),
	}
	go c.run()
	return c
}

// enqueue schedules path for deletion and returns immediately.
func (c *cleaner) enqueue(path string) {
	if path == "" || c.images == nil {
		return
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		c.logger.Warn("image cleanup after close, leaving file", "path", path)
		return
	}
	c.queue = append(c.queue, path)
	c.mu.Unlock()

	c.signal()
}

func (c *cleaner) signal() {
	select {
	case c.wake <- struct{}{}:
	default:
	}
}

func (c *cleaner) run() {
	defer close(c.done)
	for {
		c.mu.Lock()
		if len(c.queue) == 0 {
			closed := c.closed
			c.mu.Unlock()
			if closed {
				return
			}
			<-c.wake
			continue
		}
		path := c.queue[0]
		c.queue = c.queue[1:]
		c.mu.Unlock()

		if err := c.images.DeleteImage(path); err != nil {
			c.logger.Warn("failed to delete image", "path", path, "error", err)
		}
	}
}

// close waits for every queued deletion to finish.
func (c *cleaner) close() {
	c.mu.Lock()
	c.closed = true
	c.mu.Unlock()
	c.signal()
	<-c.done
}
