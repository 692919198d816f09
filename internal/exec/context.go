// Package exec provides the execution context device operations run under:
// one queue per device and the synchronization policy.
package exec

import (
	"os"
	"strconv"
	"sync"

	"github.com/pkg/errors"
	"k8s.io/klog/v2"

	"github.com/born-ml/strider/internal/tensor"
)

// SyncEnv is the environment variable read by ConfigFromEnv.
const SyncEnv = "STRIDER_SYNC"

// Config configures an execution context.
type Config struct {
	// SyncPolicy makes every device-touching operation wait for its queue
	// before returning.
	SyncPolicy bool
}

// DefaultConfig returns the default execution configuration.
func DefaultConfig() Config {
	return Config{SyncPolicy: false}
}

// ConfigFromEnv returns DefaultConfig overridden by STRIDER_SYNC.
// Unparsable values are ignored with a warning.
func ConfigFromEnv() Config {
	cfg := DefaultConfig()
	v, ok := os.LookupEnv(SyncEnv)
	if !ok || v == "" {
		return cfg
	}
	on, err := strconv.ParseBool(v)
	if err != nil {
		klog.Warningf("ignoring %s=%q: %v", SyncEnv, v, err)
		return cfg
	}
	cfg.SyncPolicy = on
	return cfg
}

// Context hands out queues for registered backends and owns the sync policy.
// It is safe for concurrent use.
type Context struct {
	mu       sync.Mutex
	backends map[tensor.Device]tensor.Backend
	queues   map[tensor.Device]tensor.Queue
	sync     bool
}

// New creates a context over the given backends.
func New(cfg Config, backends ...tensor.Backend) *Context {
	c := &Context{
		backends: make(map[tensor.Device]tensor.Backend),
		queues:   make(map[tensor.Device]tensor.Queue),
		sync:     cfg.SyncPolicy,
	}
	for _, b := range backends {
		c.Register(b)
	}
	return c
}

// Register adds a backend, replacing any backend already serving its device.
func (c *Context) Register(b tensor.Backend) {
	c.mu.Lock()
	defer c.mu.Unlock()
	d := b.Device()
	if _, ok := c.backends[d]; ok {
		klog.V(1).Infof("replacing backend for %s with %s", d, b.Name())
	}
	c.backends[d] = b
	delete(c.queues, d)
}

// Backend returns the backend serving d.
func (c *Context) Backend(d tensor.Device) (tensor.Backend, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	b, ok := c.backends[d]
	if !ok {
		return nil, errors.Wrapf(tensor.ErrUnsupportedTransfer, "no backend registered for %s", d)
	}
	return b, nil
}

// Queue returns the queue for d, creating it on first use.
func (c *Context) Queue(d tensor.Device) (tensor.Queue, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if q, ok := c.queues[d]; ok {
		return q, nil
	}
	b, ok := c.backends[d]
	if !ok {
		return nil, errors.Wrapf(tensor.ErrUnsupportedTransfer, "no backend registered for %s", d)
	}
	q := b.NewQueue()
	c.queues[d] = q
	return q, nil
}

// Sync blocks until all work queued on d has completed.
func (c *Context) Sync(d tensor.Device) error {
	q, err := c.Queue(d)
	if err != nil {
		return errors.WithMessage(err, "sync")
	}
	b, err := c.Backend(d)
	if err != nil {
		return errors.WithMessage(err, "sync")
	}
	klog.V(3).Infof("sync %s", d)
	return errors.WithMessagef(b.Finish(q), "sync %s", d)
}

// SyncPolicy reports whether device-touching operations must end with Sync.
func (c *Context) SyncPolicy() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sync
}

// SetSyncPolicy changes the sync policy.
func (c *Context) SetSyncPolicy(on bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sync = on
}
