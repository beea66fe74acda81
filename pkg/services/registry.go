package services

import (
	"fmt"
	"sync"

	"github.com/deploymenttheory/go-extfs/internal/interfaces"
	core "github.com/deploymenttheory/go-extfs/internal/services"
	"github.com/deploymenttheory/go-extfs/internal/types"
)

// Registry keeps filesystem drivers in registration order. Detection probes
// them in that order, so more specific drivers should register first.
type Registry struct {
	drivers []interfaces.FilesystemDriver
	mu      sync.RWMutex
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{}
}

// NewDefaultRegistry creates a registry holding every built-in driver
func NewDefaultRegistry(opts core.MountOptions) *Registry {
	r := NewRegistry()
	// Registration into an empty registry cannot collide
	_ = r.Register(NewExtDriver(opts))
	return r
}

// Register adds a driver. Names must be unique.
func (r *Registry) Register(driver interfaces.FilesystemDriver) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, d := range r.drivers {
		if d.Name() == driver.Name() {
			return fmt.Errorf("%w: %s", ErrDriverExists, driver.Name())
		}
	}
	r.drivers = append(r.drivers, driver)
	return nil
}

// Driver returns the driver registered under name
func (r *Registry) Driver(name string) (interfaces.FilesystemDriver, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, d := range r.drivers {
		if d.Name() == name {
			return d, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrDriverNotFound, name)
}

// Names lists the registered driver names in probe order
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, len(r.drivers))
	for i, d := range r.drivers {
		names[i] = d.Name()
	}
	return names
}

// Detect returns the first driver whose probe accepts disk
func (r *Registry) Detect(disk interfaces.DiskReader) (interfaces.FilesystemDriver, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, d := range r.drivers {
		if d.Probe(disk) {
			return d, nil
		}
	}
	return nil, fmt.Errorf("%w: %w", types.ErrBadFilesystem, ErrNoDriver)
}

// Mount detects the filesystem on disk and mounts it
func (r *Registry) Mount(disk interfaces.DiskReader) (interfaces.Volume, error) {
	driver, err := r.Detect(disk)
	if err != nil {
		return nil, err
	}
	return driver.Mount(disk)
}
