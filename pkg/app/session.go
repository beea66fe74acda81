package app

import (
	"github.com/deploymenttheory/go-extfs/internal/disk"
	"github.com/deploymenttheory/go-extfs/pkg/services"
)

// ImageConfig returns the configuration to open target with. An explicit
// partition on the target overrides the configured one.
func (c *Context) ImageConfig(target ImageTarget) *disk.ImageConfig {
	config := disk.DefaultImageConfig()
	if c.Config != nil {
		*config = *c.Config
	}
	if target.Partition >= 0 {
		config.Partition = target.Partition
	}
	return config
}

// OpenSession opens and mounts the image named by target. Failures come
// back as *CommonError.
func (c *Context) OpenSession(target ImageTarget) (*services.Session, error) {
	if err := target.Validate(); err != nil {
		return nil, NewError(ErrCodeInvalidInput, "invalid image target", err)
	}

	c.Log("Opening image " + target.String())
	session, err := services.OpenSession(target.ImagePath, c.ImageConfig(target), c.Logger)
	if err != nil {
		return nil, TranslateError(err)
	}
	return session, nil
}
