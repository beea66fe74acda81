package app

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/deploymenttheory/go-extfs/internal/disk"
)

// Context holds application-wide configuration and state
type Context struct {
	context.Context

	// Output preferences
	OutputFormat string
	Verbose      bool
	Quiet        bool
	NoColor      bool

	// Timeout bounds a whole command, zero for none
	Timeout time.Duration

	// Logger receives diagnostics on stderr so formatted output on stdout
	// stays machine-readable
	Logger *logrus.Logger

	// Config holds the image settings loaded from file, environment and flags
	Config *disk.ImageConfig

	// Progress reporting
	ProgressCallback func(message string, percent int)
}

// NewContext creates a new application context
func NewContext() *Context {
	logger := logrus.New()
	logger.SetOutput(os.Stderr)
	logger.SetLevel(logrus.InfoLevel)

	return &Context{
		Context: context.Background(),
		Logger:  logger,
		Config:  disk.DefaultImageConfig(),
	}
}

// SetVerbosity applies the verbose and quiet flags to the logger
func (c *Context) SetVerbosity(verbose, quiet bool) {
	c.Verbose = verbose
	c.Quiet = quiet
	switch {
	case quiet:
		c.Logger.SetLevel(logrus.ErrorLevel)
	case verbose:
		c.Logger.SetLevel(logrus.DebugLevel)
	default:
		c.Logger.SetLevel(logrus.InfoLevel)
	}
	c.Logger.SetFormatter(&logrus.TextFormatter{DisableColors: c.NoColor, DisableTimestamp: !verbose})
}

// SetLogOutput redirects diagnostics, mainly for tests
func (c *Context) SetLogOutput(w io.Writer) {
	c.Logger.SetOutput(w)
}

// WithTimeout creates a context with timeout
func (c *Context) WithTimeout(timeout time.Duration) (*Context, context.CancelFunc) {
	ctx, cancel := context.WithTimeout(c.Context, timeout)
	newCtx := *c
	newCtx.Context = ctx
	return &newCtx, cancel
}

// WithDeadline applies Timeout. Without one the returned context is only
// cancellable.
func (c *Context) WithDeadline() (*Context, context.CancelFunc) {
	if c.Timeout <= 0 {
		return c.WithCancel()
	}
	return c.WithTimeout(c.Timeout)
}

// WithCancel creates a cancellable context
func (c *Context) WithCancel() (*Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(c.Context)
	newCtx := *c
	newCtx.Context = ctx
	return &newCtx, cancel
}

// SetProgress sets the progress callback function
func (c *Context) SetProgress(callback func(string, int)) {
	c.ProgressCallback = callback
}

// Progress reports progress if callback is set
func (c *Context) Progress(message string, percent int) {
	if c.ProgressCallback != nil {
		c.ProgressCallback(message, percent)
	}
}

// ReportProgress forwards an update to the progress callback and logs it
// with its rate and ETA at debug level
func (c *Context) ReportProgress(update *ProgressUpdate) {
	percent := update.Percent()
	c.Logger.WithFields(logrus.Fields{
		"completed": update.Completed,
		"total":     update.Total,
		"rate":      fmt.Sprintf("%.1f/s", update.Rate()),
		"eta":       update.ETA().Round(time.Millisecond),
	}).Debug(update.Message)
	c.Progress(update.Message, percent)
}

// Log outputs a debug message, shown with --verbose
func (c *Context) Log(message string) {
	c.Logger.Debug(message)
}

// Error outputs an error message unless quiet
func (c *Context) Error(message string) {
	c.Logger.Error(message)
}
