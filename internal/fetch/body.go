package fetch

import (
	"context"
	"io"
)

// cancelOnClose ties the per-call timeout context to the body lifetime.
type cancelOnClose struct {
	io.ReadCloser
	cancel context.CancelFunc
}

func (c *cancelOnClose) Close() error {
	err := c.ReadCloser.Close()
	c.cancel()
	return err
}
