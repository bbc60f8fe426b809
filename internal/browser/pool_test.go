package browser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// chromedp launches the browser process lazily on first use, so
// constructing and closing a pool is exercisable without Chrome
// installed.

func TestNewPool_DefaultsTimeoutAndEstablishesBrowserContext(t *testing.T) {
	p, err := NewPool(Options{})
	require.NoError(t, err)
	defer p.Close()

	assert.Equal(t, 30_000, p.opts.TimeoutMS)
	assert.NotNil(t, p.browserCtx)
	assert.Equal(t, 0, p.Size())
}

func TestNewPool_KeepsExplicitTimeout(t *testing.T) {
	p, err := NewPool(Options{TimeoutMS: 5_000})
	require.NoError(t, err)
	defer p.Close()
	assert.Equal(t, 5_000, p.opts.TimeoutMS)
}

func TestPool_CloseIsIdempotent(t *testing.T) {
	p, err := NewPool(Options{})
	require.NoError(t, err)
	p.Close()
	p.Close()
}
