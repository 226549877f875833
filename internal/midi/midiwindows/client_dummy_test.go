//go:build !windows
// +build !windows

package midiwindows

import (
	"errors"
	"testing"

	"github.com/leandrodaf/miditransport/internal/logger"
	"github.com/leandrodaf/miditransport/internal/transport"
	"github.com/leandrodaf/miditransport/sdk/contracts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDummyBackendMakesInitFail(t *testing.T) {
	log := logger.NewNopLogger()
	b, err := NewBackend(&contracts.TransportOptions{Logger: log})
	require.NoError(t, err)

	tr := transport.New(b, transport.Config{}, log)
	err = tr.Init()
	assert.True(t, errors.Is(err, contracts.ErrHardwareInitFailed))
	assert.ErrorIs(t, err, ErrUnavailable)
	assert.Equal(t, contracts.Uninitialized, tr.State())
}
