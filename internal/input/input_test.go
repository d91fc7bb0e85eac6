package input

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSleep_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	start := time.Now()
	err := Sleep(ctx, time.Minute)
	require.ErrorIs(t, err, context.Canceled)
	assert.Less(t, time.Since(start), time.Second)
}

func TestSleep_Elapses(t *testing.T) {
	require.NoError(t, Sleep(context.Background(), time.Millisecond))
	require.NoError(t, Sleep(context.Background(), 0))
}

func TestFake_Records(t *testing.T) {
	f := NewFake()
	require.NoError(t, f.PressKey("w"))
	require.NoError(t, f.PressCombination("w", "a"))
	require.NoError(t, f.TypeChar('g'))
	require.NoError(t, f.TypeChar('g'))
	require.NoError(t, f.Click("left", 2))

	assert.Equal(t, []string{"key:w", "combo:w+a", "char:g", "char:g", "click:left:2"}, f.Events())
	assert.Equal(t, "gg", f.Typed())

	f.Reset()
	assert.Empty(t, f.Events())
}

func TestFake_Fail(t *testing.T) {
	f := &Fake{Fail: errors.New("no display")}
	assert.Error(t, f.PressKey("w"))
	assert.Empty(t, f.Events())
}
