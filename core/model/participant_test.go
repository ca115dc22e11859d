package model

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConsumerLoadAt(t *testing.T) {
	c := NewConsumer("cons1", []float64{0.5, 0.25, 0.0, 0.25}, 1000)
	want := []float64{500, 250, 0, 250}
	for f, w := range want {
		if got := c.LoadAt(f); got != w {
			t.Errorf("frame %d: got %v want %v", f, got, w)
		}
	}
}

func TestAlwaysOnLoadAt(t *testing.T) {
	a := NewAlwaysOn("ao", []float64{1, 0.5}, 1000)
	assert.Equal(t, 1000.0, a.LoadAt(0))
	assert.Equal(t, 500.0, a.LoadAt(1))
	assert.Equal(t, 1000.0, a.TotalProduction())
}

func TestDispatchable(t *testing.T) {
	d := NewDispatchable("disp1", 10, 2, 3, DefaultHorizon)

	assert.Equal(t, "disp1", d.Key)
	assert.Equal(t, 10.0, d.Cost())
	assert.Equal(t, 2.0, d.Capacity())
	assert.Equal(t, 3.0, d.Units())
	assert.Equal(t, 6.0, d.TotalCapacity())
	assert.Equal(t, 0.0, d.LoadAt(0))

	v, err := d.SetLoadAt(0, 50)
	require.NoError(t, err)
	assert.Equal(t, 50.0, v)
	assert.Equal(t, 50.0, d.LoadAt(0))

	d.ResetLoad()
	assert.Equal(t, 0.0, d.LoadAt(0))
}

func TestDispatchableSetLoadOutOfRange(t *testing.T) {
	d := NewDispatchable("d", 1, 1, 1, 4)
	for _, f := range []int{4, 5, -1} {
		_, err := d.SetLoadAt(f, 1)
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrFrameOutOfRange))
		var fe *FrameError
		require.True(t, errors.As(err, &fe))
		assert.Equal(t, f, fe.Frame)
	}
	assert.Equal(t, []float64{0, 0, 0, 0}, d.Loads())
}

func TestProfileValidation(t *testing.T) {
	assert.NoError(t, NewConsumer("c", make([]float64, 3), 1).Validate(3))
	err := NewAlwaysOn("a", make([]float64, 2), 1).Validate(3)
	assert.ErrorIs(t, err, ErrProfileLength)
}

func TestValidateHorizon(t *testing.T) {
	assert.NoError(t, ValidateHorizon(DefaultHorizon))
	assert.ErrorIs(t, ValidateHorizon(0), ErrInvalidHorizon)
	assert.ErrorIs(t, ValidateHorizon(-5), ErrInvalidHorizon)
}
