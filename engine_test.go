package gds_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flavioheleno/gds"
	"github.com/flavioheleno/gds/gdstest"
)

func TestShadowSpan(t *testing.T) {
	s := &gds.Shadow{Buf: make([]byte, 8)}
	frame := make([]byte, 8)

	first, last := s.Span(frame, 0, 8)
	assert.Equal(t, []int{-1, -1}, []int{first, last})

	frame[3], frame[5] = 1, 2
	first, last = s.Span(frame, 2, 8)
	assert.Equal(t, []int{1, 3}, []int{first, last}, "offsets are relative to lo")
	assert.Equal(t, frame, s.Buf, "scanned bytes are copied")
	assert.False(t, s.Changed(frame, 0, 8))

	s.Fill = 0xAA
	s.Invalidate()
	assert.Equal(t, byte(0xAA), s.Buf[0])
	first, last = s.Span(frame, 0, 4)
	assert.Equal(t, []int{0, 3}, []int{first, last}, "stale shadow reports everything")
	assert.True(t, s.Changed(frame, 4, 8))
	s.Done()
	assert.False(t, s.Changed(frame, 0, 8))
}

func TestWindowReuse(t *testing.T) {
	var w gds.Window
	start, end, kept := w.Reuse(2, 10, 4)
	assert.Equal(t, []int{2, 10}, []int{start, end})
	assert.False(t, kept)

	start, end, kept = w.Reuse(3, 9, 4)
	assert.Equal(t, []int{2, 10}, []int{start, end})
	assert.True(t, kept, "change within tolerance inside the window")

	_, _, kept = w.Reuse(2, 6, 4)
	assert.True(t, kept, "edges exactly at tolerance")

	start, end, kept = w.Reuse(1, 10, 4)
	assert.Equal(t, []int{1, 10}, []int{start, end})
	assert.False(t, kept, "starts before the window")

	start, end, kept = w.Reuse(6, 10, 4)
	assert.Equal(t, []int{6, 10}, []int{start, end})
	assert.False(t, kept, "starts too far inside")

	w.Reset()
	_, _, kept = w.Reuse(6, 10, 4)
	assert.False(t, kept)
}

func TestPageLines(t *testing.T) {
	tests := []struct {
		height, line, budget, max int
		want                      int
	}{
		{64, 128, 1024, 8, 8},
		{64, 240, 1024, 8, 4},
		{128, 64, 1024, 8, 8},
		{60, 128, 1024, 8, 6},
		{7, 128, 1024, 8, 7},
		{13, 128, 1024, 8, 1},
		{64, 4096, 1024, 8, 1},
		{64, 0, 1024, 8, 1},
	}
	for _, tt := range tests {
		got := gds.PageLines(tt.height, tt.line, tt.budget, tt.max)
		assert.Equal(t, tt.want, got, "PageLines(%d, %d, %d, %d)", tt.height, tt.line, tt.budget, tt.max)
		assert.Zero(t, tt.height%got)
	}
}

func TestTransforms(t *testing.T) {
	src := []byte{1, 2, 3, 4, 5}
	dst := make([]byte, 5)
	gds.SwapWords(dst, src)
	assert.Equal(t, []byte{2, 1, 4, 3, 5}, dst)
	gds.Invert(dst, src)
	assert.Equal(t, []byte{0xFE, 0xFD, 0xFC, 0xFB, 0xFA}, dst)
	gds.Copy(dst, src)
	assert.Equal(t, src, dst)
}

func TestBurst(t *testing.T) {
	bus := &gdstest.Bus{}
	b := gds.NewBurst(bus, make([]byte, 4), nil)
	require.NoError(t, b.Write([]byte{1, 2}))
	require.NoError(t, b.Write([]byte{3, 4}))
	assert.Equal(t, 4, b.Pending())
	assert.Empty(t, bus.Ops)
	require.NoError(t, b.Write([]byte{5}))
	require.NoError(t, b.Flush())
	require.NoError(t, b.Flush())
	assert.Equal(t, [][]byte{{1, 2, 3, 4}, {5}}, bus.DataWrites())
}

func TestBurstOversize(t *testing.T) {
	bus := &gdstest.Bus{}
	b := gds.NewBurst(bus, make([]byte, 4), gds.SwapWords)
	require.NoError(t, b.Write([]byte{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}))
	require.NoError(t, b.Flush())
	assert.Equal(t, [][]byte{{2, 1, 4, 3}, {6, 5, 8, 7}, {10, 9}}, bus.DataWrites())
}

func TestBurstWithoutScratch(t *testing.T) {
	bus := &gdstest.Bus{}
	src := []byte{0x0F, 0xF0}
	b := gds.NewBurst(bus, nil, gds.Invert)
	require.NoError(t, b.Write(src))
	assert.Equal(t, [][]byte{{0xF0, 0x0F}}, bus.DataWrites())
	assert.Equal(t, []byte{0x0F, 0xF0}, src, "source left untouched")
	assert.Zero(t, b.Pending())
}

func TestBurstBusFailure(t *testing.T) {
	bus := &gdstest.Bus{FailAfter: 1}
	b := gds.NewBurst(bus, make([]byte, 2), nil)
	require.NoError(t, b.Write([]byte{1, 2}))
	require.NoError(t, b.Write([]byte{3, 4}))
	assert.ErrorIs(t, b.Write([]byte{5}), gdstest.ErrInjected)
}
