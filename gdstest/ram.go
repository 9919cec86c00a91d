package gdstest

import (
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/flavioheleno/gds"
)

// RAM models the display memory of a controller, fed with the writes a Bus
// recorded.
type RAM interface {
	Apply(op Op)
	// Abort drops a command cut short by a failed transfer.
	Abort()
	// Frame returns the memory shown on the panel in the framebuffer
	// layout.
	Frame() []byte
}

// CheckRAM draws at random on d for the given number of rounds and
// requires ram, fed with everything d sends on bus, to equal the
// framebuffer after every successful Update. One round in 17 runs an
// Update that fails after a few writes and one in 53 switches to one of
// layouts, when given. bus is reset along the way.
func CheckRAM(t testing.TB, d *gds.Device, bus *Bus, ram RAM, rounds int, layouts ...gds.Layout) {
	t.Helper()
	feed := func() {
		for _, op := range bus.Ops {
			ram.Apply(op)
		}
		bus.Reset()
	}
	feed()
	require.Equal(t, d.Framebuffer(), ram.Frame(), "after init")

	r := rand.New(rand.NewPCG(uint64(d.Width()), uint64(d.Height())))
	failed := 0
	for i := 1; i <= rounds; i++ {
		Scribble(d, r)
		if len(layouts) > 0 && i%53 == 0 {
			require.NoError(t, d.SetLayout(layouts[r.IntN(len(layouts))]))
		}
		if i%17 == 0 {
			bus.FailAfter = 1 + r.IntN(8)
		}
		err := d.Update()
		feed()
		if err != nil {
			require.ErrorIs(t, err, ErrInjected, "round %d", i)
			require.True(t, d.Dirty())
			ram.Abort()
			failed++
			continue
		}
		require.Equal(t, d.Framebuffer(), ram.Frame(), "round %d", i)
	}
	require.NotZero(t, failed, "no Update failed")

	require.NoError(t, d.Update())
	feed()
	require.Equal(t, d.Framebuffer(), ram.Frame(), "last round")
	require.NoError(t, d.Update())
	require.Empty(t, bus.Ops, "clean device")
}

// CommandStream splits bytes sent as commands into whole commands, for
// controllers taking their arguments on the command channel.
type CommandStream struct {
	// Args returns the number of argument bytes following cmd.
	Args func(cmd byte) int

	cur  []byte
	need int
}

// Next feeds b. It returns the command and its arguments once complete.
func (s *CommandStream) Next(b byte) ([]byte, bool) {
	if len(s.cur) == 0 {
		s.need = s.Args(b)
	} else {
		s.need--
	}
	s.cur = append(s.cur, b)
	if s.need > 0 {
		return nil, false
	}
	cmd := s.cur
	s.cur = nil
	return cmd, true
}

// Abort drops a partial command.
func (s *CommandStream) Abort() { s.cur = nil }
