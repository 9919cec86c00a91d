package gds

// Budgets used by paged controllers to size their transfers.
const (
	// PageBudget bounds a grayscale page transfer, in bytes.
	PageBudget = 1024
	// WindowBudget bounds a color window transfer, in bytes.
	WindowBudget = 2048
	// MaxPageLines caps the number of lines of a page.
	MaxPageLines = 8
)

// Shadow is the controller's copy of what was last sent to the panel. An
// update compares the framebuffer against it and copies every byte it
// looked at, whether the following transfer succeeds or not.
type Shadow struct {
	Buf  []byte
	Fill byte

	stale bool
}

// AllocShadow takes a framebuffer sized shadow from d in pool p and fills it
// with fill. The buffer is released with the device.
func AllocShadow(d *Device, p Pool, fill byte) (*Shadow, error) {
	buf, err := d.Alloc(len(d.Framebuffer()), p)
	if err != nil {
		return nil, err
	}
	s := &Shadow{Buf: buf, Fill: fill}
	s.Invalidate()
	return s, nil
}

// Invalidate refills the shadow and forces the next scan to report every
// byte as changed.
func (s *Shadow) Invalidate() {
	for i := range s.Buf {
		s.Buf[i] = s.Fill
	}
	s.stale = true
}

// Done ends an update cycle.
func (s *Shadow) Done() { s.stale = false }

// Span compares frame[lo:hi] with the shadow, copies it over, and returns
// the first and last differing offsets relative to lo. It returns -1, -1
// when nothing changed.
func (s *Shadow) Span(frame []byte, lo, hi int) (first, last int) {
	first, last = -1, -1
	if s.stale {
		copy(s.Buf[lo:hi], frame[lo:hi])
		if hi > lo {
			return 0, hi - lo - 1
		}
		return
	}
	for i := lo; i < hi; i++ {
		if s.Buf[i] != frame[i] {
			if first < 0 {
				first = i - lo
			}
			last = i - lo
			s.Buf[i] = frame[i]
		}
	}
	return
}

// Changed is Span for callers that only need to know whether frame[lo:hi]
// moved.
func (s *Shadow) Changed(frame []byte, lo, hi int) bool {
	first, _ := s.Span(frame, lo, hi)
	return first >= 0
}

// Window remembers the last column window programmed in the controller.
type Window struct {
	First, Last int

	valid bool
}

// Reuse returns the window to program for a change spanning [first, last].
// The previous window is kept when first and last each sit within tol of its
// edges on the inner side, and kept then reports that no command is needed.
func (w *Window) Reuse(first, last, tol int) (start, end int, kept bool) {
	if w.valid && first >= w.First && first <= w.First+tol && last <= w.Last && last >= w.Last-tol {
		return w.First, w.Last, true
	}
	w.First, w.Last, w.valid = first, last, true
	return first, last, false
}

// Reset forgets the programmed window.
func (w *Window) Reset() { w.valid = false }

// PageLines returns the number of lines of a page: budget/lineBytes capped
// at max, then lowered until it divides height. It is at least 1.
func PageLines(height, lineBytes, budget, max int) int {
	n := 1
	if lineBytes > 0 {
		n = budget / lineBytes
	}
	if n > max {
		n = max
	}
	for n > 1 && height%n != 0 {
		n--
	}
	if n < 1 {
		n = 1
	}
	return n
}

// Transform copies src into dst, possibly altering bytes on the way.
// len(dst) == len(src).
type Transform func(dst, src []byte)

// Copy is the identity Transform.
func Copy(dst, src []byte) { copy(dst, src) }

// SwapWords exchanges the two bytes of every 16 bits word.
func SwapWords(dst, src []byte) {
	n := len(src) &^ 1
	for i := 0; i < n; i += 2 {
		dst[i], dst[i+1] = src[i+1], src[i]
	}
	if n < len(src) {
		dst[n] = src[n]
	}
}

// Invert complements every byte.
func Invert(dst, src []byte) {
	for i, b := range src {
		dst[i] = ^b
	}
}

// Burst stages data writes in a scratch buffer and sends them in as few bus
// transactions as fit. Without scratch, every write goes to the bus on its
// own.
type Burst struct {
	bus Bus
	buf []byte
	tf  Transform
	raw bool
	n   int
}

// NewBurst returns a Burst writing to bus through scratch.
func NewBurst(bus Bus, scratch []byte, tf Transform) *Burst {
	b := &Burst{bus: bus, buf: scratch, tf: tf}
	if tf == nil {
		b.tf, b.raw = Copy, true
	}
	return b
}

// Write stages p, flushing first when p would not fit.
func (b *Burst) Write(p []byte) error {
	if len(b.buf) == 0 {
		if b.raw {
			return b.bus.WriteData(p)
		}
		tmp := make([]byte, len(p))
		b.tf(tmp, p)
		return b.bus.WriteData(tmp)
	}
	if b.n+len(p) > len(b.buf) {
		if err := b.Flush(); err != nil {
			return err
		}
	}
	for len(p) > len(b.buf) {
		n := len(b.buf) &^ 1
		if n == 0 {
			n = len(b.buf)
		}
		b.tf(b.buf[:n], p[:n])
		if err := b.bus.WriteData(b.buf[:n]); err != nil {
			return err
		}
		p = p[n:]
	}
	b.tf(b.buf[b.n:b.n+len(p)], p)
	b.n += len(p)
	return nil
}

// Flush sends whatever is staged.
func (b *Burst) Flush() error {
	if b.n == 0 {
		return nil
	}
	n := b.n
	b.n = 0
	return b.bus.WriteData(b.buf[:n])
}

// Pending returns the number of staged bytes.
func (b *Burst) Pending() int { return b.n }
