package logic

// window is a fixed-depth circular history of raw readings.
// The oldest reading is overwritten on every push.
type window struct {
	buf []int
	pos int
}

func newWindow(depth int) *window {
	if depth < 1 {
		depth = 1
	}
	return &window{buf: make([]int, depth)}
}

func (w *window) push(v int) {
	w.buf[w.pos] = v
	w.pos = (w.pos + 1) % len(w.buf)
}

// fill sets every slot to v so the mean starts at v.
func (w *window) fill(v int) {
	for i := range w.buf {
		w.buf[i] = v
	}
	w.pos = 0
}

// mean returns the unweighted integer mean, truncated toward zero.
func (w *window) mean() int {
	sum := 0
	for _, v := range w.buf {
		sum += v
	}
	return sum / len(w.buf)
}
