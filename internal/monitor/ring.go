package monitor

// Ring is a fixed-capacity FIFO buffer of metric samples.
// It keeps a running sum and peak so average and peak queries are O(1).
type Ring struct {
	data []float64
	pos  int
	size int
	sum  float64
	peak float64
}

func NewRing(capacity int) *Ring {
	if capacity < 1 {
		capacity = 1
	}
	return &Ring{
		data: make([]float64, capacity),
	}
}

// Push appends a value, evicting the oldest one when full.
func (r *Ring) Push(v float64) {
	old := r.data[r.pos]
	if r.size == len(r.data) {
		r.sum -= old
	} else {
		r.size++
	}
	r.sum += v

	r.data[r.pos] = v
	r.pos = (r.pos + 1) % len(r.data)

	// 重新计算峰值：新值更高，或者刚覆盖了旧峰值
	if v > r.peak {
		r.peak = v
	} else if r.peak == old {
		r.peak = 0
		for i := 0; i < r.size; i++ {
			if r.data[i] > r.peak {
				r.peak = r.data[i]
			}
		}
	}
}

// Values returns the buffered samples in chronological order, oldest first.
func (r *Ring) Values() []float64 {
	out := make([]float64, 0, r.size)
	start := 0
	if r.size == len(r.data) {
		start = r.pos
	}
	for i := 0; i < r.size; i++ {
		out = append(out, r.data[(start+i)%len(r.data)])
	}
	return out
}

// Last returns the most recently pushed value, or 0 for an empty ring.
func (r *Ring) Last() float64 {
	if r.size == 0 {
		return 0
	}
	pos := r.pos - 1
	if pos < 0 {
		pos = len(r.data) - 1
	}
	return r.data[pos]
}

func (r *Ring) Peak() float64 {
	return r.peak
}

func (r *Ring) Avg() float64 {
	if r.size == 0 {
		return 0
	}
	return r.sum / float64(r.size)
}

func (r *Ring) Len() int {
	return r.size
}

func (r *Ring) Cap() int {
	return len(r.data)
}

// Resize changes the capacity, keeping the newest samples when shrinking.
func (r *Ring) Resize(capacity int) {
	if capacity < 1 || capacity == len(r.data) {
		return
	}

	values := r.Values()
	if len(values) > capacity {
		values = values[len(values)-capacity:]
	}

	r.data = make([]float64, capacity)
	r.pos = 0
	r.size = 0
	r.sum = 0
	r.peak = 0
	for _, v := range values {
		r.Push(v)
	}
}
