package looper

import (
	"math"
	"slices"
)

// pSquare estimates a single quantile of a stream in constant space, using
// the P² algorithm (Jain & Chlamtac, CACM 28(10), 1985).
//
// Not safe for concurrent use.
type pSquare struct {
	heights  [5]float64 // marker heights
	pos      [5]int     // actual marker positions
	want     [5]float64 // desired marker positions
	step     [5]float64 // desired position increments
	p        float64
	count    int
	ready    bool
	firstObs [5]float64
}

func newPSquare(p float64) *pSquare {
	p = min(max(p, 0), 1)
	return &pSquare{
		p:    p,
		step: [5]float64{0, p / 2, p, (1 + p) / 2, 1},
	}
}

func (x *pSquare) add(v float64) {
	x.count++
	if !x.ready {
		x.firstObs[x.count-1] = v
		if x.count == 5 {
			x.heights = x.firstObs
			slices.Sort(x.heights[:])
			x.pos = [5]int{0, 1, 2, 3, 4}
			x.want = [5]float64{0, 2 * x.p, 4 * x.p, 2 + 2*x.p, 4}
			x.ready = true
		}
		return
	}

	var k int
	switch {
	case v < x.heights[0]:
		x.heights[0] = v
		k = 0
	case v >= x.heights[4]:
		x.heights[4] = v
		k = 3
	default:
		for k = 0; k < 3; k++ {
			if v < x.heights[k+1] {
				break
			}
		}
	}

	for i := k + 1; i < 5; i++ {
		x.pos[i]++
	}
	for i := range x.want {
		x.want[i] += x.step[i]
	}

	for i := 1; i < 4; i++ {
		d := x.want[i] - float64(x.pos[i])
		if (d >= 1 && x.pos[i+1]-x.pos[i] > 1) || (d <= -1 && x.pos[i-1]-x.pos[i] < -1) {
			sign := 1
			if d < 0 {
				sign = -1
			}
			h := x.parabolic(i, sign)
			if !(x.heights[i-1] < h && h < x.heights[i+1]) {
				h = x.linear(i, sign)
			}
			x.heights[i] = h
			x.pos[i] += sign
		}
	}
}

func (x *pSquare) parabolic(i, sign int) float64 {
	d := float64(sign)
	n0, n1, n2 := float64(x.pos[i-1]), float64(x.pos[i]), float64(x.pos[i+1])
	q0, q1, q2 := x.heights[i-1], x.heights[i], x.heights[i+1]
	return q1 + d/(n2-n0)*((n1-n0+d)*(q2-q1)/(n2-n1)+(n2-n1-d)*(q1-q0)/(n1-n0))
}

func (x *pSquare) linear(i, sign int) float64 {
	j := i + sign
	return x.heights[i] + float64(sign)*(x.heights[j]-x.heights[i])/float64(x.pos[j]-x.pos[i])
}

// value returns the current estimate, or 0 if nothing has been observed.
func (x *pSquare) value() float64 {
	switch {
	case x.count == 0:
		return 0
	case x.ready:
		return x.heights[2]
	}
	obs := slices.Clone(x.firstObs[:x.count])
	slices.Sort(obs)
	return obs[int(float64(x.count-1)*x.p)]
}

// quantiles tracks several quantiles of one stream, plus its sum and max.
//
// Not safe for concurrent use.
type quantiles struct {
	estimators []*pSquare
	sum        float64
	max        float64
	count      int
}

func newQuantiles(ps ...float64) *quantiles {
	q := &quantiles{max: -math.MaxFloat64}
	for _, p := range ps {
		q.estimators = append(q.estimators, newPSquare(p))
	}
	return q
}

func (q *quantiles) add(v float64) {
	q.count++
	q.sum += v
	q.max = max(q.max, v)
	for _, e := range q.estimators {
		e.add(v)
	}
}

func (q *quantiles) quantile(i int) float64 {
	if i < 0 || i >= len(q.estimators) {
		return 0
	}
	return q.estimators[i].value()
}

func (q *quantiles) mean() float64 {
	if q.count == 0 {
		return 0
	}
	return q.sum / float64(q.count)
}

func (q *quantiles) maximum() float64 {
	if q.count == 0 {
		return 0
	}
	return q.max
}
