package engine

// rateController counts output samples between decimation boundaries.
// A boundary is reached every kOut outputs.
type rateController struct {
	counter int
	kOut    int
}

func (r *rateController) atBoundary() bool {
	return r.counter == r.kOut
}

func (r *rateController) restart() {
	r.counter = 0
}

func (r *rateController) tick() {
	r.counter++
}

// setOutputRate changes the boundary period, pulling a counter that is
// already past the new period back onto the boundary.
func (r *rateController) setOutputRate(kOut int) {
	r.kOut = kOut
	r.counter = min(r.counter, kOut)
}

func (r *rateController) reset() {
	r.counter = 0
}
