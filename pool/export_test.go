package pool

// WithHardware overrides the detected core count for tests.
var WithHardware = withHardware

// Outstanding returns the number of enqueued-but-unfinished tasks.
func (p *Pool) Outstanding() int64 {
	return p.outstanding.Load()
}
