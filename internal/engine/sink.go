package engine

// Sink is the presentation boundary: the fixed, ordered set of signals the
// engine lights up and marks. The engine only writes to it and never reads
// state back.
type Sink interface {
	// Activate turns a signal visually on.
	Activate(id SignalID)
	// Deactivate returns a signal to rest.
	Deactivate(id SignalID)
	// MarkOK shows a transient "correct" marker.
	MarkOK(id SignalID)
	// MarkFail shows a transient "mismatch" marker.
	MarkFail(id SignalID)
	// ClearMark removes any correctness marker.
	ClearMark(id SignalID)
}

// NopSink discards every event.
type NopSink struct{}

func (NopSink) Activate(SignalID)   {}
func (NopSink) Deactivate(SignalID) {}
func (NopSink) MarkOK(SignalID)     {}
func (NopSink) MarkFail(SignalID)   {}
func (NopSink) ClearMark(SignalID)  {}

// MultiSink fans every event out to each sink in order.
type MultiSink []Sink

func (m MultiSink) Activate(id SignalID) {
	for _, s := range m {
		s.Activate(id)
	}
}

func (m MultiSink) Deactivate(id SignalID) {
	for _, s := range m {
		s.Deactivate(id)
	}
}

func (m MultiSink) MarkOK(id SignalID) {
	for _, s := range m {
		s.MarkOK(id)
	}
}

func (m MultiSink) MarkFail(id SignalID) {
	for _, s := range m {
		s.MarkFail(id)
	}
}

func (m MultiSink) ClearMark(id SignalID) {
	for _, s := range m {
		s.ClearMark(id)
	}
}
