package recorder

// NoopRecorder is used when metrics are disabled.
type NoopRecorder struct{}

func NewNoopRecorder() *NoopRecorder { return &NoopRecorder{} }

func (n *NoopRecorder) RecordCycle(_ *CycleEvent) {}
func (n *NoopRecorder) RecordLogin(_ *LoginEvent) {}
func (n *NoopRecorder) RecordCall(_ *CallEvent)   {}
