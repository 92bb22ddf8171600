package rowstream

// Row is the ordered list of fields parsed from one line.
type Row []string

// Observer receives the notifications of a parse run.
// For one run, OnRow is called once per parsed line in ascending index order, followed by
// exactly one OnDone on success, or at most one OnError on a read or malformed-line failure.
type Observer interface {
	OnRow(row Row, index int)
	OnError(err error)
	OnDone()
}

// ProgressFunc receives the fraction of lines processed so far, in (0, 1].
type ProgressFunc func(fraction float64)

// ObserverFuncs adapts plain functions to the Observer interface. Nil fields are skipped.
type ObserverFuncs struct {
	Row   func(row Row, index int)
	Error func(err error)
	Done  func()
}

// OnRow implements Observer.
func (o ObserverFuncs) OnRow(row Row, index int) {
	if o.Row != nil {
		o.Row(row, index)
	}
}

// OnError implements Observer.
func (o ObserverFuncs) OnError(err error) {
	if o.Error != nil {
		o.Error(err)
	}
}

// OnDone implements Observer.
func (o ObserverFuncs) OnDone() {
	if o.Done != nil {
		o.Done()
	}
}
