package async

import (
	"sync"
)

// Result is an async value that will eventually hold a value or an error.
// It is similar to a Promise/Future. The value is supplied by calling SetValue,
// after which the Result is considered completed and Done is closed.
type Result struct {
	once sync.Once
	done chan struct{}
	val  interface{}
	err  error
}

func NewResult() *Result {
	return &Result{done: make(chan struct{})}
}

// Sets the value of the Result and marks it completed.
// Only the first call has any effect.
func (r *Result) SetValue(val interface{}, err error) {
	r.once.Do(func() {
		r.val = val
		r.err = err
		close(r.done)
	})
}

// Done is closed once the value has been set.
func (r *Result) Done() <-chan struct{} {
	return r.done
}

// Returns the Status of this Result:
// Completed(true) or Pending(false), and the value if Completed.
func (r *Result) TryGetValue() (bool, interface{}, error) {
	select {
	case <-r.done:
		return true, r.val, r.err
	default:
		return false, nil, nil
	}
}
