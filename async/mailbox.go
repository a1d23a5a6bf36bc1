package async

// A Mailbox tracks in-flight work and invokes a callback for each piece once it settles.
//
// Work runs on other goroutines (or other machines), which provide no way to return
// a response directly. The coordinator registers each pending item with Watch, and the
// callbacks are then invoked from ProcessMessages on the coordinator's own
// goroutine, one at a time:
//
//	bx := NewMailbox()
//	for _, f := range futures {
//		f := f
//		bx.Watch(f, func() { record(f.Result()) })
//	}
//	wait(futures)
//	bx.ProcessMessages()
//	abandoned := bx.Count()
//
// A Mailbox is not a concurrent structure and should only
// ever be accessed from a single go routine.
type Mailbox struct {
	msgs []message
}

// Settled is anything that signals completion by closing a channel.
type Settled interface {
	Done() <-chan struct{}
}

// The function type of the callback invoked once a watched item settles
type Callback func()

type message struct {
	item     Settled
	callback Callback
}

func NewMailbox() *Mailbox {
	return &Mailbox{
		msgs: make([]message, 0),
	}
}

func (bx *Mailbox) Count() int {
	return len(bx.msgs)
}

// Associates the callback with item. Once item settles the callback
// will be invoked on the next execution of ProcessMessages.
func (bx *Mailbox) Watch(item Settled, cb Callback) {
	bx.msgs = append(bx.msgs, message{item: item, callback: cb})
}

// Invokes the callback of every settled item, in registration order, and
// removes those messages from the mailbox. Returns the number processed.
func (bx *Mailbox) ProcessMessages() int {
	var pending []message
	processed := 0
	for _, msg := range bx.msgs {
		select {
		case <-msg.item.Done():
			msg.callback()
			processed++
		default:
			pending = append(pending, msg)
		}
	}
	bx.msgs = pending
	return processed
}
