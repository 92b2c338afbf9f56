package notify

import "github.com/coder/websocket"

// Listener receives connection events. Callbacks are delivered from a single
// dispatch goroutine, in order, and never after Close() has returned. Message
// payloads are raw; parsing is the consumer's job (see package alert).
type Listener interface {
	OnOpen()
	OnMessage(payload []byte)
	OnClose(code websocket.StatusCode)
	OnError(err error)
}

// ListenerFuncs adapts plain functions to the Listener interface. Nil fields
// are ignored.
type ListenerFuncs struct {
	Open    func()
	Message func(payload []byte)
	Closed  func(code websocket.StatusCode)
	Error   func(err error)
}

var _ Listener = ListenerFuncs{}

func (l ListenerFuncs) OnOpen() {
	if l.Open != nil {
		l.Open()
	}
}

func (l ListenerFuncs) OnMessage(payload []byte) {
	if l.Message != nil {
		l.Message(payload)
	}
}

func (l ListenerFuncs) OnClose(code websocket.StatusCode) {
	if l.Closed != nil {
		l.Closed(code)
	}
}

func (l ListenerFuncs) OnError(err error) {
	if l.Error != nil {
		l.Error(err)
	}
}
