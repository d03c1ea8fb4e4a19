package eloop

// Handler receives the life cycle of every connection. All callbacks run on
// the goroutine of the loop owning the connection.
type Handler interface {
	// OnOpen may return bytes to send right away.
	OnOpen(c *Conn) (out []byte, err error)
	// OnData gets a buffer that is reused after it returns.
	OnData(c *Conn, data []byte) error
	OnClose(c *Conn, err error)
}

// BaseHandler can be embedded to implement only the callbacks needed.
type BaseHandler struct{}

func (BaseHandler) OnOpen(*Conn) ([]byte, error) { return nil, nil }

func (BaseHandler) OnData(*Conn, []byte) error { return nil }

func (BaseHandler) OnClose(*Conn, error) {}
