package nntp

import (
	"context"
	"sync"
)

// ConnPool hands out at most Size connections, dialing lazily. A
// connection is held by one borrower at a time.
type ConnPool struct {
	dialer Dialer
	slots  chan Conn

	lock   sync.Mutex
	closed bool
}

func NewConnPool(dialer Dialer, size int) *ConnPool {
	if size < 1 {
		size = 1
	}
	p := &ConnPool{
		dialer: dialer,
		slots:  make(chan Conn, size),
	}
	for i := 0; i < size; i++ {
		p.slots <- nil
	}
	return p
}

// Get blocks for a free slot and returns its connection, dialing a new
// one when the slot is empty.
func (p *ConnPool) Get(ctx context.Context) (Conn, error) {
	var conn Conn
	select {
	case conn = <-p.slots:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	if conn != nil {
		return conn, nil
	}

	conn, err := p.dialer.Dial(ctx)
	if err != nil {
		p.slots <- nil
		return nil, err
	}
	return conn, nil
}

// Put returns a connection. A broken connection is closed and its slot is
// refilled on the next Get.
func (p *ConnPool) Put(conn Conn, broken bool) {
	if conn != nil && broken {
		_ = conn.Close()
		conn = nil
	}
	p.lock.Lock()
	closed := p.closed
	p.lock.Unlock()
	if closed && conn != nil {
		_ = conn.Close()
		conn = nil
	}
	p.slots <- conn
}

// Close closes every idle connection. Borrowed connections are closed as
// they come back.
func (p *ConnPool) Close() {
	p.lock.Lock()
	p.closed = true
	p.lock.Unlock()

	drained := 0
	for drained < cap(p.slots) {
		select {
		case conn := <-p.slots:
			drained++
			if conn != nil {
				_ = conn.Close()
			}
			continue
		default:
		}
		break
	}
	for i := 0; i < drained; i++ {
		p.slots <- nil
	}
}
