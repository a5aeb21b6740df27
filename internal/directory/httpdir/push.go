package httpdir

import (
	"context"
	"log"
	"net/url"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/blastroyale/partysync/internal/directory"
)

const (
	initialBackoff = time.Second
	maxBackoff     = 30 * time.Second
)

// pushMessage is the directory's WebSocket envelope. Only the type matters;
// pings carry no payload.
type pushMessage struct {
	Type string `json:"type"`
}

// Push implements directory.PushChannel over one WebSocket per subscribed
// group. A dropped socket is redialed with backoff; reconnect observers fire
// after every successful redial so subscribers can resync missed changes.
type Push struct {
	baseURL  string
	memberID string
	dialer   *websocket.Dialer

	mu        sync.Mutex
	reconnect []func()
}

// NewPush creates a push channel for the given directory base URL and member.
func NewPush(baseURL, memberID string) *Push {
	return &Push{
		baseURL:  baseURL,
		memberID: memberID,
		dialer:   websocket.DefaultDialer,
	}
}

func (p *Push) OnReconnect(fn func()) {
	p.mu.Lock()
	p.reconnect = append(p.reconnect, fn)
	p.mu.Unlock()
}

func (p *Push) Subscribe(ctx context.Context, groupID string, onChange func()) (directory.Subscription, error) {
	conn, err := p.dial(ctx, groupID)
	if err != nil {
		return nil, directory.NewError(directory.CodeConnection, "subscribe to group %s: %v", groupID, err)
	}

	s := &subscription{
		push:     p,
		groupID:  groupID,
		onChange: onChange,
		conn:     conn,
	}
	go s.readLoop()
	return s, nil
}

func (p *Push) dial(ctx context.Context, groupID string) (*websocket.Conn, error) {
	u, err := url.Parse(p.baseURL)
	if err != nil {
		return nil, err
	}
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	default:
		u.Scheme = "ws"
	}
	u.Path = "/v1/ws/groups/" + groupID
	u.RawQuery = url.Values{"member": {p.memberID}}.Encode()

	conn, _, err := p.dialer.DialContext(ctx, u.String(), nil)
	return conn, err
}

func (p *Push) notifyReconnect() {
	p.mu.Lock()
	fns := append(([]func())(nil), p.reconnect...)
	p.mu.Unlock()
	for _, fn := range fns {
		fn()
	}
}

type subscription struct {
	push     *Push
	groupID  string
	onChange func()

	mu     sync.Mutex
	conn   *websocket.Conn
	closed bool
}

func (s *subscription) Close() {
	s.mu.Lock()
	s.closed = true
	conn := s.conn
	s.conn = nil
	s.mu.Unlock()
	if conn != nil {
		conn.Close()
	}
}

func (s *subscription) readLoop() {
	for {
		s.mu.Lock()
		conn, closed := s.conn, s.closed
		s.mu.Unlock()
		if closed || conn == nil {
			return
		}

		var msg pushMessage
		if err := conn.ReadJSON(&msg); err != nil {
			if !s.redial() {
				return
			}
			continue
		}
		if msg.Type == "group_changed" {
			s.onChange()
		}
	}
}

// redial re-establishes the socket with capped exponential backoff. Returns
// false when the subscription was closed in the meantime.
func (s *subscription) redial() bool {
	backoff := initialBackoff
	for {
		s.mu.Lock()
		closed := s.closed
		s.mu.Unlock()
		if closed {
			return false
		}

		time.Sleep(backoff)
		conn, err := s.push.dial(context.Background(), s.groupID)
		if err != nil {
			log.Printf("push: redial group %s: %v", s.groupID, err)
			if backoff *= 2; backoff > maxBackoff {
				backoff = maxBackoff
			}
			continue
		}

		s.mu.Lock()
		if s.closed {
			s.mu.Unlock()
			conn.Close()
			return false
		}
		s.conn = conn
		s.mu.Unlock()

		s.push.notifyReconnect()
		return true
	}
}
