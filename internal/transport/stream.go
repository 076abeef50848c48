package transport

import (
	"io"

	"github.com/gorilla/websocket"
)

// wsStream adapts a message-oriented websocket connection to the
// io.ReadWriteCloser the STOMP session expects. Reads drain one websocket
// message at a time; each write becomes one websocket text frame, which
// the backend's STOMP decoder reassembles into frames as needed.
type wsStream struct {
	ws *websocket.Conn
	r  io.Reader
}

func newWSStream(ws *websocket.Conn) *wsStream {
	return &wsStream{ws: ws}
}

func (s *wsStream) Read(p []byte) (int, error) {
	for {
		if s.r == nil {
			_, r, err := s.ws.NextReader()
			if err != nil {
				return 0, err
			}
			s.r = r
		}
		n, err := s.r.Read(p)
		if err == io.EOF {
			s.r = nil
			if n > 0 {
				return n, nil
			}
			continue
		}
		return n, err
	}
}

func (s *wsStream) Write(p []byte) (int, error) {
	if err := s.ws.WriteMessage(websocket.TextMessage, p); err != nil {
		return 0, err
	}
	return len(p), nil
}

func (s *wsStream) Close() error {
	return s.ws.Close()
}
