// Package network wraps the server's TLS listener so that clients speaking
// plain HTTP to the HTTPS port get redirected instead of a handshake error.
package network

import (
	"bufio"
	"bytes"
	"net"
	"net/http"
	"sync"
)

// autoHTTPSConn sniffs the first bytes of a connection. If they parse as an
// HTTP request the client is answered with a 307 to the https:// equivalent
// and the connection is closed. Otherwise the bytes are replayed and the
// connection proceeds as TLS.
type autoHTTPSConn struct {
	net.Conn

	firstBuf []byte
	bufStart int

	sniffOnce sync.Once
}

func (c *autoHTTPSConn) sniffRequest() {
	buf := make([]byte, 2048)
	n, err := c.Conn.Read(buf)
	if err != nil {
		return
	}
	c.firstBuf = buf[:n]

	request, err := http.ReadRequest(bufio.NewReader(bytes.NewReader(c.firstBuf)))
	if err != nil {
		return
	}

	resp := http.Response{
		StatusCode: http.StatusTemporaryRedirect,
		Header:     http.Header{},
	}
	resp.Header.Set("Location", "https://"+request.Host+request.RequestURI)
	_ = resp.Write(c.Conn)
	_ = c.Close()
	c.firstBuf = nil
}

func (c *autoHTTPSConn) Read(buf []byte) (int, error) {
	c.sniffOnce.Do(c.sniffRequest)

	if c.firstBuf != nil {
		n := copy(buf, c.firstBuf[c.bufStart:])
		c.bufStart += n
		if c.bufStart >= len(c.firstBuf) {
			c.firstBuf = nil
		}
		return n, nil
	}

	return c.Conn.Read(buf)
}

type autoHTTPSListener struct {
	net.Listener
}

// NewAutoHTTPSListener wraps a listener so every accepted connection redirects
// plain HTTP requests to HTTPS.
func NewAutoHTTPSListener(listener net.Listener) net.Listener {
	return &autoHTTPSListener{Listener: listener}
}

func (l *autoHTTPSListener) Accept() (net.Conn, error) {
	conn, err := l.Listener.Accept()
	if err != nil {
		return nil, err
	}
	return &autoHTTPSConn{Conn: conn}, nil
}
