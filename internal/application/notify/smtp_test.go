package notify

import (
	"context"
	"errors"
	"net"
	"net/textproto"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"grantapp/pkg/platform/retry"
)

// fakeSMTP is a minimal relay. With dataDelay set it waits that long before
// answering DATA, or until the client hangs up.
type fakeSMTP struct {
	ln        net.Listener
	dataDelay time.Duration
	wg        sync.WaitGroup

	mu        sync.Mutex
	delivered []string
	active    int
	maxActive int
}

func startFakeSMTP(t *testing.T, dataDelay time.Duration) *fakeSMTP {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	srv := &fakeSMTP{ln: ln, dataDelay: dataDelay}
	go srv.serve()
	t.Cleanup(srv.close)
	return srv
}

func (s *fakeSMTP) port() int {
	return s.ln.Addr().(*net.TCPAddr).Port
}

// close stops accepting and waits for every session to end.
func (s *fakeSMTP) close() {
	_ = s.ln.Close()
	s.wg.Wait()
}

func (s *fakeSMTP) serve() {
	for {
		conn, err := s.ln.Accept()
		if err != nil {
			return
		}
		s.wg.Add(1)
		go s.handle(conn)
	}
}

func (s *fakeSMTP) handle(conn net.Conn) {
	defer s.wg.Done()
	defer conn.Close()

	s.mu.Lock()
	s.active++
	s.maxActive = max(s.maxActive, s.active)
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		s.active--
		s.mu.Unlock()
	}()

	tp := textproto.NewConn(conn)
	_ = tp.PrintfLine("220 fake ESMTP")
	for {
		line, err := tp.ReadLine()
		if err != nil {
			return
		}
		switch verb := strings.ToUpper(strings.Fields(line + " x")[0]); verb {
		case "EHLO", "HELO":
			_ = tp.PrintfLine("250 fake")
		case "DATA":
			if s.dataDelay > 0 && !s.stall(conn) {
				return
			}
			_ = tp.PrintfLine("354 end with .")
			body, err := tp.ReadDotBytes()
			if err != nil {
				return
			}
			s.mu.Lock()
			s.delivered = append(s.delivered, string(body))
			s.mu.Unlock()
			_ = tp.PrintfLine("250 queued")
		case "QUIT":
			_ = tp.PrintfLine("221 bye")
			return
		default:
			_ = tp.PrintfLine("250 ok")
		}
	}
}

// stall waits for dataDelay and reports whether the client is still there.
func (s *fakeSMTP) stall(conn net.Conn) bool {
	_ = conn.SetReadDeadline(time.Now().Add(s.dataDelay))
	_, err := conn.Read(make([]byte, 1))
	_ = conn.SetReadDeadline(time.Time{})
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

func (s *fakeSMTP) stats() (delivered []string, maxActive int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.delivered...), s.maxActive
}

func testMessage() *Message {
	return &Message{
		From:    "no-reply@grantapplication.com",
		To:      []string{"staff@grantapplication.com"},
		Subject: "New Grant Application Submitted - APP-20250904-ABCDE",
		HTML:    "<p>hello</p>",
	}
}

func TestSMTPMailerDelivers(t *testing.T) {
	srv := startFakeSMTP(t, 0)
	m := NewSMTPMailer(SMTPConfig{Host: "127.0.0.1", Port: srv.port(), Timeout: 2 * time.Second})

	require.NoError(t, m.Send(context.Background(), testMessage()))
	srv.close()

	delivered, _ := srv.stats()
	require.Len(t, delivered, 1)
	assert.Contains(t, delivered[0], "Subject: New Grant Application Submitted - APP-20250904-ABCDE")
}

func TestSMTPMailerTimedOutAttemptsDeliverNothing(t *testing.T) {
	srv := startFakeSMTP(t, 300*time.Millisecond)
	m := NewSMTPMailer(SMTPConfig{Host: "127.0.0.1", Port: srv.port()})
	policy := retry.NewFixed(3, 50*time.Millisecond, 100*time.Millisecond)

	res := policy.Do(context.Background(), func(ctx context.Context) error {
		return m.Send(ctx, testMessage())
	})
	srv.close()

	assert.False(t, res.OK())
	assert.Equal(t, 3, res.Attempts)
	assert.ErrorIs(t, res.Err, context.DeadlineExceeded)

	delivered, maxActive := srv.stats()
	assert.Empty(t, delivered, "a failed attempt must not complete later")
	assert.Equal(t, 1, maxActive, "attempts never overlap")
}

func TestSMTPMailerCanceledContextDoesNotDial(t *testing.T) {
	srv := startFakeSMTP(t, 0)
	m := NewSMTPMailer(SMTPConfig{Host: "127.0.0.1", Port: srv.port()})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := m.Send(ctx, testMessage())
	srv.close()

	assert.ErrorIs(t, err, context.Canceled)
	_, maxActive := srv.stats()
	assert.Zero(t, maxActive)
}
