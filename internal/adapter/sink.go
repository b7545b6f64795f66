// Package adapter delivers encoded reports to the hardware (or network
// peer) that presents them to the console.
package adapter

import (
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"time"

	"github.com/soar/padmapper/internal/report"
)

var (
	ErrNoDevice = errors.New("adapter device not found")
	ErrTimeout  = errors.New("adapter did not answer")
)

// Sink receives the reports of one controller.
type Sink interface {
	Send(r report.Report) error
	Close() error
}

// Port is a sink that can also be read back, used for the type handshake.
type Port interface {
	Write(b []byte) error
	ReadTimeout(buf []byte, d time.Duration) (int, error)
}

// LogSink writes every report to the log instead of a device.
type LogSink struct {
	Controller int
	Logger     *slog.Logger
}

func (s *LogSink) Send(r report.Report) error {
	s.Logger.Debug("report",
		"controller", s.Controller+1,
		"family", r.Family.String(),
		"payload", hex.EncodeToString(r.Payload),
	)
	return nil
}

func (s *LogSink) Close() error { return nil }

// TCPSink forwards framed reports to a remote adapter.
type TCPSink struct {
	conn net.Conn
}

const dialTimeout = 2 * time.Second

// DialTCP connects to the adapter at addr ("host:port").
func DialTCP(addr string) (*TCPSink, error) {
	conn, err := net.DialTimeout("tcp", addr, dialTimeout)
	if err != nil {
		return nil, fmt.Errorf("dial adapter %s: %w", addr, err)
	}
	if tc, ok := conn.(*net.TCPConn); ok {
		_ = tc.SetNoDelay(true)
	}
	return &TCPSink{conn: conn}, nil
}

func (s *TCPSink) Send(r report.Report) error {
	return s.Write(r.Packet())
}

func (s *TCPSink) Write(b []byte) error {
	_, err := s.conn.Write(b)
	return err
}

func (s *TCPSink) ReadTimeout(buf []byte, d time.Duration) (int, error) {
	if err := s.conn.SetReadDeadline(time.Now().Add(d)); err != nil {
		return 0, err
	}
	n, err := s.conn.Read(buf)
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return n, nil
	}
	return n, err
}

func (s *TCPSink) Close() error { return s.conn.Close() }
