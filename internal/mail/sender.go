package mail

import (
	"bytes"
	"context"
	"crypto/tls"
	"fmt"
	"log"
	"net"
	"time"

	"github.com/emersion/go-sasl"
	"github.com/emersion/go-smtp"
)

// Sender delivers a composed message.
type Sender interface {
	Send(ctx context.Context, from string, to []string, msg []byte) error
}

// SMTPSender relays through an SMTP server after a STARTTLS upgrade. The
// whole exchange is bounded by the context passed to Send.
type SMTPSender struct {
	Addr     string
	Username string
	Password string
}

func (s SMTPSender) Send(ctx context.Context, from string, to []string, msg []byte) error {
	envelopeFrom, err := envelopeAddress(from)
	if err != nil {
		return fmt.Errorf("parsing sender: %w", err)
	}

	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", s.Addr)
	if err != nil {
		return fmt.Errorf("dialing %s: %w", s.Addr, err)
	}
	if dl, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(dl)
	}
	// go-smtp resets connection deadlines per command, so cancellation
	// closes the connection instead.
	stop := context.AfterFunc(ctx, func() { _ = conn.Close() })
	defer stop()

	err = s.deliver(ctx, conn, envelopeFrom, to, msg)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return fmt.Errorf("smtp send via %s: %w", s.Addr, ctxErr)
		}
		return fmt.Errorf("smtp send via %s: %w", s.Addr, err)
	}
	return nil
}

func (s SMTPSender) deliver(ctx context.Context, conn net.Conn, from string, to []string, msg []byte) error {
	host, _, _ := net.SplitHostPort(s.Addr)
	c, err := smtp.NewClientStartTLS(conn, &tls.Config{ServerName: host})
	if err != nil {
		_ = conn.Close()
		return err
	}
	defer c.Close()

	if dl, ok := ctx.Deadline(); ok {
		c.CommandTimeout = time.Until(dl)
		c.SubmissionTimeout = time.Until(dl)
	}

	if s.Username != "" {
		if err := c.Auth(sasl.NewPlainClient("", s.Username, s.Password)); err != nil {
			return err
		}
	}
	if err := c.SendMail(from, to, bytes.NewReader(msg)); err != nil {
		return err
	}
	return c.Quit()
}

// LogSender only logs; used when no SMTP server is configured.
type LogSender struct{}

func (LogSender) Send(_ context.Context, from string, to []string, msg []byte) error {
	log.Printf("[INFO] mail not sent (SMTP not configured) from=%q to=%v bytes=%d", from, to, len(msg))
	return nil
}
