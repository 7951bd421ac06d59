package capture

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/emersion/go-sasl"
	"github.com/emersion/go-smtp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/mikey/newsletter-funnels/internal/adapters/store"
	"github.com/mikey/newsletter-funnels/internal/competitors"
	"github.com/mikey/newsletter-funnels/internal/config"
	"github.com/mikey/newsletter-funnels/internal/utils"
)

func newTestServer(t *testing.T, cfg config.CaptureConfig) (*SMTPServer, *store.MemoryStore) {
	t.Helper()

	logger := zap.NewNop()
	catalog := store.NewMemoryStore(logger)
	if cfg.ListenAddress == "" {
		cfg.ListenAddress = "127.0.0.1:0"
	}
	if cfg.BodyPreviewSize == 0 {
		cfg.BodyPreviewSize = 200
	}
	if cfg.TrackedDomains == nil {
		cfg.TrackedDomains = []string{"acme.io"}
	}
	cfg.Domain = "capture.test"

	srv := NewSMTPServer(catalog, competitors.NewTracker(cfg.TrackedDomains, logger),
		utils.NewTextProcessor(logger), logger, cfg)
	return srv, catalog
}

func crlf(lines ...string) []byte {
	return []byte(strings.Join(lines, "\r\n"))
}

func TestProcessMessagePlainText(t *testing.T) {
	t.Parallel()

	srv, catalog := newTestServer(t, config.CaptureConfig{})
	raw := crlf(
		"From: Acme News <News@Acme.io>",
		"To: inbox@capture.test",
		"Subject: =?UTF-8?Q?Caf=C3=A9_week?=",
		"Date: Mon, 04 Mar 2024 10:00:00 +0100",
		"Message-ID: <m1@acme.io>",
		"X-Newsletter-Category: onboarding",
		"Content-Type: text/plain; charset=utf-8",
		"",
		"Welcome   to\r\nAcme.",
	)

	item, err := srv.ProcessMessage(context.Background(), raw)
	require.NoError(t, err)

	assert.NotEmpty(t, item.ID)
	assert.Equal(t, "news@acme.io", item.SenderEmail)
	assert.Equal(t, "Acme News", item.SenderName)
	assert.Equal(t, "Café week", item.Subject)
	assert.Equal(t, "onboarding", item.Category)
	assert.Equal(t, "m1@acme.io", item.BodyRef)
	assert.Equal(t, "Welcome to Acme.", item.Preview)
	assert.True(t, item.Timestamp.Equal(time.Date(2024, 3, 4, 9, 0, 0, 0, time.UTC)))

	stored, err := catalog.GetItem(context.Background(), item.ID)
	require.NoError(t, err)
	assert.Equal(t, item.Subject, stored.Subject)
}

func TestProcessMessageMultipart(t *testing.T) {
	t.Parallel()

	srv, _ := newTestServer(t, config.CaptureConfig{BodyPreviewSize: 12})
	raw := crlf(
		"From: deals@mail.acme.io",
		"Subject: Sale",
		"Date: Tue, 05 Mar 2024 09:00:00 +0000",
		"MIME-Version: 1.0",
		`Content-Type: multipart/alternative; boundary="b1"`,
		"",
		"--b1",
		"Content-Type: text/plain; charset=utf-8",
		"Content-Transfer-Encoding: base64",
		"",
		"RXZlcnl0aGluZyBtdXN0IGdv",
		"--b1",
		"Content-Type: text/html",
		"",
		"<p>Everything must go</p>",
		"--b1--",
		"",
	)

	item, err := srv.ProcessMessage(context.Background(), raw)
	require.NoError(t, err)
	assert.Equal(t, "deals@mail.acme.io", item.SenderEmail)
	assert.Equal(t, "Everything m…", item.Preview)
	assert.Equal(t, item.ID, item.BodyRef)
}

func TestProcessMessageFallsBackToNow(t *testing.T) {
	t.Parallel()

	srv, _ := newTestServer(t, config.CaptureConfig{})
	fixed := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	srv.now = func() time.Time { return fixed }

	item, err := srv.ProcessMessage(context.Background(), crlf(
		"From: hello@acme.io",
		"Subject: No date",
		"",
		"body",
	))
	require.NoError(t, err)
	assert.True(t, item.Timestamp.Equal(fixed))
}

func TestProcessMessageRejectsUntracked(t *testing.T) {
	t.Parallel()

	srv, catalog := newTestServer(t, config.CaptureConfig{})
	_, err := srv.ProcessMessage(context.Background(), crlf(
		"From: someone@globex.com",
		"Subject: Hi",
		"",
		"body",
	))
	require.ErrorIs(t, err, ErrUntrackedSender)

	items, err := catalog.ListItems(context.Background())
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestProcessMessageRejectsGarbage(t *testing.T) {
	t.Parallel()

	srv, _ := newTestServer(t, config.CaptureConfig{})
	_, err := srv.ProcessMessage(context.Background(), []byte("not a message"))
	require.Error(t, err)
}

// deliver sends one message over a plain connection; the capture server offers no STARTTLS
func deliver(t *testing.T, addr, from string, msg []byte) error {
	t.Helper()

	c, err := smtp.Dial(addr)
	require.NoError(t, err)
	defer c.Close()

	return c.SendMail(from, []string{"inbox@capture.test"}, strings.NewReader(string(msg)))
}

func TestSMTPDelivery(t *testing.T) {
	t.Parallel()

	srv, catalog := newTestServer(t, config.CaptureConfig{})
	require.NoError(t, srv.Start())
	defer srv.Stop()

	msg := crlf(
		"From: Acme <news@acme.io>",
		"To: inbox@capture.test",
		"Subject: Day one",
		"Date: Mon, 04 Mar 2024 09:00:00 +0000",
		"",
		"Hello from Acme",
		"",
	)
	err := deliver(t, srv.Addr(), "bounce@acme.io", msg)
	require.NoError(t, err)

	items, err := catalog.ListItems(context.Background())
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "Day one", items[0].Subject)
	assert.Equal(t, "Hello from Acme", items[0].Preview)

	untracked := crlf(
		"From: news@globex.com",
		"Subject: Nope",
		"",
		"body",
		"",
	)
	err = deliver(t, srv.Addr(), "news@globex.com", untracked)
	var smtpErr *smtp.SMTPError
	require.ErrorAs(t, err, &smtpErr)
	assert.Equal(t, 550, smtpErr.Code)

	items, err = catalog.ListItems(context.Background())
	require.NoError(t, err)
	assert.Len(t, items, 1)
}

func TestSessionAuth(t *testing.T) {
	t.Parallel()

	srv, _ := newTestServer(t, config.CaptureConfig{
		AuthEnabled:  true,
		AuthUsername: "funnel",
		AuthPassword: "secret",
	})

	sess := &smtpSession{capture: srv}
	assert.Equal(t, []string{sasl.Plain}, sess.AuthMechanisms())
	assert.Equal(t, smtp.ErrAuthRequired, sess.Mail("news@acme.io", nil))

	_, err := sess.Auth("CRAM-MD5")
	require.Error(t, err)

	bad, err := sess.Auth(sasl.Plain)
	require.NoError(t, err)
	_, _, err = bad.Next([]byte("\x00funnel\x00wrong"))
	require.Error(t, err)
	assert.Equal(t, smtp.ErrAuthRequired, sess.Mail("news@acme.io", nil))

	good, err := sess.Auth(sasl.Plain)
	require.NoError(t, err)
	_, done, err := good.Next([]byte("\x00funnel\x00secret"))
	require.NoError(t, err)
	assert.True(t, done)
	assert.NoError(t, sess.Mail("news@acme.io", nil))
}

func TestSessionLogsRecipients(t *testing.T) {
	t.Parallel()

	srv, _ := newTestServer(t, config.CaptureConfig{})
	observed, logs := observer.New(zapcore.DebugLevel)
	srv.logger = zap.New(observed)

	sess := &smtpSession{capture: srv}
	require.NoError(t, sess.Mail("news@acme.io", nil))
	require.NoError(t, sess.Rcpt("inbox@capture.test", nil))
	require.NoError(t, sess.Rcpt("archive@capture.test", nil))
	require.NoError(t, sess.Data(strings.NewReader(string(crlf(
		"From: news@acme.io",
		"Subject: Day one",
		"",
		"body",
	)))))

	accepted := logs.FilterMessage("Message accepted").All()
	require.Len(t, accepted, 1)
	assert.Equal(t, []interface{}{"inbox@capture.test", "archive@capture.test"},
		accepted[0].ContextMap()["recipients"])

	sess.Reset()
	assert.Empty(t, sess.recipients)
	require.NoError(t, sess.Mail("news@globex.com", nil))
	require.NoError(t, sess.Rcpt("inbox@capture.test", nil))
	err := sess.Data(strings.NewReader(string(crlf("From: news@globex.com", "Subject: Nope", "", "body"))))
	require.Error(t, err)

	rejected := logs.FilterMessage("Rejecting mail from untracked sender").All()
	require.Len(t, rejected, 1)
	assert.Equal(t, []interface{}{"inbox@capture.test"}, rejected[0].ContextMap()["recipients"])
}

func TestSessionWithoutAuth(t *testing.T) {
	t.Parallel()

	srv, _ := newTestServer(t, config.CaptureConfig{})
	sess := &smtpSession{capture: srv}
	assert.Empty(t, sess.AuthMechanisms())
	_, err := sess.Auth(sasl.Plain)
	require.Error(t, err)
	assert.NoError(t, sess.Mail("news@acme.io", nil))
}
