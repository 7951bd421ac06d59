package capture

import (
	"bytes"
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"io"
	"net"
	"net/mail"
	"strings"
	"sync"
	"time"

	"github.com/emersion/go-sasl"
	"github.com/emersion/go-smtp"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/mikey/newsletter-funnels/internal/competitors"
	"github.com/mikey/newsletter-funnels/internal/config"
	"github.com/mikey/newsletter-funnels/internal/core"
	"github.com/mikey/newsletter-funnels/internal/utils"
)

// CategoryHeader carries an optional category assigned upstream, e.g. by a mail rule
const CategoryHeader = "X-Newsletter-Category"

// ErrUntrackedSender is returned for mail from a domain that is not tracked
var ErrUntrackedSender = errors.New("sender is not a tracked competitor")

// SMTPServer receives forwarded newsletters over SMTP and stores them in the catalog
type SMTPServer struct {
	catalog core.CatalogRepository
	tracker *competitors.Tracker
	text    *utils.TextProcessor
	logger  *zap.Logger
	cfg     config.CaptureConfig
	now     func() time.Time

	mu       sync.Mutex
	server   *smtp.Server
	listener net.Listener
}

// NewSMTPServer creates a new capture server
func NewSMTPServer(
	catalog core.CatalogRepository,
	tracker *competitors.Tracker,
	text *utils.TextProcessor,
	logger *zap.Logger,
	cfg config.CaptureConfig,
) *SMTPServer {
	return &SMTPServer{
		catalog: catalog,
		tracker: tracker,
		text:    text,
		logger:  logger,
		cfg:     cfg,
		now:     time.Now,
	}
}

// Start starts listening for SMTP connections
func (s *SMTPServer) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	server := smtp.NewServer(&smtpBackend{capture: s})
	server.Addr = s.cfg.ListenAddress
	server.Domain = s.cfg.Domain
	server.ReadTimeout = s.cfg.ReadTimeout
	server.WriteTimeout = s.cfg.WriteTimeout
	server.MaxMessageBytes = s.cfg.MaxMessageBytes
	server.MaxRecipients = 50
	server.AllowInsecureAuth = s.cfg.AuthEnabled

	ln, err := net.Listen("tcp", s.cfg.ListenAddress)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.cfg.ListenAddress, err)
	}
	s.server = server
	s.listener = ln

	s.logger.Info("Capture server started",
		zap.String("address", ln.Addr().String()),
		zap.Bool("auth", s.cfg.AuthEnabled))

	go func() {
		if err := server.Serve(ln); err != nil && !errors.Is(err, smtp.ErrServerClosed) {
			s.logger.Error("SMTP server error", zap.Error(err))
		}
	}()

	return nil
}

// Addr returns the bound listen address once started
func (s *SMTPServer) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Stop stops the capture server
func (s *SMTPServer) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.server == nil {
		return nil
	}
	err := s.server.Close()
	s.server = nil
	s.listener = nil
	return err
}

// ProcessMessage parses a raw message and stores it as a catalog item
func (s *SMTPServer) ProcessMessage(ctx context.Context, raw []byte) (*core.Item, error) {
	return s.process(ctx, raw, "")
}

func (s *SMTPServer) process(ctx context.Context, raw []byte, envelopeFrom string) (*core.Item, error) {
	msg, err := mail.ReadMessage(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("failed to parse email message: %w", err)
	}

	senderEmail, senderName := s.parseSender(msg.Header.Get("From"), envelopeFrom)
	if senderEmail == "" {
		return nil, fmt.Errorf("message has no sender address")
	}
	if !s.tracker.IsTracked(senderEmail) {
		return nil, ErrUntrackedSender
	}

	body, err := extractTextFromMessage(msg)
	if err != nil {
		// A body we cannot read still leaves a usable catalog entry
		s.logger.Warn("Failed to extract text content", zap.String("sender", senderEmail), zap.Error(err))
		body = ""
	}

	timestamp, err := msg.Header.Date()
	if err != nil {
		timestamp = s.now()
	}

	id := uuid.NewString()
	bodyRef := strings.Trim(strings.TrimSpace(msg.Header.Get("Message-Id")), "<>")
	if bodyRef == "" {
		bodyRef = id
	}

	item := &core.Item{
		ID:          id,
		SenderEmail: senderEmail,
		SenderName:  senderName,
		Subject:     s.text.DecodeHeader(msg.Header.Get("Subject")),
		Category:    strings.TrimSpace(s.text.DecodeHeader(msg.Header.Get(CategoryHeader))),
		Timestamp:   timestamp.UTC(),
		BodyRef:     bodyRef,
		Preview:     s.text.Preview(body, s.cfg.BodyPreviewSize),
	}

	if err := s.catalog.SaveItem(ctx, item); err != nil {
		return nil, fmt.Errorf("failed to store captured item: %w", err)
	}

	s.logger.Info("Captured newsletter",
		zap.String("id", item.ID),
		zap.String("sender", item.SenderEmail),
		zap.String("sender_domain", competitors.Domain(item.SenderEmail)),
		zap.Time("sent_at", item.Timestamp))

	return item, nil
}

// parseSender prefers the From header and falls back to the envelope sender
func (s *SMTPServer) parseSender(fromHeader, envelopeFrom string) (string, string) {
	if fromHeader != "" {
		if addr, err := mail.ParseAddress(fromHeader); err == nil {
			return strings.ToLower(addr.Address), strings.TrimSpace(addr.Name)
		}
		s.logger.Debug("Unparseable From header", zap.String("from", fromHeader))
	}
	return strings.ToLower(strings.TrimSpace(envelopeFrom)), ""
}

// smtpBackend implements the go-smtp Backend interface
type smtpBackend struct {
	capture *SMTPServer
}

// NewSession creates a new SMTP session
func (b *smtpBackend) NewSession(_ *smtp.Conn) (smtp.Session, error) {
	return &smtpSession{capture: b.capture}, nil
}

// smtpSession implements the go-smtp Session and AuthSession interfaces
type smtpSession struct {
	capture       *SMTPServer
	authenticated bool
	sender        string
	recipients    []string
}

// AuthMechanisms lists PLAIN when authentication is configured
func (s *smtpSession) AuthMechanisms() []string {
	if !s.capture.cfg.AuthEnabled {
		return nil
	}
	return []string{sasl.Plain}
}

// Auth returns the SASL server for the requested mechanism
func (s *smtpSession) Auth(mech string) (sasl.Server, error) {
	if !s.capture.cfg.AuthEnabled || mech != sasl.Plain {
		return nil, smtp.ErrAuthUnknownMechanism
	}

	return sasl.NewPlainServer(func(identity, username, password string) error {
		if identity != "" && identity != username {
			return errors.New("invalid identity")
		}
		userOK := subtle.ConstantTimeCompare([]byte(username), []byte(s.capture.cfg.AuthUsername)) == 1
		passOK := subtle.ConstantTimeCompare([]byte(password), []byte(s.capture.cfg.AuthPassword)) == 1
		if !userOK || !passOK {
			s.capture.logger.Warn("Capture authentication failed", zap.String("username", username))
			return smtp.ErrAuthFailed
		}
		s.authenticated = true
		return nil
	}), nil
}

// Mail sets the sender address
func (s *smtpSession) Mail(from string, _ *smtp.MailOptions) error {
	if s.capture.cfg.AuthEnabled && !s.authenticated {
		return smtp.ErrAuthRequired
	}
	s.sender = from
	return nil
}

// Rcpt adds a recipient
func (s *smtpSession) Rcpt(to string, _ *smtp.RcptOptions) error {
	s.recipients = append(s.recipients, to)
	return nil
}

// Data stores the message in the catalog
func (s *smtpSession) Data(r io.Reader) error {
	raw, err := io.ReadAll(r)
	if err != nil {
		s.capture.logger.Error("Failed to read message data", zap.Error(err))
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	item, err := s.capture.process(ctx, raw, s.sender)
	if err != nil {
		if errors.Is(err, ErrUntrackedSender) {
			s.capture.logger.Info("Rejecting mail from untracked sender",
				zap.String("envelope_from", s.sender),
				zap.Strings("recipients", s.recipients))
			return &smtp.SMTPError{
				Code:         550,
				EnhancedCode: smtp.EnhancedCode{5, 7, 1},
				Message:      "Sender is not tracked",
			}
		}
		s.capture.logger.Error("Failed to capture message", zap.Error(err),
			zap.String("envelope_from", s.sender),
			zap.Strings("recipients", s.recipients))
		return &smtp.SMTPError{
			Code:         451,
			EnhancedCode: smtp.EnhancedCode{4, 3, 0},
			Message:      "Message could not be stored",
		}
	}

	s.capture.logger.Debug("Message accepted",
		zap.String("id", item.ID),
		zap.String("envelope_from", s.sender),
		zap.Strings("recipients", s.recipients))
	return nil
}

// Reset resets the session state
func (s *smtpSession) Reset() {
	s.sender = ""
	s.recipients = nil
}

// Logout handles SMTP logout
func (s *smtpSession) Logout() error {
	return nil
}
