// Package tls harvests X.509 certificate attribution data from a host
// without verifying the chain or hostname — this is reconnaissance
// traffic, and self-signed or expired certificates are expected and
// still carry useful Subject/Issuer/SAN information.
package tls

import (
	"context"
	"crypto/sha256"
	"crypto/tls"
	"crypto/x509"
	"encoding/hex"
	"fmt"
	"net"
	"strings"
	"time"
)

// Info is the attribution data pulled from a single certificate.
type Info struct {
	CommonName        string
	SubjectOrg        string
	Issuer            string
	IssuerOrg         string
	ValidFrom         time.Time
	ValidTo           time.Time
	SAN               []string
	EmailAddresses    []string
	SerialNumber      string
	FingerprintSHA256 string
	IsValid           bool
	IsSelfSigned      bool
	Error             string
}

// Client fetches and parses certificates. Zero value is ready to use.
type Client struct {
	Timeout time.Duration
	Now     func() time.Time
}

// New constructs a Client with the given per-connection timeout.
func New(timeout time.Duration) *Client {
	return &Client{Timeout: timeout, Now: time.Now}
}

// FetchCert dials host:port over TLS with verification disabled and
// returns the attribution data parsed from the peer's leaf
// certificate, regardless of its validity.
func (c *Client) FetchCert(ctx context.Context, host string, port int) Info {
	timeout := c.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}

	dialer := &net.Dialer{Timeout: timeout}
	addr := fmt.Sprintf("%s:%d", host, port)

	rawConn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return Info{Error: classifyDialError(err)}
	}
	defer rawConn.Close()

	conn := tls.Client(rawConn, &tls.Config{
		InsecureSkipVerify: true, //nolint:gosec
		ServerName:         host,
	})
	if err := conn.HandshakeContext(ctx); err != nil {
		return Info{Error: fmt.Sprintf("SSL error: %s", truncate(err.Error(), 50))}
	}
	defer conn.Close()

	certs := conn.ConnectionState().PeerCertificates
	if len(certs) == 0 {
		return Info{Error: "no certificate returned"}
	}

	return c.parseCert(certs[0])
}

func (c *Client) parseCert(cert *x509.Certificate) Info {
	now := c.now()
	isValid := !now.Before(cert.NotBefore) && !now.After(cert.NotAfter)
	isSelfSigned := cert.Subject.String() == cert.Issuer.String()

	var san []string
	san = append(san, cert.DNSNames...)
	for _, ip := range cert.IPAddresses {
		san = append(san, ip.String())
	}

	emails := append([]string(nil), cert.EmailAddresses...)

	sum := sha256.Sum256(cert.Raw)

	return Info{
		CommonName:        cert.Subject.CommonName,
		SubjectOrg:        firstOrEmpty(cert.Subject.Organization),
		Issuer:            cert.Issuer.CommonName,
		IssuerOrg:         firstOrEmpty(cert.Issuer.Organization),
		ValidFrom:         cert.NotBefore,
		ValidTo:           cert.NotAfter,
		SAN:               san,
		EmailAddresses:    emails,
		SerialNumber:      strings.ToUpper(cert.SerialNumber.Text(16)),
		FingerprintSHA256: hex.EncodeToString(sum[:]),
		IsValid:           isValid,
		IsSelfSigned:      isSelfSigned,
	}
}

func (c *Client) now() time.Time {
	if c.Now != nil {
		return c.Now()
	}
	return time.Now()
}

func firstOrEmpty(values []string) string {
	if len(values) == 0 {
		return ""
	}
	return values[0]
}

func classifyDialError(err error) string {
	if netErr, ok := err.(net.Error); ok && netErr.Timeout() {
		return "connection timeout"
	}
	msg := err.Error()
	switch {
	case strings.Contains(msg, "connection refused"):
		return "connection refused"
	case strings.Contains(msg, "no such host"):
		return fmt.Sprintf("DNS error: %s", truncate(msg, 30))
	case strings.Contains(msg, "reset by peer"):
		return "connection reset"
	default:
		return fmt.Sprintf("OS error: %s", truncate(msg, 30))
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
