package fetcher

import (
	"certpin/config"
	"certpin/pkg/model"
	"context"
	"crypto/tls"
	"crypto/x509"
	"net"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"golang.org/x/net/idna"
	"golang.org/x/net/publicsuffix"
)

// DefaultPort is used for hosts given without a port
const DefaultPort = "443"

// Fetcher retrieves the certificate chain presented by a host
type Fetcher struct {
	ConnectTimeout time.Duration
	ReadTimeout    time.Duration
	RootCAs        *x509.CertPool
	Log            *log.Logger
}

// New returns a Fetcher using the timeouts and trust store of cfg
func New(cfg *config.Configuration) *Fetcher {
	l := cfg.Log
	if l == nil {
		l = log.StandardLogger()
	}
	return &Fetcher{
		ConnectTimeout: cfg.ConnectTimeout,
		ReadTimeout:    cfg.ReadTimeout,
		RootCAs:        cfg.RootCAs,
		Log:            l,
	}
}

// Endpoint builds the https URL of a host entry, adding the default port if missing
func Endpoint(host string) (*url.URL, error) {
	hostport := host
	if _, _, err := net.SplitHostPort(host); err != nil {
		hostport = net.JoinHostPort(host, DefaultPort)
	}
	u, err := url.Parse("https://" + hostport)
	if err != nil {
		return nil, errors.Wrapf(err, "invalid host %q", host)
	}
	if u.Path != "" || u.RawQuery != "" || u.User != nil || u.Fragment != "" {
		return nil, errors.Errorf("invalid host %q: not a bare host name", host)
	}

	name, port := u.Hostname(), u.Port()
	if name == "" {
		return nil, errors.Errorf("invalid host %q: empty host name", host)
	}
	if p, err := strconv.Atoi(port); err != nil || p < 1 || p > 65535 {
		return nil, errors.Errorf("invalid host %q: bad port %q", host, port)
	}
	if net.ParseIP(name) == nil {
		name, err = idna.Lookup.ToASCII(strings.TrimSuffix(name, "."))
		if err != nil {
			return nil, errors.Wrapf(err, "invalid host %q", host)
		}
		if suffix, icann := publicsuffix.PublicSuffix(name); icann && suffix == name {
			return nil, errors.Errorf("invalid host %q: public suffix, not a host", host)
		}
	}
	u.Host = net.JoinHostPort(name, port)
	return u, nil
}

// Fetch connects to host and returns the certificates it presented.
// Errors are *model.Failure values.
func (f *Fetcher) Fetch(ctx context.Context, host string) ([]*x509.Certificate, error) {
	u, err := Endpoint(host)
	if err != nil {
		return nil, model.NewFailure(model.FailureEndpoint, err)
	}

	f.Log.Debugf("Connecting to %s", u.Host)
	dialer := &net.Dialer{Timeout: f.ConnectTimeout}
	raw, err := dialer.DialContext(ctx, "tcp", u.Host)
	if err != nil {
		return nil, model.NewFailure(model.FailureNetwork, errors.Wrapf(err, "can't connect to %s", u.Host))
	}
	conn := tls.Client(raw, &tls.Config{
		ServerName: u.Hostname(),
		RootCAs:    f.RootCAs,
	})
	defer conn.Close()

	hctx, cancel := context.WithTimeout(ctx, f.ReadTimeout)
	defer cancel()
	if err := conn.HandshakeContext(hctx); err != nil {
		return nil, model.NewFailure(model.FailureNetwork, errors.Wrapf(err, "TLS handshake with %s failed", u.Host))
	}

	certs := conn.ConnectionState().PeerCertificates
	f.Log.Debugf("%s presented %d certificate(s)", u.Host, len(certs))
	return certs, nil
}
