package reporter

import (
	"certpin/config"
	"certpin/pkg/model"
	"certpin/pkg/pin"
	"context"
	"crypto/x509"
	"fmt"
	"io"
	"strings"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// DateLayout renders validity dates, always in UTC
const DateLayout = "Mon Jan 02 15:04:05 MST 2006"

// Source provides the certificate chain presented by a host
type Source interface {
	Fetch(ctx context.Context, host string) ([]*x509.Certificate, error)
}

// Reporter turns hosts into pin reports, one host at a time
type Reporter struct {
	source Source
	spki   bool
	log    *log.Logger
}

// New returns a Reporter reading certificates from source
func New(cfg *config.Configuration, source Source) *Reporter {
	l := cfg.Log
	if l == nil {
		l = log.StandardLogger()
	}
	return &Reporter{source: source, spki: cfg.SPKIPins, log: l}
}

// Inspect fetches the leaf certificate of host and computes its pin
func (r *Reporter) Inspect(ctx context.Context, host string) *model.Result {
	res := &model.Result{Host: host}

	certs, err := r.source.Fetch(ctx, host)
	if err != nil {
		res.Failure = asFailure(err)
		r.log.Warnf("Can't get certificate of '%v': %v", host, res.Failure)
		return res
	}
	if len(certs) == 0 {
		r.log.Warnf("No certificate presented by '%v'", host)
		return res
	}

	leaf := certs[0]
	p, err := pin.Certificate(leaf)
	if err != nil {
		res.Failure = pinFailure(err)
		return res
	}
	c := &model.Certificate{
		Pin:       p,
		Subject:   leaf.Subject.String(),
		Issuer:    leaf.Issuer.String(),
		NotBefore: leaf.NotBefore,
		NotAfter:  leaf.NotAfter,
	}
	if r.spki {
		if c.SPKIPin, err = pin.SPKI(leaf); err != nil {
			res.Failure = pinFailure(err)
			return res
		}
	}
	res.Certificate = c
	r.log.Debugf("Pin of '%v' is %v", host, p)
	return res
}

// Collect inspects every host in order
func (r *Reporter) Collect(ctx context.Context, hosts []string) []*model.Result {
	results := make([]*model.Result, 0, len(hosts))
	for _, h := range hosts {
		results = append(results, r.Inspect(ctx, h))
	}
	return results
}

// Run inspects every host in order and writes each report as soon as it is ready
func (r *Reporter) Run(ctx context.Context, hosts []string, w io.Writer) ([]*model.Result, error) {
	results := make([]*model.Result, 0, len(hosts))
	for _, h := range hosts {
		res := r.Inspect(ctx, h)
		results = append(results, res)
		if err := WriteResult(w, res); err != nil {
			return results, err
		}
	}
	return results, nil
}

// Render writes the reports of results in order
func Render(w io.Writer, results []*model.Result) error {
	for _, res := range results {
		if err := WriteResult(w, res); err != nil {
			return err
		}
	}
	return nil
}

// WriteResult writes the report block of a single host
func WriteResult(w io.Writer, res *model.Result) error {
	var b strings.Builder
	fmt.Fprintf(&b, "=== Certificate for %s ===\n", res.Host)
	switch {
	case res.Failure != nil:
		fmt.Fprintf(&b, "Error: %s\n", res.Failure.Error())
	case res.Certificate == nil:
		b.WriteString("No certificates found\n")
	default:
		c := res.Certificate
		fmt.Fprintf(&b, "SHA-256 Pin: %s\n", c.Pin)
		if c.SPKIPin != "" {
			fmt.Fprintf(&b, "SPKI Pin: %s\n", c.SPKIPin)
		}
		fmt.Fprintf(&b, "Subject: %s\n", c.Subject)
		fmt.Fprintf(&b, "Issuer: %s\n", c.Issuer)
		fmt.Fprintf(&b, "Valid From: %s\n", c.NotBefore.UTC().Format(DateLayout))
		fmt.Fprintf(&b, "Valid To: %s\n", c.NotAfter.UTC().Format(DateLayout))
	}
	b.WriteString("\n")

	_, err := io.WriteString(w, b.String())
	return errors.Wrapf(err, "can't write report for %s", res.Host)
}

// asFailure keeps typed failures and treats anything else as a network error
func asFailure(err error) *model.Failure {
	var f *model.Failure
	if errors.As(err, &f) {
		return f
	}
	return model.NewFailure(model.FailureNetwork, err)
}

func pinFailure(err error) *model.Failure {
	if errors.Is(err, pin.ErrDigestUnavailable) {
		return model.NewFailure(model.FailureDigest, err)
	}
	return model.NewFailure(model.FailureEncoding, err)
}
