package model

import "time"

// FailureKind classifies why a host produced no certificate
type FailureKind string

const (
	FailureEndpoint FailureKind = "endpoint"
	FailureDigest   FailureKind = "digest"
	FailureEncoding FailureKind = "encoding"
	FailureNetwork  FailureKind = "network"
)

// Failure represents a per-host error
type Failure struct {
	Kind FailureKind
	Err  error
}

func (f *Failure) Error() string {
	if f.Err == nil {
		return string(f.Kind) + " failure"
	}
	return f.Err.Error()
}

func (f *Failure) Unwrap() error {
	return f.Err
}

// NewFailure returns a Failure of the given kind
func NewFailure(kind FailureKind, err error) *Failure {
	return &Failure{Kind: kind, Err: err}
}

// Certificate represents the details reported for a leaf certificate
type Certificate struct {
	Pin       string
	SPKIPin   string
	Subject   string
	Issuer    string
	NotBefore time.Time
	NotAfter  time.Time
}

// Result represents the outcome for one host.
// Exactly one of Certificate and Failure is set, unless the peer
// presented no certificate at all.
type Result struct {
	Host        string
	Certificate *Certificate
	Failure     *Failure
}

// Empty reports whether the host presented an empty chain
func (r *Result) Empty() bool {
	return r.Certificate == nil && r.Failure == nil
}
