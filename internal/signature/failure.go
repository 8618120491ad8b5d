package signature

import (
	"context"
	"errors"
	"fmt"
)

// Kind classifies a lookup failure.
type Kind string

const (
	KindDownload Kind = "download"
	KindExtract  Kind = "extract"
	KindDecode   Kind = "decode"
	KindTimeout  Kind = "timeout"
)

// Failure is the typed error returned for a failed lookup.
type Failure struct {
	Kind   Kind
	Link   string
	Detail string
	Err    error
}

func (f *Failure) Error() string {
	msg := fmt.Sprintf("signature %s failed for %s", f.Kind, f.Link)
	if f.Detail != "" {
		msg += ": " + f.Detail
	}
	if f.Err != nil {
		msg += ": " + f.Err.Error()
	}
	return msg
}

func (f *Failure) Unwrap() error {
	return f.Err
}

// KindOf returns the failure kind of err, or "" when err is not a Failure.
func KindOf(err error) Kind {
	var failure *Failure
	if errors.As(err, &failure) {
		return failure.Kind
	}
	return ""
}

func newFailure(ctx context.Context, kind Kind, link, detail string, err error) *Failure {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) || errors.Is(err, context.DeadlineExceeded) {
		kind = KindTimeout
	}
	return &Failure{Kind: kind, Link: link, Detail: detail, Err: err}
}
