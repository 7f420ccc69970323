package oracle

import (
	"context"
	"fmt"
)

// Combiner resolves a pair of item names. Implementations never retry; the
// caller decides what to do with a failure.
type Combiner interface {
	Combine(ctx context.Context, first, second string) Result
}

type ResultKind int

const (
	KindProduced ResultKind = iota
	KindNothing
	KindFailure
)

func (k ResultKind) String() string {
	switch k {
	case KindProduced:
		return "produced"
	case KindNothing:
		return "nothing"
	case KindFailure:
		return "failure"
	}
	return fmt.Sprintf("ResultKind(%d)", int(k))
}

// Result is a classified oracle answer. Name, Emoji and IsNew are set for
// KindProduced; Failure is set for KindFailure.
type Result struct {
	Kind    ResultKind
	Name    string
	Emoji   string // empty when the oracle sent no glyph
	IsNew   bool
	Failure *Failure
}

func Produced(name, emoji string, isNew bool) Result {
	return Result{Kind: KindProduced, Name: name, Emoji: emoji, IsNew: isNew}
}

func Nothing() Result { return Result{Kind: KindNothing} }

func Failed(f *Failure) Result { return Result{Kind: KindFailure, Failure: f} }

// FailureKind classifies why a combine call did not produce an answer.
type FailureKind int

const (
	RateLimited FailureKind = iota + 1
	Forbidden
	Network
	MalformedResponse
)

// Kinds lists every failure kind, for policy tables.
var Kinds = []FailureKind{RateLimited, Forbidden, Network, MalformedResponse}

func (k FailureKind) String() string {
	switch k {
	case RateLimited:
		return "rate_limited"
	case Forbidden:
		return "forbidden"
	case Network:
		return "network"
	case MalformedResponse:
		return "malformed"
	}
	return fmt.Sprintf("FailureKind(%d)", int(k))
}

// Failure is a combine call that did not yield a usable answer.
type Failure struct {
	Kind    FailureKind
	Status  int // HTTP status, zero for transport errors
	Message string
	Err     error
}

func (f *Failure) Error() string {
	if f.Status != 0 {
		return fmt.Sprintf("oracle %s (HTTP %d): %s", f.Kind, f.Status, f.Message)
	}
	return fmt.Sprintf("oracle %s: %s", f.Kind, f.Message)
}

func (f *Failure) Unwrap() error { return f.Err }
