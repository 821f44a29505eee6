package rpc

import (
	"context"
	"errors"
	"strings"

	"connectrpc.com/connect"

	"github.com/mcdev12/dynasty-draft/go/internal/draft/drafterr"
)

// kindHeader carries the draft error kind next to the Connect code.
const kindHeader = "Draft-Error-Kind"

// codeFor maps a draft error onto a Connect code.
func codeFor(err error) connect.Code {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return connect.CodeDeadlineExceeded
	case errors.Is(err, context.Canceled):
		return connect.CodeCanceled
	}

	kind := drafterr.KindOf(err)
	switch kind {
	case drafterr.KindDraftNotFound:
		return connect.CodeNotFound
	case drafterr.KindInvalidRequest:
		return connect.CodeInvalidArgument
	case drafterr.KindUnavailable:
		return connect.CodeUnavailable
	}
	switch drafterr.ClassOf(kind) {
	case drafterr.ClassValidation, drafterr.ClassTiming:
		return connect.CodeFailedPrecondition
	}
	return connect.CodeInternal
}

func toConnectError(err error) error {
	if err == nil {
		return nil
	}
	kind := drafterr.KindOf(err)
	// the kind travels in the header, so the message leaves it out
	msg := strings.TrimPrefix(err.Error(), string(kind)+": ")
	cerr := connect.NewError(codeFor(err), errors.New(msg))
	cerr.Meta().Set(kindHeader, string(kind))
	return cerr
}

// FromConnectError turns an error returned by Client back into a draft error
// so callers can match sentinels with errors.Is.
func FromConnectError(err error) error {
	var cerr *connect.Error
	if !errors.As(err, &cerr) {
		return err
	}
	kind := drafterr.Kind(cerr.Meta().Get(kindHeader))
	if kind == "" {
		return err
	}
	return &drafterr.Error{Kind: kind, Err: cerr}
}
