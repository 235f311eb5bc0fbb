package errors

import (
	stderrors "errors"
	"io"
	"testing"
)

func TestWrapKeepsCode(t *testing.T) {
	base := ConfigInvalid("EQUIV_RTOL must be non-negative")
	wrapped := Wrap(base, "configuration validation failed")

	if GetCode(wrapped) != CodeConfigInvalid {
		t.Errorf("Expected code %s, got %s", CodeConfigInvalid, GetCode(wrapped))
	}
	if !stderrors.Is(wrapped, base) {
		t.Error("Expected wrapped error to unwrap to the base error")
	}
}

func TestWrapForeignError(t *testing.T) {
	wrapped := Wrapf(io.ErrUnexpectedEOF, "reading %s", "ledger.json")
	if GetCode(wrapped) != CodeInternalError {
		t.Errorf("Expected code %s, got %s", CodeInternalError, GetCode(wrapped))
	}
	if !stderrors.Is(wrapped, io.ErrUnexpectedEOF) {
		t.Error("Expected io.ErrUnexpectedEOF in chain")
	}
	if Wrap(nil, "nothing") != nil {
		t.Error("Expected Wrap(nil) to be nil")
	}
}

func TestConstructors(t *testing.T) {
	err := ExportFailed("out.json", io.ErrClosedPipe)
	if err.Code != CodeExportFailed {
		t.Errorf("Unexpected code %s", err.Code)
	}
	if err.Error() != "failed to export ledger to out.json: io: read/write on closed pipe" {
		t.Errorf("Unexpected message %q", err.Error())
	}
	if GetCode(io.EOF) != "UNKNOWN" {
		t.Error("Expected UNKNOWN for plain errors")
	}
	if GetCode(WithCode(CodeNotFound, io.EOF)) != CodeNotFound {
		t.Error("Expected WithCode to set code")
	}
}
