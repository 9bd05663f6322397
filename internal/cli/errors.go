package cli

import (
	"errors"
	"fmt"

	"github.com/glemin5011/typemeld/internal/config"
	"github.com/glemin5011/typemeld/internal/diag"
	"github.com/glemin5011/typemeld/internal/loader"
)

// Error codes reported in CLIError.Code. E002-E005 come from the loader.
const (
	ErrCodeGeneric       = "E001" // Generic/unknown error
	ErrCodeScanError     = loader.ErrCodeScanError
	ErrCodeNoFiles       = loader.ErrCodeNoFiles
	ErrCodeReadFailed    = loader.ErrCodeReadFailed
	ErrCodeNotFound      = loader.ErrCodeNotFound
	ErrCodeInvalidConfig = "E006" // Config file failed validation
	ErrCodeWriteFailed   = "E007" // Output write error
	ErrCodeStore         = "E008" // History database error
	ErrCodePlugin        = "E009" // Plugin failed

	ErrCodeSchemaInvalid = "E_SCHEMA_INVALID"
	ErrCodeTestFailed    = "E_TEST_FAILED"
	ErrCodeBreaking      = "E_BREAKING_CHANGE"
)

// codedError attaches a CLI error code to an error.
type codedError struct {
	code string
	err  error
}

func (e *codedError) Error() string { return e.err.Error() }
func (e *codedError) Unwrap() error { return e.err }

func withCode(code string, err error) error {
	if err == nil {
		return nil
	}
	return &codedError{code: code, err: err}
}

// schemaError reports a schema with error diagnostics.
type schemaError struct {
	diags diag.List
}

func (e *schemaError) Error() string {
	return fmt.Sprintf("schema has %d error(s)", len(e.diags.Errors()))
}

// errorCode maps err to a CLI error code.
func errorCode(err error) string {
	var coded *codedError
	if errors.As(err, &coded) {
		return coded.code
	}
	var loadErr *loader.LoadError
	if errors.As(err, &loadErr) {
		return loadErr.Code
	}
	var cfgErr *config.Error
	if errors.As(err, &cfgErr) {
		return ErrCodeInvalidConfig
	}
	var schemaErr *schemaError
	if errors.As(err, &schemaErr) {
		return ErrCodeSchemaInvalid
	}
	return ErrCodeGeneric
}

// fail reports err through the formatter and returns the ExitError the
// command should return. An invalid schema exits with ExitFailure, every
// other error with ExitCommandError.
func fail(out *OutputFormatter, err error) error {
	code := errorCode(err)

	var schemaErr *schemaError
	if errors.As(err, &schemaErr) {
		out.Diagnostics(out.Writer, schemaErr.diags)
		_ = out.Error(code, err.Error(), schemaErr.diags)
		return WrapExitError(ExitFailure, code, err)
	}

	_ = out.Error(code, errorMessage(err), nil)
	return WrapExitError(ExitCommandError, code, err)
}

// errorMessage drops the code a LoadError repeats in its own message.
func errorMessage(err error) string {
	if loadErr, ok := err.(*loader.LoadError); ok {
		if loadErr.Path != "" {
			return loadErr.Path + ": " + loadErr.Message
		}
		return loadErr.Message
	}
	return err.Error()
}
