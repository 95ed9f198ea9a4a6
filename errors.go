package md2lms

import (
	"errors"

	"github.com/alnah/go-md2lms/internal/pipeline"
)

// Sentinel errors for library operations.
var (
	ErrHTMLConversion = pipeline.ErrHTMLConversion
	ErrInvalidTables  = errors.New("invalid conversion tables")
	ErrInternal       = errors.New("internal error")
)
