package lab

import "errors"

var (
	ErrCaseNotFound       = errors.New("case not found")
	ErrReportNotFound     = errors.New("lab report not found")
	ErrFileNotFound       = errors.New("file not found")
	ErrInvalidTestIDs     = errors.New("invalid test ids")
	ErrInvalidStatus      = errors.New("invalid lab status")
	ErrInvalidResults     = errors.New("results data must be a JSON object")
	ErrUnknownFile        = errors.New("file is not attached to this report")
	ErrReportFinalized    = errors.New("lab report already finalized")
	ErrSampleNotCollected = errors.New("sample not collected")
)
