package epubtidy

import "errors"

// Sentinel errors returned by the epubtidy package.
var (
	// ErrDRMProtected indicates the ePub file is protected by DRM
	// (e.g., Adobe ADEPT, Apple FairPlay, Readium LCP). Encrypted content
	// cannot be reformatted.
	ErrDRMProtected = errors.New("epub: file is DRM protected")

	// ErrInvalidEPub indicates the file is not a valid ePub
	// (e.g., missing container.xml and no .opf file found).
	ErrInvalidEPub = errors.New("epub: invalid ePub file")

	// ErrFileNotFound indicates the requested file does not exist
	// in the ePub archive.
	ErrFileNotFound = errors.New("epub: file not found in archive")

	// ErrInvalidEncoding indicates an item payload is not valid UTF-8 text.
	ErrInvalidEncoding = errors.New("epub: payload is not valid UTF-8")

	// ErrSameFile indicates the output path refers to the input file.
	ErrSameFile = errors.New("epub: output path is the input file")
)
