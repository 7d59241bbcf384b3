package pages

import "errors"

var (
	// ErrEmptyGallery is returned when a project has no detail images.
	ErrEmptyGallery = errors.New("project has no detail images")
	// ErrProjectNotFound is returned for an unknown or hidden project number.
	ErrProjectNotFound = errors.New("project not found")
	// ErrInvalidDocument is returned when a viewer file escapes the content root or is not a PDF.
	ErrInvalidDocument = errors.New("document must be a PDF under the content root")
)
