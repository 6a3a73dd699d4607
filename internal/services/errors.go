package services

import "errors"

var (
	ErrTemplateNotFound   = errors.New("template not found")
	ErrGenerationNotFound = errors.New("generation record not found")
	ErrObjectNotFound     = errors.New("stored object not found")
)
