package ipo

import "errors"

var (
	ErrInvalidStatus = errors.New("invalid ipo status")
	ErrIPONotFound   = errors.New("ipo not found")
)
