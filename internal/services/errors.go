package services

import (
	"errors"

	"github.com/marwannelsayed/spare-demand-forecast/internal/sales"
)

// Service errors
var (
	// Dataset errors
	ErrDatasetNotFound = sales.ErrDatasetNotFound
	ErrInvalidFileType = errors.New("invalid file type")

	// SKU errors
	ErrSKUNotFound = errors.New("sku not found")
)
