package util

import "errors"

var (
	// ErrNoExtractableText marks a document where no page produced any
	// content, even after OCR. Fatal to the whole ingestion.
	ErrNoExtractableText = errors.New("no extractable text found in document")

	// ErrEmbeddingDimension marks a provider vector whose length does not
	// match the configured dimension.
	ErrEmbeddingDimension = errors.New("embedding dimension mismatch")

	ErrNotFound = errors.New("not found")
)
