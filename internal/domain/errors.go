package domain

import "errors"

var (
	// ErrIndexUnavailable signals that the sparse corpus index has not been built yet.
	ErrIndexUnavailable = errors.New("sparse index unavailable")
	// ErrMalformedPredicate signals a filter predicate with an unknown field,
	// operator, or shape.
	ErrMalformedPredicate = errors.New("malformed filter predicate")
	// ErrVectorPortFailure signals a dense branch failure that survived the retry policy.
	ErrVectorPortFailure = errors.New("vector search port failure")
	// ErrEmbeddingProviderError signals an embedding provider failure.
	ErrEmbeddingProviderError = errors.New("embedding provider error")
	// ErrDuplicateDocID signals a corpus with a repeated document identifier.
	ErrDuplicateDocID = errors.New("duplicate doc_id in corpus")
	// ErrCorpusEmpty signals a corpus file with no documents.
	ErrCorpusEmpty = errors.New("corpus is empty")
)
