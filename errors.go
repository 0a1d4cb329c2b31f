package xtree

import (
	"fmt"

	"github.com/pkg/errors"
)

// ErrorKind discriminates the fatal conditions the builder can report.
// Every parse either yields a complete Document or exactly one Error;
// there is no partial-tree recovery.
type ErrorKind uint8

const (
	KindInvalidXMLPrefixURI ErrorKind = iota
	KindUnexpectedXmlnsURI
	KindInvalidElementNamePrefix
	KindDuplicatedNamespace
	KindUnknownNamespace
	KindUnexpectedCloseTag
	KindUnexpectedEntityCloseTag
	KindUnknownEntityReference
	KindMalformedEntityReference
	KindEntityReferenceLoop
	KindInvalidAttributeValue
	KindDuplicatedAttribute
	KindNoRootNode
	KindUnclosedRootNode
	KindDtdDetected
	KindNodesLimitReached
	KindParserError
)

func (k ErrorKind) String() string {
	switch k {
	case KindInvalidXMLPrefixURI:
		return "InvalidXmlPrefixUri"
	case KindUnexpectedXmlnsURI:
		return "UnexpectedXmlnsUri"
	case KindInvalidElementNamePrefix:
		return "InvalidElementNamePrefix"
	case KindDuplicatedNamespace:
		return "DuplicatedNamespace"
	case KindUnknownNamespace:
		return "UnknownNamespace"
	case KindUnexpectedCloseTag:
		return "UnexpectedCloseTag"
	case KindUnexpectedEntityCloseTag:
		return "UnexpectedEntityCloseTag"
	case KindUnknownEntityReference:
		return "UnknownEntityReference"
	case KindMalformedEntityReference:
		return "MalformedEntityReference"
	case KindEntityReferenceLoop:
		return "EntityReferenceLoop"
	case KindInvalidAttributeValue:
		return "InvalidAttributeValue"
	case KindDuplicatedAttribute:
		return "DuplicatedAttribute"
	case KindNoRootNode:
		return "NoRootNode"
	case KindUnclosedRootNode:
		return "UnclosedRootNode"
	case KindDtdDetected:
		return "DtdDetected"
	case KindNodesLimitReached:
		return "NodesLimitReached"
	case KindParserError:
		return "ParserError"
	default:
		return "Unknown"
	}
}

// Error is the single error type returned by Parse. Pos is the zero value
// when the failure has no meaningful source position.
type Error struct {
	Kind ErrorKind
	Pos  Position
	Err  error
}

func (e *Error) Error() string {
	if e.Pos.Line == 0 && e.Pos.Column == 0 {
		return fmt.Sprintf("%s: %s", e.Kind, e.Err)
	}
	return fmt.Sprintf("%s at line %d, column %d: %s", e.Kind, e.Pos.Line, e.Pos.Column, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

func newError(kind ErrorKind, pos Position, msg string) *Error {
	return &Error{Kind: kind, Pos: pos, Err: errors.New(msg)}
}

func newErrorf(kind ErrorKind, pos Position, format string, args ...any) *Error {
	return &Error{Kind: kind, Pos: pos, Err: errors.Errorf(format, args...)}
}

func wrapError(kind ErrorKind, pos Position, cause error, msg string) *Error {
	return &Error{Kind: kind, Pos: pos, Err: errors.Wrap(cause, msg)}
}
