package domain

import (
	"strings"

	"github.com/google/uuid"
)

// Pathname grammar:
//   namespace pathname:  ns1.ns2.ns3   (dot-separated segments)
//   corpus pathname:     ns1.ns2:name  (namespace pathname + ":" + corpus name)
// The root namespace is the empty string and only exists logically.
const (
	NamespaceSeparator = "."
	CorpusSeparator    = ":"

	// RootName is the reserved pathname of the root namespace.
	RootName = ""
)

// RootID is the reserved identifier of the root namespace.
var RootID = uuid.Nil

// Pathname length limits. Segment limits leave room for the separator.
const (
	MaxPathLength    = 256
	MaxSegmentLength = 32
	MaxNameLength    = MaxSegmentLength - 1
)

// IsNameValid reports whether a single name segment is well formed:
// non-empty, within length limits, and restricted to [a-zA-Z0-9_].
func IsNameValid(name string) bool {
	if name == "" || len(name) > MaxNameLength {
		return false
	}
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z':
		case r >= 'A' && r <= 'Z':
		case r >= '0' && r <= '9':
		case r == '_':
		default:
			return false
		}
	}
	return true
}

// IsNamespacePathnameValid reports whether pathname is a well formed,
// non-root namespace pathname.
func IsNamespacePathnameValid(pathname string) bool {
	if pathname == RootName || len(pathname) > MaxPathLength {
		return false
	}
	if strings.Contains(pathname, CorpusSeparator) {
		return false
	}
	for _, segment := range strings.Split(pathname, NamespaceSeparator) {
		if !IsNameValid(segment) {
			return false
		}
	}
	return true
}

// IsCorpusPathnameValid reports whether pathname is a well formed corpus
// pathname. Root level corpora look like ":name".
func IsCorpusPathnameValid(pathname string) bool {
	if len(pathname) > MaxPathLength {
		return false
	}
	tokens := strings.Split(pathname, CorpusSeparator)
	if len(tokens) != 2 {
		return false
	}
	if !IsNameValid(tokens[1]) {
		return false
	}
	if tokens[0] == RootName {
		return true
	}
	return IsNamespacePathnameValid(tokens[0])
}

// SplitNamespacePathname parses a namespace pathname into its parent pathname
// and the local namespace name (NOT the child's full pathname).
func SplitNamespacePathname(pathname string) (parent, name string, err error) {
	if !IsNamespacePathnameValid(pathname) {
		return "", "", &IllegalNameError{Pathname: pathname}
	}
	idx := strings.LastIndex(pathname, NamespaceSeparator)
	if idx < 0 {
		return RootName, pathname, nil
	}
	return pathname[:idx], pathname[idx+1:], nil
}

// SplitCorpusPathname parses a corpus pathname into the parent namespace
// pathname and the local corpus name.
func SplitCorpusPathname(pathname string) (parent, name string, err error) {
	if !IsCorpusPathnameValid(pathname) {
		return "", "", &IllegalNameError{Pathname: pathname}
	}
	idx := strings.Index(pathname, CorpusSeparator)
	return pathname[:idx], pathname[idx+1:], nil
}

// JoinCorpusPathname reassembles a corpus pathname from its parts.
func JoinCorpusPathname(parentPathname, corpusName string) string {
	return parentPathname + CorpusSeparator + corpusName
}
