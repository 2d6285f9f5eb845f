package ir

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Domain prefixes for content-addressed IDs. The version suffix leaves room
// for changing the hashing scheme.
const (
	DomainInvocation = "mega/invocation/v1"
	DomainCompletion = "mega/completion/v1"
)

// hashWithDomain returns hex(SHA256(domain || 0x00 || data)).
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// InvocationID computes the content-addressed ID of an invocation. The same
// run token, action, args and seq always produce the same ID.
func InvocationID(runToken, action string, args Object, seq int64) (string, error) {
	if args == nil {
		args = Object{}
	}
	canonical, err := MarshalCanonical(Object{
		"run_token": String(runToken),
		"action":    String(action),
		"args":      args,
		"seq":       Int(seq),
	})
	if err != nil {
		return "", fmt.Errorf("InvocationID: %w", err)
	}
	return hashWithDomain(DomainInvocation, canonical), nil
}

// CompletionID computes the content-addressed ID of a completion.
func CompletionID(invocationID, outcome string, result Object, seq int64) (string, error) {
	if result == nil {
		result = Object{}
	}
	canonical, err := MarshalCanonical(Object{
		"invocation_id": String(invocationID),
		"outcome":       String(outcome),
		"result":        result,
		"seq":           Int(seq),
	})
	if err != nil {
		return "", fmt.Errorf("CompletionID: %w", err)
	}
	return hashWithDomain(DomainCompletion, canonical), nil
}

// MustInvocationID is like InvocationID but panics on error.
// Use only in tests or when inputs are known to be valid.
func MustInvocationID(runToken, action string, args Object, seq int64) string {
	id, err := InvocationID(runToken, action, args, seq)
	if err != nil {
		panic(err)
	}
	return id
}

// MustCompletionID is like CompletionID but panics on error.
func MustCompletionID(invocationID, outcome string, result Object, seq int64) string {
	id, err := CompletionID(invocationID, outcome, result, seq)
	if err != nil {
		panic(err)
	}
	return id
}
