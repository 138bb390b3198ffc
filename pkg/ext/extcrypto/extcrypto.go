// Package extcrypto provides hashing and identifier functions, useful for
// fingerprinting element values and minting resource ids.
//
// MD5 and SHA-1 are offered for fingerprinting only.
package extcrypto

import (
	"context"
	"crypto/hmac"
	"crypto/md5" //nolint:gosec // fingerprinting only
	"crypto/rand"
	"crypto/sha1" //nolint:gosec // fingerprinting only
	"crypto/sha256"
	"crypto/sha512"
	"encoding/hex"
	"fmt"
	"hash"
	"strings"

	"github.com/sandrolain/gofhirpath/pkg/ext/extutil"
	"github.com/sandrolain/gofhirpath/pkg/functions"
	"github.com/sandrolain/gofhirpath/pkg/value"
)

// All returns all cryptographic function definitions.
func All() []functions.CustomFunctionDef {
	return []functions.CustomFunctionDef{
		UUID(),
		Hash(),
		HMAC(),
	}
}

// AllEntries returns all crypto function definitions as [functions.FunctionEntry].
func AllEntries() []functions.FunctionEntry {
	return extutil.Entries(All())
}

// UUID returns the definition for uuid(), a random version 4 UUID.
func UUID() functions.CustomFunctionDef {
	return functions.CustomFunctionDef{
		Name: "uuid",
		Fn: func(context.Context, value.Sequence, ...value.Sequence) (value.Sequence, error) {
			var b [16]byte
			if _, err := rand.Read(b[:]); err != nil {
				return nil, extutil.Errorf("uuid", "reading random bytes: %v", err)
			}
			b[6] = (b[6] & 0x0f) | 0x40 // version 4
			b[8] = (b[8] & 0x3f) | 0x80 // RFC 4122 variant
			id := fmt.Sprintf("%08x-%04x-%04x-%04x-%012x", b[0:4], b[4:6], b[6:8], b[8:10], b[10:16])
			return value.Sequence{value.String(id)}, nil
		},
	}
}

// Hash returns the definition for hash(algorithm): the lowercase hex digest
// of the input String. Supported algorithms are md5, sha1, sha256, sha384
// and sha512.
func Hash() functions.CustomFunctionDef {
	return functions.CustomFunctionDef{
		Name:    "hash",
		MinArgs: 1,
		MaxArgs: 1,
		Fn: func(_ context.Context, focus value.Sequence, args ...value.Sequence) (value.Sequence, error) {
			s, ok, err := extutil.String("hash", focus)
			if err != nil || !ok {
				return nil, err
			}
			algorithm, ok, err := extutil.String("hash", args[0])
			if err != nil || !ok {
				return nil, err
			}
			newHash, err := hasher("hash", algorithm)
			if err != nil {
				return nil, err
			}
			h := newHash()
			h.Write([]byte(s))
			return value.Sequence{value.String(hex.EncodeToString(h.Sum(nil)))}, nil
		},
	}
}

// HMAC returns the definition for hmac(key, algorithm).
func HMAC() functions.CustomFunctionDef {
	return functions.CustomFunctionDef{
		Name:    "hmac",
		MinArgs: 2,
		MaxArgs: 2,
		Fn: func(_ context.Context, focus value.Sequence, args ...value.Sequence) (value.Sequence, error) {
			s, ok, err := extutil.String("hmac", focus)
			if err != nil || !ok {
				return nil, err
			}
			key, ok, err := extutil.String("hmac", args[0])
			if err != nil || !ok {
				return nil, err
			}
			algorithm, ok, err := extutil.String("hmac", args[1])
			if err != nil || !ok {
				return nil, err
			}
			newHash, err := hasher("hmac", algorithm)
			if err != nil {
				return nil, err
			}
			mac := hmac.New(newHash, []byte(key))
			mac.Write([]byte(s))
			return value.Sequence{value.String(hex.EncodeToString(mac.Sum(nil)))}, nil
		},
	}
}

func hasher(name, algorithm string) (func() hash.Hash, error) {
	switch strings.ToLower(algorithm) {
	case "md5":
		return md5.New, nil
	case "sha1":
		return sha1.New, nil
	case "sha256":
		return sha256.New, nil
	case "sha384":
		return sha512.New384, nil
	case "sha512":
		return sha512.New, nil
	}
	return nil, extutil.Errorf(name, "unsupported algorithm %q; use md5, sha1, sha256, sha384 or sha512", algorithm)
}
