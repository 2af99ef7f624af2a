// Package extcrypto provides hashing and identifier builtins.
//
// MD5 and SHA-1 are available for fingerprinting only.
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

	"github.com/sandrolain/gorexx/pkg/ext/extutil"
	"github.com/sandrolain/gorexx/pkg/functions"
	"github.com/sandrolain/gorexx/pkg/value"
)

// All returns all hashing builtin definitions.
func All() []functions.CustomFunctionDef {
	return []functions.CustomFunctionDef{
		UUID(),
		Hash(),
		HMAC(),
	}
}

// AllEntries returns all hashing builtins as [functions.FunctionEntry].
func AllEntries() []functions.FunctionEntry {
	return extutil.Entries(All())
}

// UUID returns the definition for UUID(): a random version 4 UUID.
func UUID() functions.CustomFunctionDef {
	return extutil.Def("UUID", "UUID()", 0, 0, func(_ context.Context, _ functions.Args) (value.Value, error) {
		var b [16]byte
		if _, err := rand.Read(b[:]); err != nil {
			return value.Empty, functions.ArgError("UUID", "reading random bytes: %v", err)
		}
		b[6] = (b[6] & 0x0f) | 0x40
		b[8] = (b[8] & 0x3f) | 0x80
		return value.String(fmt.Sprintf("%x-%x-%x-%x-%x", b[0:4], b[4:6], b[6:8], b[8:10], b[10:16])), nil
	})
}

// Hash returns the definition for HASH(string [, algorithm]): the lower-case
// hex digest. Algorithms are MD5, SHA1, SHA256 (default), SHA384 and SHA512.
func Hash() functions.CustomFunctionDef {
	return extutil.Def("HASH", "HASH(string [, algorithm])", 1, 2, func(_ context.Context, args functions.Args) (value.Value, error) {
		newHash, err := hasher("HASH", extutil.Str(args, 1, "ALGORITHM", "SHA256"))
		if err != nil {
			return value.Empty, err
		}
		h := newHash()
		h.Write([]byte(args.Positional[0].String()))
		return value.String(hex.EncodeToString(h.Sum(nil))), nil
	})
}

// HMAC returns the definition for HMAC(string, key [, algorithm]).
func HMAC() functions.CustomFunctionDef {
	return extutil.Def("HMAC", "HMAC(string, key [, algorithm])", 2, 3, func(_ context.Context, args functions.Args) (value.Value, error) {
		newHash, err := hasher("HMAC", extutil.Str(args, 2, "ALGORITHM", "SHA256"))
		if err != nil {
			return value.Empty, err
		}
		mac := hmac.New(newHash, []byte(args.Positional[1].String()))
		mac.Write([]byte(args.Positional[0].String()))
		return value.String(hex.EncodeToString(mac.Sum(nil))), nil
	})
}

func hasher(fn, algorithm string) (func() hash.Hash, error) {
	switch strings.ToUpper(algorithm) {
	case "MD5":
		return md5.New, nil //nolint:gosec
	case "SHA1":
		return sha1.New, nil //nolint:gosec
	case "SHA256":
		return sha256.New, nil
	case "SHA384":
		return sha512.New384, nil
	case "SHA512":
		return sha512.New, nil
	}
	return nil, functions.ArgError(fn, "unsupported algorithm %q; use MD5, SHA1, SHA256, SHA384 or SHA512", algorithm)
}
