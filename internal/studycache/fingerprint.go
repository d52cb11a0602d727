package studycache

import (
	"strconv"
	"unicode/utf16"

	"github.com/at-ishikawa/studyset/internal/inference"
)

// Fingerprint hashes the request content that decides cache identity: the source text followed by
// the attachment name. It is the 32-bit rolling hash h = 31*h + c over UTF-16 code units, rendered
// as a signed decimal, so keys stay compatible with entries written by other clients of the same store.
//
// Counts and the variant flag are not part of the fingerprint. Two different attachments sharing a
// name and source text collide; this is accepted.
func Fingerprint(request inference.GenerationRequest) string {
	var hash int32
	for _, unit := range utf16.Encode([]rune(request.SourceText + request.AttachmentName())) {
		hash = 31*hash + int32(unit)
	}
	return strconv.FormatInt(int64(hash), 10)
}

// Key returns the store key of request within namespace.
func Key(namespace string, request inference.GenerationRequest) string {
	return namespace + ":" + Fingerprint(request)
}
