// Package annot implements the text codec for dependency annotations stored
// in the session's generic segment comment slots. The encoded form is the
// only durable record of which dependency a segment came from, so decoding
// must tolerate arbitrary foreign comment text without ever failing hard.
package annot

import "strings"

const (
	// prefix tags an annotation as belonging to deptrack. The leading
	// newline keeps the tag recognizable even when the host concatenates
	// other comment text in front of the slot.
	prefix = "\ndep: "

	// terminator closes the payload so the filename can be recovered
	// exactly even if trailing text is appended later.
	terminator = '\n'

	// sentinelPayload marks a segment as belonging to the primary binary
	// rather than to any loaded dependency.
	sentinelPayload = "original"
)

// Kind classifies the result of decoding an annotation slot.
type Kind int

const (
	// KindDependency means the annotation carries a dependency filename.
	KindDependency Kind = iota

	// KindOriginal means the annotation is the sentinel for a segment of
	// the primary binary itself.
	KindOriginal

	// KindForeign means the text was not produced by this codec, or is a
	// recognized prefix with a truncated payload. Foreign slots are left
	// untouched by every caller.
	KindForeign
)

// String returns a string representation of Kind.
func (k Kind) String() string {
	switch k {
	case KindDependency:
		return "dependency"
	case KindOriginal:
		return "original"
	case KindForeign:
		return "foreign"
	default:
		return "unknown"
	}
}

// Encodable reports whether filename can be encoded without corrupting the
// annotation framing. Filenames containing the terminator character are out
// of contract and must be rejected before any load side effects happen.
func Encodable(filename string) bool {
	return filename != "" && !strings.ContainsRune(filename, terminator)
}

// Encode produces the annotation text recording filename as the origin of a
// segment. Callers must check Encodable first.
func Encode(filename string) string {
	return prefix + filename + string(terminator)
}

// EncodeSentinel produces the annotation marking a segment of the primary
// binary.
func EncodeSentinel() string {
	return prefix + sentinelPayload + string(terminator)
}

// Decode extracts the dependency filename from annotation text. The second
// return value classifies the slot; the filename is only meaningful when the
// kind is KindDependency. A recognized prefix with an unterminated or empty
// payload decodes as KindForeign rather than producing a garbage filename.
func Decode(text string) (string, Kind) {
	if !strings.HasPrefix(text, prefix) {
		return "", KindForeign
	}
	payload := text[len(prefix):]
	end := strings.IndexByte(payload, byte(terminator))
	if end <= 0 {
		return "", KindForeign
	}
	payload = payload[:end]
	if payload == sentinelPayload {
		return "", KindOriginal
	}
	return payload, KindDependency
}
