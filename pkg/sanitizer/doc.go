// Package sanitizer normalises guest input before it is validated or sent to
// the backend.
//
// Phone numbers are typed into a fixed mask, +7 (XXX) XXX-XX-XX, that is
// applied on every keystroke. MaskPhone is idempotent so the masked value can
// be fed back through it. NormalizePhone converts a number to E.164 for
// event keys and rate limiting.
//
// Names and comments have whitespace collapsed and are trimmed to the
// lengths the backend accepts.
package sanitizer
