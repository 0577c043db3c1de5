// Package container reads and writes the two-layer output file: a fixed
// magic header followed by a msgpack envelope whose chunks carry the
// compressed payload. Writers commit files atomically via temp file and
// rename; readers expose the envelope layout without decoding payloads
// until asked.
package container
