// Package payload encodes an IR database as the flat binary payload that
// goes inside a container chunk.
//
// The encoding is one msgpack document: a root record holding sorted
// collections of DOPs, services, sessions, security levels, DID and routine
// bindings, memory regions, data blocks, DTCs, and variants. DOPs are
// deduplicated through a name-to-handle table; parameters carry a kind tag
// that selects exactly one populated variant record.
//
// Conversion is deterministic: the same database always yields
// byte-identical payloads.
package payload
