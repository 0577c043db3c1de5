// Package transform lowers a loaded diagnostic description into the flat
// intermediate representation.
//
// Lowering has three parts: type definitions become DOPs, the declarative
// sections (dids, routines, sessions, security, services) become concrete
// UDS diagnostic services with fully positioned request/response parameters,
// and the record sections (dtcs, memory, variants) are flattened as-is.
//
// The transform is deterministic: every map in the source document is
// visited in sorted key order, so the same document always produces the
// same database.
package transform
