// Package document defines the YAML diagnostic description model and its
// loader.
//
// A diagnostic description is a single YAML document with a fixed set of
// top-level sections: metadata, ECU addressing, diagnostic sessions, UDS
// service configuration, access patterns, security levels, type definitions,
// data identifiers, routines, trouble codes, memory layout, variants and
// audience configuration. The types in this package mirror that structure
// one to one, so a loaded Document is a faithful in-memory copy of the
// source file with no resolution or lowering applied.
//
// Numeric fields that conventionally appear as hex in diagnostic documents
// (service IDs, DIDs, addresses) are modeled by the HexInt family, which
// accepts both decimal and 0x-prefixed scalars and enforces the field's bit
// width at parse time. Fields that accept either a single value or a list
// (sessions, security, snapshot references, type references) use dedicated
// union types with custom YAML unmarshalers.
//
// Load reads and decodes a file; Parse decodes bytes. Both distinguish load
// failures (missing file, malformed YAML, empty document) from schema
// failures (unknown fields, wrong types, violated field constraints), which
// are reported per field with their document paths.
package document
