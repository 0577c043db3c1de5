// Package ir provides the Intermediate Representation (IR) for compiled
// diagnostic descriptions.
//
// The IR is the fully resolved, reference-free form of a diagnostic
// description document: every symbolic name (session, security level,
// access pattern, type) has been resolved into concrete, self-contained
// records ready for binary conversion.
//
// # Core Types
//
//   - DOP: Data Object Property, coupling a wire encoding (DiagCodedType)
//     with a physical-value conversion rule (CompuMethod)
//   - Param: A positioned parameter inside a request or response; its
//     parameter kind is carried as a ParamSpec sum type
//   - DiagService: A complete UDS service with request/response messages,
//     identified by ServiceKey (short name + service id + subfunction)
//   - DTC, MemoryRegion, DataBlock, Variant: flat diagnostic records
//
// # Struct DOPs
//
// Composite DOPs reference their member DOPs by name through the database
// (arena style) rather than embedding them, so the store itself cannot form
// ownership cycles. Transitive self-reference is rejected during lowering.
//
// # Builder and Database
//
// The Database is built in one pass through a Builder and frozen with
// Build(). After that it is read-only: the converter and container writer
// only use its getter and sorted-iteration surface.
package ir
