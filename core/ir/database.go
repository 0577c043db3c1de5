package ir

import (
	"fmt"
	"sort"
)

// database.go - Builder-then-freeze aggregate for the complete IR.

// DIDBinding maps a DID to the short name of its generated service.
type DIDBinding struct {
	DID         uint16
	ServiceName string
}

// RoutineBinding maps a routine id to its generated services
// (one per supported operation).
type RoutineBinding struct {
	RoutineID    uint16
	ServiceNames []string
}

// SessionEntry maps a session name to its subfunction id.
type SessionEntry struct {
	Name string
	ID   uint8
}

// SecurityEntry maps a security level name to its level number.
type SecurityEntry struct {
	Name  string
	Level uint8
}

// Database is the frozen IR aggregate. It is created by a Builder and
// read-only afterwards: all access goes through getters and sorted
// iteration helpers so downstream stages are deterministic.
type Database struct {
	ecuName       string
	revision      string
	author        string
	description   string
	schemaVersion string

	dops     map[string]*DOP
	services map[string]*DiagService
	byKey    map[ServiceKey]*DiagService

	sessions map[string]uint8
	security map[string]uint8

	didReads  map[uint16]string
	didWrites map[uint16]string
	routines  map[uint16][]string

	regions  []MemoryRegion
	blocks   []DataBlock
	dtcs     []DTC
	variants []Variant
}

// EcuName returns the ECU name.
func (db *Database) EcuName() string { return db.ecuName }

// Revision returns the document revision.
func (db *Database) Revision() string { return db.revision }

// Author returns the document author.
func (db *Database) Author() string { return db.author }

// Description returns the document description.
func (db *Database) Description() string { return db.description }

// SchemaVersion returns the source schema version identifier.
func (db *Database) SchemaVersion() string { return db.schemaVersion }

// DOP returns the DOP with the given short name, or nil.
func (db *Database) DOP(name string) *DOP { return db.dops[name] }

// Service returns the service with the given short name, or nil.
func (db *Database) Service(name string) *DiagService { return db.services[name] }

// ServiceByKey returns the service with the given composite key, or nil.
func (db *Database) ServiceByKey(key ServiceKey) *DiagService { return db.byKey[key] }

// SessionID returns the subfunction id of a session by name.
func (db *Database) SessionID(name string) (uint8, bool) {
	id, ok := db.sessions[name]
	return id, ok
}

// SecurityLevel returns the level number of a security level by name.
func (db *Database) SecurityLevel(name string) (uint8, bool) {
	lvl, ok := db.security[name]
	return lvl, ok
}

// DIDReadService returns the read service name registered for a DID.
func (db *Database) DIDReadService(did uint16) (string, bool) {
	name, ok := db.didReads[did]
	return name, ok
}

// DIDWriteService returns the write service name registered for a DID.
func (db *Database) DIDWriteService(did uint16) (string, bool) {
	name, ok := db.didWrites[did]
	return name, ok
}

// RoutineServices returns the service names registered for a routine id.
func (db *Database) RoutineServices(id uint16) ([]string, bool) {
	names, ok := db.routines[id]
	return names, ok
}

// DOPNames returns all DOP short names in sorted order.
func (db *Database) DOPNames() []string {
	return sortedKeys(db.dops)
}

// ServiceNames returns all service short names in sorted order.
func (db *Database) ServiceNames() []string {
	return sortedKeys(db.services)
}

// Sessions returns all sessions sorted by name.
func (db *Database) Sessions() []SessionEntry {
	out := make([]SessionEntry, 0, len(db.sessions))
	for name, id := range db.sessions {
		out = append(out, SessionEntry{Name: name, ID: id})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// SecurityLevels returns all security levels sorted by name.
func (db *Database) SecurityLevels() []SecurityEntry {
	out := make([]SecurityEntry, 0, len(db.security))
	for name, lvl := range db.security {
		out = append(out, SecurityEntry{Name: name, Level: lvl})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// DIDReads returns all DID read bindings sorted by DID.
func (db *Database) DIDReads() []DIDBinding {
	return sortedBindings(db.didReads)
}

// DIDWrites returns all DID write bindings sorted by DID.
func (db *Database) DIDWrites() []DIDBinding {
	return sortedBindings(db.didWrites)
}

// Routines returns all routine bindings sorted by routine id.
func (db *Database) Routines() []RoutineBinding {
	out := make([]RoutineBinding, 0, len(db.routines))
	for id, names := range db.routines {
		out = append(out, RoutineBinding{RoutineID: id, ServiceNames: names})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].RoutineID < out[j].RoutineID })
	return out
}

// MemoryRegions returns memory regions in insertion order.
func (db *Database) MemoryRegions() []MemoryRegion { return db.regions }

// DataBlocks returns data blocks in insertion order.
func (db *Database) DataBlocks() []DataBlock { return db.blocks }

// DTCs returns DTC records in insertion order.
func (db *Database) DTCs() []DTC { return db.dtcs }

// Variants returns variants in insertion order (base variant first).
func (db *Database) Variants() []Variant { return db.variants }

func sortedKeys[V any](m map[string]V) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func sortedBindings(m map[uint16]string) []DIDBinding {
	out := make([]DIDBinding, 0, len(m))
	for did, name := range m {
		out = append(out, DIDBinding{DID: did, ServiceName: name})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DID < out[j].DID })
	return out
}

// Builder assembles a Database incrementally. The transformer is its only
// writer; Build freezes the result and invalidates the builder.
type Builder struct {
	db *Database
}

// NewBuilder creates a builder for an ECU database.
func NewBuilder(ecuName, revision string) *Builder {
	return &Builder{db: &Database{
		ecuName:   ecuName,
		revision:  revision,
		dops:      make(map[string]*DOP),
		services:  make(map[string]*DiagService),
		byKey:     make(map[ServiceKey]*DiagService),
		sessions:  make(map[string]uint8),
		security:  make(map[string]uint8),
		didReads:  make(map[uint16]string),
		didWrites: make(map[uint16]string),
		routines:  make(map[uint16][]string),
	}}
}

// SetMetadata records author, description, and schema version.
func (b *Builder) SetMetadata(author, description, schemaVersion string) {
	b.db.author = author
	b.db.description = description
	b.db.schemaVersion = schemaVersion
}

// AddDOP inserts a DOP keyed by short name. Re-adding an existing name
// replaces it; the standard DOP set relies on this being idempotent.
func (b *Builder) AddDOP(d *DOP) {
	b.db.dops[d.ShortName] = d
}

// AddService inserts a service keyed by short name and composite key.
func (b *Builder) AddService(s *DiagService) error {
	key := s.Key()
	if _, exists := b.db.byKey[key]; exists {
		return fmt.Errorf("duplicate service %s (id 0x%02X, subfunction %d)",
			key.ShortName, key.ServiceID, key.Subfunction)
	}
	b.db.services[s.ShortName] = s
	b.db.byKey[key] = s
	return nil
}

// AddSession records a session name to id mapping.
func (b *Builder) AddSession(name string, id uint8) {
	b.db.sessions[name] = id
}

// AddSecurityLevel records a security level name to number mapping.
func (b *Builder) AddSecurityLevel(name string, level uint8) {
	b.db.security[name] = level
}

// RegisterDIDRead binds a DID to its read service.
func (b *Builder) RegisterDIDRead(did uint16, serviceName string) {
	b.db.didReads[did] = serviceName
}

// RegisterDIDWrite binds a DID to its write service.
func (b *Builder) RegisterDIDWrite(did uint16, serviceName string) {
	b.db.didWrites[did] = serviceName
}

// RegisterRoutine binds a routine id to its generated service names.
func (b *Builder) RegisterRoutine(id uint16, serviceNames []string) {
	b.db.routines[id] = serviceNames
}

// AddMemoryRegion appends a memory region.
func (b *Builder) AddMemoryRegion(r MemoryRegion) {
	b.db.regions = append(b.db.regions, r)
}

// AddDataBlock appends a data block.
func (b *Builder) AddDataBlock(blk DataBlock) {
	b.db.blocks = append(b.db.blocks, blk)
}

// AddDTC appends a DTC record.
func (b *Builder) AddDTC(d DTC) {
	b.db.dtcs = append(b.db.dtcs, d)
}

// AddVariant appends a variant.
func (b *Builder) AddVariant(v Variant) {
	b.db.variants = append(b.db.variants, v)
}

// Build freezes and returns the database. The builder must not be used
// afterwards.
func (b *Builder) Build() *Database {
	db := b.db
	b.db = nil
	return db
}
