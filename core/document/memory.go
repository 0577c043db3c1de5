package document

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// AddressFormat sets how many bytes encode an address and a length in
// memory service requests. Both default to 4.
type AddressFormat struct {
	AddressBytes int `yaml:"address_bytes"`
	LengthBytes  int `yaml:"length_bytes"`
}

func (f *AddressFormat) UnmarshalYAML(node *yaml.Node) error {
	type raw AddressFormat
	r := raw{AddressBytes: 4, LengthBytes: 4}
	if err := node.Decode(&r); err != nil {
		return err
	}
	*f = AddressFormat(r)
	return nil
}

// MemoryRegionDef describes one addressable memory region.
type MemoryRegionDef struct {
	Description   string         `yaml:"description"`
	StartAddress  HexInt32       `yaml:"start_address"`
	Size          HexInt32       `yaml:"size"`
	Access        string         `yaml:"access"`
	AddressFormat *AddressFormat `yaml:"address_format"`
	SecurityLevel string         `yaml:"security_level"`
	Session       SessionsValue  `yaml:"session"`
}

// DataBlockDef describes one download or upload block.
type DataBlockDef struct {
	Description    string    `yaml:"description"`
	Type           string    `yaml:"type"`
	MemoryAddress  HexInt32  `yaml:"memory_address"`
	MemorySize     HexInt32  `yaml:"memory_size"`
	Format         string    `yaml:"format"`
	MaxBlockLength *HexInt32 `yaml:"max_block_length"`
	SecurityLevel  string    `yaml:"security_level"`
	Session        string    `yaml:"session"`
	ChecksumType   string    `yaml:"checksum_type"`
}

// FormatByte maps the block format name to its dataFormatIdentifier.
func (b *DataBlockDef) FormatByte() (uint8, error) {
	switch b.Format {
	case "", "raw":
		return 0x00, nil
	case "encrypted":
		return 0x01, nil
	case "compressed":
		return 0x10, nil
	case "encrypted_compressed":
		return 0x11, nil
	default:
		return 0, fmt.Errorf("unknown data block format %q", b.Format)
	}
}

// MemoryConfig is the memory section: region map, data block map and the
// default address format.
type MemoryConfig struct {
	DefaultAddressFormat *AddressFormat              `yaml:"default_address_format"`
	Regions              map[string]*MemoryRegionDef `yaml:"regions"`
	DataBlocks           map[string]*DataBlockDef    `yaml:"data_blocks"`
}

// Format resolves the address format for a region, falling back to the
// section default and then to 4/4.
func (c *MemoryConfig) Format(region *MemoryRegionDef) AddressFormat {
	if region != nil && region.AddressFormat != nil {
		return *region.AddressFormat
	}
	if c != nil && c.DefaultAddressFormat != nil {
		return *c.DefaultAddressFormat
	}
	return AddressFormat{AddressBytes: 4, LengthBytes: 4}
}
