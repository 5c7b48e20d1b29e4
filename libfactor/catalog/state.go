package catalog

import (
	proto "github.com/gogo/protobuf/proto"
)

// CatalogState is the durable header of a catalog, stored under a reserved
// key and reloaded on open. Counts are indexed by bit length (1..64).
type CatalogState struct {
	MajorVers      int32    `protobuf:"varint,1,opt,name=MajorVers,proto3" json:"MajorVers,omitempty"`
	MinorVers      int32    `protobuf:"varint,2,opt,name=MinorVers,proto3" json:"MinorVers,omitempty"`
	IsPrimeCatalog bool     `protobuf:"varint,3,opt,name=IsPrimeCatalog,proto3" json:"IsPrimeCatalog,omitempty"`
	NumEntries     []uint64 `protobuf:"varint,4,rep,packed,name=NumEntries,proto3" json:"NumEntries,omitempty"`
	NumPrimes      []uint64 `protobuf:"varint,5,rep,packed,name=NumPrimes,proto3" json:"NumPrimes,omitempty"`
}

func (m *CatalogState) Reset()         { *m = CatalogState{} }
func (m *CatalogState) String() string { return proto.CompactTextString(m) }
func (*CatalogState) ProtoMessage()    {}
