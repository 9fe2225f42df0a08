// Code generated by protoc-gen-go. DO NOT EDIT.
// versions:
// 	protoc-gen-go v1.36.10
// 	protoc        (unknown)
// source: entitlements/v1/entitlements.proto

package entitlementsv1

import (
	protoreflect "google.golang.org/protobuf/reflect/protoreflect"
	protoimpl "google.golang.org/protobuf/runtime/protoimpl"
	reflect "reflect"
	sync "sync"
	unsafe "unsafe"
)

const (
	// Verify that this generated code is sufficiently up-to-date.
	_ = protoimpl.EnforceVersion(20 - protoimpl.MinVersion)
	// Verify that runtime/protoimpl is sufficiently up-to-date.
	_ = protoimpl.EnforceVersion(protoimpl.MaxVersion - 20)
)

type CheckBookableRequest struct {
	state         protoimpl.MessageState `protogen:"open.v1"`
	DoctorId      string                 `protobuf:"bytes,1,opt,name=doctor_id,json=doctorId,proto3" json:"doctor_id,omitempty"`
	unknownFields protoimpl.UnknownFields
	sizeCache     protoimpl.SizeCache
}

func (x *CheckBookableRequest) Reset() {
	*x = CheckBookableRequest{}
	mi := &file_entitlements_v1_entitlements_proto_msgTypes[0]
	ms := protoimpl.X.MessageStateOf(protoimpl.Pointer(x))
	ms.StoreMessageInfo(mi)
}

func (x *CheckBookableRequest) String() string {
	return protoimpl.X.MessageStringOf(x)
}

func (*CheckBookableRequest) ProtoMessage() {}

func (x *CheckBookableRequest) ProtoReflect() protoreflect.Message {
	mi := &file_entitlements_v1_entitlements_proto_msgTypes[0]
	if x != nil {
		ms := protoimpl.X.MessageStateOf(protoimpl.Pointer(x))
		if ms.LoadMessageInfo() == nil {
			ms.StoreMessageInfo(mi)
		}
		return ms
	}
	return mi.MessageOf(x)
}

// Deprecated: Use CheckBookableRequest.ProtoReflect.Descriptor instead.
func (*CheckBookableRequest) Descriptor() ([]byte, []int) {
	return file_entitlements_v1_entitlements_proto_rawDescGZIP(), []int{0}
}

func (x *CheckBookableRequest) GetDoctorId() string {
	if x != nil {
		return x.DoctorId
	}
	return ""
}

type CheckBookableResponse struct {
	state    protoimpl.MessageState `protogen:"open.v1"`
	Bookable bool                   `protobuf:"varint,1,opt,name=bookable,proto3" json:"bookable,omitempty"`
	// RFC 3339 instant the answer was computed at.
	AsOf          string `protobuf:"bytes,2,opt,name=as_of,json=asOf,proto3" json:"as_of,omitempty"`
	unknownFields protoimpl.UnknownFields
	sizeCache     protoimpl.SizeCache
}

func (x *CheckBookableResponse) Reset() {
	*x = CheckBookableResponse{}
	mi := &file_entitlements_v1_entitlements_proto_msgTypes[1]
	ms := protoimpl.X.MessageStateOf(protoimpl.Pointer(x))
	ms.StoreMessageInfo(mi)
}

func (x *CheckBookableResponse) String() string {
	return protoimpl.X.MessageStringOf(x)
}

func (*CheckBookableResponse) ProtoMessage() {}

func (x *CheckBookableResponse) ProtoReflect() protoreflect.Message {
	mi := &file_entitlements_v1_entitlements_proto_msgTypes[1]
	if x != nil {
		ms := protoimpl.X.MessageStateOf(protoimpl.Pointer(x))
		if ms.LoadMessageInfo() == nil {
			ms.StoreMessageInfo(mi)
		}
		return ms
	}
	return mi.MessageOf(x)
}

// Deprecated: Use CheckBookableResponse.ProtoReflect.Descriptor instead.
func (*CheckBookableResponse) Descriptor() ([]byte, []int) {
	return file_entitlements_v1_entitlements_proto_rawDescGZIP(), []int{1}
}

func (x *CheckBookableResponse) GetBookable() bool {
	if x != nil {
		return x.Bookable
	}
	return false
}

func (x *CheckBookableResponse) GetAsOf() string {
	if x != nil {
		return x.AsOf
	}
	return ""
}

var File_entitlements_v1_entitlements_proto protoreflect.FileDescriptor

const file_entitlements_v1_entitlements_proto_rawDesc = "" +
	"\n" +
	"\"entitlements/v1/entitlements.proto\x12\x0fentitlements.v1\"3\n" +
	"\x14CheckBookableRequest\x12\x1b\n" +
	"\tdoctor_id\x18\x01 \x01(\tR\bdoctorId\"H\n" +
	"\x15CheckBookableResponse\x12\x1a\n" +
	"\bbookable\x18\x01 \x01(\bR\bbookable\x12\x13\n" +
	"\x05as_of\x18\x02 \x01(\tR\x04asOf2t\n" +
	"\x12BookabilityService\x12^\n" +
	"\rCheckBookable\x12%.entitlements.v1.CheckBookableRequest\x1a&.entitlements.v1.CheckBookableResponseBLZJgithub.com/arefin-anik/docmarket/protos/gen/entitlements/v1;entitlementsv1b\x06proto3"

var (
	file_entitlements_v1_entitlements_proto_rawDescOnce sync.Once
	file_entitlements_v1_entitlements_proto_rawDescData []byte
)

func file_entitlements_v1_entitlements_proto_rawDescGZIP() []byte {
	file_entitlements_v1_entitlements_proto_rawDescOnce.Do(func() {
		file_entitlements_v1_entitlements_proto_rawDescData = protoimpl.X.CompressGZIP(unsafe.Slice(unsafe.StringData(file_entitlements_v1_entitlements_proto_rawDesc), len(file_entitlements_v1_entitlements_proto_rawDesc)))
	})
	return file_entitlements_v1_entitlements_proto_rawDescData
}

var file_entitlements_v1_entitlements_proto_msgTypes = make([]protoimpl.MessageInfo, 2)
var file_entitlements_v1_entitlements_proto_goTypes = []any{
	(*CheckBookableRequest)(nil),  // 0: entitlements.v1.CheckBookableRequest
	(*CheckBookableResponse)(nil), // 1: entitlements.v1.CheckBookableResponse
}
var file_entitlements_v1_entitlements_proto_depIdxs = []int32{
	0, // 0: entitlements.v1.BookabilityService.CheckBookable:input_type -> entitlements.v1.CheckBookableRequest
	1, // 1: entitlements.v1.BookabilityService.CheckBookable:output_type -> entitlements.v1.CheckBookableResponse
	1, // [1:2] is the sub-list for method output_type
	0, // [0:1] is the sub-list for method input_type
	0, // [0:0] is the sub-list for extension type_name
	0, // [0:0] is the sub-list for extension extendee
	0, // [0:0] is the sub-list for field type_name
}

func init() { file_entitlements_v1_entitlements_proto_init() }
func file_entitlements_v1_entitlements_proto_init() {
	if File_entitlements_v1_entitlements_proto != nil {
		return
	}
	type x struct{}
	out := protoimpl.TypeBuilder{
		File: protoimpl.DescBuilder{
			GoPackagePath: reflect.TypeOf(x{}).PkgPath(),
			RawDescriptor: unsafe.Slice(unsafe.StringData(file_entitlements_v1_entitlements_proto_rawDesc), len(file_entitlements_v1_entitlements_proto_rawDesc)),
			NumEnums:      0,
			NumMessages:   2,
			NumExtensions: 0,
			NumServices:   1,
		},
		GoTypes:           file_entitlements_v1_entitlements_proto_goTypes,
		DependencyIndexes: file_entitlements_v1_entitlements_proto_depIdxs,
		MessageInfos:      file_entitlements_v1_entitlements_proto_msgTypes,
	}.Build()
	File_entitlements_v1_entitlements_proto = out.File
	file_entitlements_v1_entitlements_proto_goTypes = nil
	file_entitlements_v1_entitlements_proto_depIdxs = nil
}
