package classfile

const (
	Magic = 0xCAFEBABE

	DefaultMajorVersion = 52
	DefaultMinorVersion = 0
)

type AccessFlags uint16

const (
	AccPublic       AccessFlags = 0x0001
	AccPrivate      AccessFlags = 0x0002
	AccProtected    AccessFlags = 0x0004
	AccStatic       AccessFlags = 0x0008
	AccFinal        AccessFlags = 0x0010
	AccSuper        AccessFlags = 0x0020
	AccSynchronized AccessFlags = 0x0020
	AccVolatile     AccessFlags = 0x0040
	AccBridge       AccessFlags = 0x0040
	AccTransient    AccessFlags = 0x0080
	AccVarargs      AccessFlags = 0x0080
	AccNative       AccessFlags = 0x0100
	AccInterface    AccessFlags = 0x0200
	AccAbstract     AccessFlags = 0x0400
	AccStrict       AccessFlags = 0x0800
	AccSynthetic    AccessFlags = 0x1000
	AccAnnotation   AccessFlags = 0x2000
	AccEnum         AccessFlags = 0x4000
)

// Has reports whether every bit of mask is set.
func (f AccessFlags) Has(mask AccessFlags) bool { return f&mask == mask && mask != 0 }

type ConstantTag uint8

const (
	TagUtf8        ConstantTag = 1
	TagInteger     ConstantTag = 3
	TagFloat       ConstantTag = 4
	TagLong        ConstantTag = 5
	TagDouble      ConstantTag = 6
	TagClass       ConstantTag = 7
	TagString      ConstantTag = 8
	TagFieldRef    ConstantTag = 9
	TagMethodRef   ConstantTag = 10
	TagNameAndType ConstantTag = 12
)

func (t ConstantTag) String() string {
	switch t {
	case TagUtf8:
		return "Utf8"
	case TagInteger:
		return "Integer"
	case TagFloat:
		return "Float"
	case TagLong:
		return "Long"
	case TagDouble:
		return "Double"
	case TagClass:
		return "Class"
	case TagString:
		return "String"
	case TagFieldRef:
		return "Fieldref"
	case TagMethodRef:
		return "Methodref"
	case TagNameAndType:
		return "NameAndType"
	default:
		return "Unknown"
	}
}

// wide reports whether an entry of this tag occupies two pool slots.
func (t ConstantTag) wide() bool {
	return t == TagLong || t == TagDouble
}

// Opcodes emitted by the assembler. Only the instructions the builders can
// produce are listed.
const (
	OpLdc           = 0x12
	OpAload         = 0x19
	OpAload0        = 0x2A
	OpAload1        = 0x2B
	OpAload2        = 0x2C
	OpAload3        = 0x2D
	OpReturn        = 0xB1
	OpGetstatic     = 0xB2
	OpInvokevirtual = 0xB6
	OpInvokespecial = 0xB7
)

// Well-known names.
const (
	ConstructorName = "<init>"
	ObjectClassName = "java/lang/Object"
)
