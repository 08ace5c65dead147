package winrt

import (
	"encoding/binary"
	"strings"

	ole "github.com/go-ole/go-ole"
	"github.com/google/uuid"
)

// pinterfaceNamespace seeds the UUIDv5 used by WinRT to derive the IID of a
// parameterized interface from its type signature.
var pinterfaceNamespace = uuid.MustParse("11f47ad5-7b73-42c0-abae-878b1e16adee")

const (
	typedEventHandlerPIID = "9de1c534-6ae1-11e0-84e1-18a905bcc53f"
	inspectableSignature  = "cinterface(IInspectable)"
)

// ParameterizedIID derives the IID of a parameterized WinRT interface instance.
func ParameterizedIID(signature string) *ole.GUID {
	return guidFromUUID(uuid.NewSHA1(pinterfaceNamespace, []byte(signature)))
}

// PInterfaceSignature builds the signature of a generic interface instantiation.
func PInterfaceSignature(piid string, args ...string) string {
	return "pinterface({" + strings.ToLower(piid) + "};" + strings.Join(args, ";") + ")"
}

// RuntimeClassSignature builds the signature of a runtime class from its default interface.
func RuntimeClassSignature(class, defaultIID string) string {
	return "rc(" + class + ";{" + strings.ToLower(defaultIID) + "})"
}

// TypedEventHandlerIID returns the IID of TypedEventHandler<sender, args>.
func TypedEventHandlerIID(senderSignature, argsSignature string) *ole.GUID {
	return ParameterizedIID(PInterfaceSignature(typedEventHandlerPIID, senderSignature, argsSignature))
}

// guidFromUUID lays out the RFC 4122 byte order as a Windows GUID.
func guidFromUUID(u uuid.UUID) *ole.GUID {
	g := &ole.GUID{
		Data1: binary.BigEndian.Uint32(u[0:4]),
		Data2: binary.BigEndian.Uint16(u[4:6]),
		Data3: binary.BigEndian.Uint16(u[6:8]),
	}
	copy(g.Data4[:], u[8:16])
	return g
}
