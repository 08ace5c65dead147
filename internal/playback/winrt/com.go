//go:build windows

package winrt

import (
	"syscall"
	"unsafe"

	ole "github.com/go-ole/go-ole"
	"github.com/srg/apconnect/internal/playback"
)

const (
	sOK            = 0x00000000
	sFalse         = 0x00000001
	eNoInterface   = 0x80004002
	eFail          = 0x80004005
	eNotFound      = 0x80070490
	rpcChangedMode = 0x80010106
)

// vcall invokes the vtable method at slot on the COM object obj.
//
//go:uintptrescapes
func vcall(obj uintptr, slot int, args ...uintptr) uintptr {
	vtbl := *(*uintptr)(unsafe.Pointer(obj))
	fn := *(*uintptr)(unsafe.Pointer(vtbl + uintptr(slot)*unsafe.Sizeof(uintptr(0))))
	hr, _, _ := syscall.SyscallN(fn, append([]uintptr{obj}, args...)...)
	return hr
}

// check converts a failed HRESULT into a *playback.OSError.
func check(op string, hr uintptr) error {
	if int32(uint32(hr)) < 0 {
		return &playback.OSError{Op: op, Code: uint32(hr)}
	}
	return nil
}

func release(obj uintptr) {
	if obj != 0 {
		vcall(obj, slotRelease)
	}
}

// queryInterface returns obj cast to iid; the caller owns the new reference.
func queryInterface(op string, obj uintptr, iid *ole.GUID) (uintptr, error) {
	var out uintptr
	hr := vcall(obj, slotQueryInterface, uintptr(unsafe.Pointer(iid)), uintptr(unsafe.Pointer(&out)))
	if err := check(op, hr); err != nil {
		return 0, err
	}
	return out, nil
}

// getString calls a property getter returning an HSTRING.
func getString(op string, obj uintptr, slot int) (string, error) {
	var h ole.HString
	if err := check(op, vcall(obj, slot, uintptr(unsafe.Pointer(&h)))); err != nil {
		return "", err
	}
	defer ole.DeleteHString(h)
	return h.String(), nil
}

// getInt32 calls a property getter returning a 32-bit value (enums, HRESULTs).
func getInt32(op string, obj uintptr, slot int) (int32, error) {
	var v int32
	if err := check(op, vcall(obj, slot, uintptr(unsafe.Pointer(&v)))); err != nil {
		return 0, err
	}
	return v, nil
}

// withHString runs fn with s converted to a temporary HSTRING.
func withHString(op, s string, fn func(h ole.HString) error) error {
	h, err := ole.NewHString(s)
	if err != nil {
		return &playback.OSError{Op: op, Code: oleCode(err)}
	}
	defer ole.DeleteHString(h)
	return fn(h)
}

func oleCode(err error) uint32 {
	if oe, ok := err.(*ole.OleError); ok {
		return uint32(oe.Code())
	}
	return eFail
}
