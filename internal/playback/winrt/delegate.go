//go:build windows

package winrt

import (
	"sync"
	"sync/atomic"
	"syscall"
	"unsafe"

	"github.com/cornelk/hashmap"
	ole "github.com/go-ole/go-ole"
	"github.com/sirupsen/logrus"
	"golang.org/x/sys/windows"
)

// lptr is LMEM_FIXED | LMEM_ZEROINIT.
const lptr = 0x0040

// delegateObject is the native layout of a delegate: a vtable pointer and a
// reference count. It is allocated with LocalAlloc so the OS may keep it past
// any Go stack frame.
type delegateObject struct {
	vtbl uintptr
	refs int32
}

// delegateState is the Go half of a delegate.
type delegateState struct {
	iid    *ole.GUID
	invoke func(sender, args uintptr)
	logger *logrus.Logger
}

var (
	delegateVtbl     [4]uintptr
	delegateVtblOnce sync.Once

	// delegates maps native delegate pointers to their Go state.
	delegates = hashmap.New[uintptr, *delegateState]()

	iidUnknown = ole.IID_IUnknown
	iidAgile   = ole.NewGUID("{" + iidAgileObject + "}")
)

// newDelegate allocates a native TypedEventHandler implementing iid.
// The caller owns the initial reference and must release it after
// unregistering the handler.
func newDelegate(iid *ole.GUID, logger *logrus.Logger, invoke func(sender, args uintptr)) (uintptr, error) {
	delegateVtblOnce.Do(func() {
		delegateVtbl = [4]uintptr{
			syscall.NewCallback(delegateQueryInterface),
			syscall.NewCallback(delegateAddRef),
			syscall.NewCallback(delegateRelease),
			syscall.NewCallback(delegateInvoke),
		}
	})

	mem, err := windows.LocalAlloc(lptr, uint32(unsafe.Sizeof(delegateObject{})))
	if err != nil {
		return 0, err
	}

	obj := (*delegateObject)(unsafe.Pointer(mem))
	obj.vtbl = uintptr(unsafe.Pointer(&delegateVtbl[0]))
	obj.refs = 1

	delegates.Set(mem, &delegateState{iid: iid, invoke: invoke, logger: logger})
	return mem, nil
}

func delegateQueryInterface(this, riid, ppv uintptr) uintptr {
	out := (*uintptr)(unsafe.Pointer(ppv))
	iid := (*ole.GUID)(unsafe.Pointer(riid))

	st, ok := delegates.Get(this)
	if !ok {
		*out = 0
		return eNoInterface
	}

	if ole.IsEqualGUID(iid, iidUnknown) || ole.IsEqualGUID(iid, iidAgile) || ole.IsEqualGUID(iid, st.iid) {
		*out = this
		delegateAddRef(this)
		return sOK
	}

	*out = 0
	return eNoInterface
}

func delegateAddRef(this uintptr) uintptr {
	obj := (*delegateObject)(unsafe.Pointer(this))
	return uintptr(atomic.AddInt32(&obj.refs, 1))
}

func delegateRelease(this uintptr) uintptr {
	obj := (*delegateObject)(unsafe.Pointer(this))
	refs := atomic.AddInt32(&obj.refs, -1)
	if refs == 0 {
		delegates.Del(this)
		_, _ = windows.LocalFree(windows.Handle(this))
	}
	return uintptr(refs)
}

func delegateInvoke(this, sender, args uintptr) (hr uintptr) {
	st, ok := delegates.Get(this)
	if !ok {
		return sOK
	}

	defer func() {
		if r := recover(); r != nil {
			st.logger.WithField("panic", r).Error("Event handler panicked")
			hr = eFail
		}
	}()

	st.invoke(sender, args)
	return sOK
}
