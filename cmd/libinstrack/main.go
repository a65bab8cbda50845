// Command libinstrack is the interception module injected into tracked
// processes through LD_PRELOAD.
//
// Build it as a shared object:
//
//	go build -buildmode=c-shared -o libinstrack.so ./cmd/libinstrack
//
// hooks.c defines the intercepted libc entry points. Each one calls
// instrackDispatch, which records the call's paths into the session store
// named by INSTRACK_DB_PATH and returns the authentic implementation found
// with dlsym(RTLD_NEXT). The module reads its configuration from the
// environment once, on the first intercepted call.
//
// Calls that arrive before this package has initialized, or in a child that
// forked without exec, never reach Go. hooks.c appends them to the pending
// spool (INSTRACK_DB_PATH plus ".pending") and the orchestrator ingests the
// spool when the run ends.
package main

/*
#cgo CFLAGS: -U_FORTIFY_SOURCE -D_GNU_SOURCE
#cgo LDFLAGS: -ldl
#include <stdlib.h>
#include "hooks.h"
*/
import "C"

import (
	"os"
	"sync"
	"unsafe"

	"github.com/0xmhha/instrack/pkg/config"
	"github.com/0xmhha/instrack/pkg/hook"
)

func init() {
	C.instrack_set_ready()
}

var dispatcher = sync.OnceValue(func() *hook.Dispatcher {
	return hook.FromBindings(config.BindingsFromEnv(os.Getenv), lookupNext)
})

// lookupNext resolves symbol past this module. The returned address is
// only ever called from hooks.c, through a function pointer type matching
// the symbol's libc prototype.
func lookupNext(symbol string) unsafe.Pointer {
	cs := C.CString(symbol)
	defer C.free(unsafe.Pointer(cs))
	return C.instrack_lookup_next(cs)
}

//export instrackDispatch
func instrackDispatch(id C.int, dirfd C.int, path *C.char, dirfd2 C.int, path2 *C.char) unsafe.Pointer {
	call := hook.Call{
		ID:     hook.ID(id),
		Dirfd:  int(dirfd),
		Dirfd2: int(dirfd2),
	}
	if path != nil {
		call.Path = C.GoString(path)
	}
	if path2 != nil {
		call.Path2 = C.GoString(path2)
	}
	return dispatcher().Dispatch(call)
}

func main() {}
