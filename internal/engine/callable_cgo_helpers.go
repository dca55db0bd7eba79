package engine

/*
#include <stdint.h>

typedef void (*hot_loop_residual_fn)(float *);

static void call_hot_loop_residual(void *fn, float *data) {
	((hot_loop_residual_fn)fn)(data);
}

typedef unsigned char (*is_even_or_odd_residual_fn)(int32_t);

static unsigned char call_is_even_or_odd_residual(void *fn, int32_t x) {
	return ((is_even_or_odd_residual_fn)fn)(x);
}
*/
import "C"

import "unsafe"

// callHotLoopResidual and callIsEvenOrOddResidual wrap the cgo call
// thunks above so that _test.go files (which cannot themselves use
// cgo, see https://github.com/golang/go/issues/28470) can exercise
// JIT-compiled function pointers.

func callHotLoopResidual(fn uintptr, data []float32) {
	C.call_hot_loop_residual(unsafe.Pointer(fn), (*C.float)(unsafe.Pointer(&data[0])))
}

func callIsEvenOrOddResidual(fn uintptr, x int32) uint8 {
	return uint8(C.call_is_even_or_odd_residual(unsafe.Pointer(fn), C.int32_t(x)))
}
