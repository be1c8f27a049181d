package pool

import "sync"

var levelSlicePool = sync.Pool{
	New: func() any { return &[]int32{} },
}

// GetLevelSlice retrieves an int32 slice of exactly size elements for
// quantization levels.
//
// The contents are not zeroed. The caller must call the returned cleanup
// function (typically with defer) to give the slice back.
//
//	levels, cleanup := pool.GetLevelSlice(h * w)
//	defer cleanup()
func GetLevelSlice(size int) ([]int32, func()) {
	ptr, _ := levelSlicePool.Get().(*[]int32)
	slice := (*ptr)[:0]

	if cap(slice) < size {
		slice = make([]int32, size)
	} else {
		slice = slice[:size]
	}
	*ptr = slice

	return slice, func() { levelSlicePool.Put(ptr) }
}
