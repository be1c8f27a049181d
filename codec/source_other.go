//go:build !unix

package codec

import "os"

func mapFile(_ *os.File, _ int) (*source, bool) {
	return nil, false
}
