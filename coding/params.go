package coding

import (
	"encoding/binary"

	"github.com/arloliu/ftc/compress"
	"github.com/arloliu/ftc/endian"
	"github.com/arloliu/ftc/quant"
	"github.com/arloliu/ftc/section"
)

// Params carries everything the engines need from the sequence header.
type Params struct {
	Quant  quant.Params
	Tags   []section.TagInfo
	Engine endian.EndianEngine
	Codec  compress.Codec
}

// ParamsFromHeader derives engine parameters from a written or parsed header.
func ParamsFromHeader(h *section.SequenceHeader) (Params, error) {
	codec, err := compress.GetCodec(h.Flag.Compression())
	if err != nil {
		return Params{}, err
	}

	return Params{
		Quant: quant.Params{
			QP:                int(h.QP),
			QPDensity:         int(h.QPDensity),
			DCQPOffset:        int(h.DCQPOffset),
			DCQPDensityOffset: int(h.DCQPDensityOffset),
		},
		Tags:   h.Tags,
		Engine: h.Flag.GetEndianEngine(),
		Codec:  codec,
	}, nil
}

// Worst-case symbol sizes of a payload.
const (
	maxIndexSize = binary.MaxVarintLen64
	maxLevelSize = 5
	ruleSize     = maxIndexSize + 8
	// mode byte, source index and DC level
	clusterSize = 1 + maxIndexSize + maxLevelSize
)

// MaxRawSize returns the largest uncompressed payload a frame can hold for
// the tags in p, capped at compress.MaxDecodedPayload.
func (p Params) MaxRawSize() int {
	var total uint64
	for _, t := range p.Tags {
		channels := uint64(t.Channels)
		plane := uint64(t.Height) * uint64(t.Width)
		if channels > compress.MaxDecodedPayload || plane > compress.MaxDecodedPayload {
			return compress.MaxDecodedPayload
		}
		total += maxIndexSize + channels*ruleSize + channels*(clusterSize+plane*maxLevelSize)
		if total > compress.MaxDecodedPayload {
			return compress.MaxDecodedPayload
		}
	}

	return int(total) //nolint:gosec
}
