// Package encoding provides the symbol layer of ftc feature set payloads.
//
// A payload is a flat sequence of symbols written in a fixed order by the
// coding engines and read back in the same order:
//
//	enc := encoding.NewSymbolEncoder(endian.GetLittleEndianEngine())
//	defer enc.Finish()
//
//	enc.WriteUvarint(uint64(nCluster))   // counts and indices
//	enc.WriteFloat32(scale)              // suppression coefficients
//	enc.WriteVarint(int64(dcLevel))      // signed quantization levels
//	enc.WriteLevels(detailLevels)
//
//	dec := encoding.NewSymbolDecoder(enc.Bytes(), engine)
//	n, err := dec.ReadIndex(channels + 1)
//
// Signed levels use zigzag varints, so the zero-dominated output of the
// quantizer costs one byte per sample before block compression. The
// compressed payload is produced by the compress package.
package encoding
