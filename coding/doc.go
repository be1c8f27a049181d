// Package coding implements the intra and inter coding engines and the
// framing of one coded feature set.
//
// # Frame Layout
//
//	┌────────┬───────────────┬────────────────┬─────────────────┬──────────┐
//	│ marker │ raw length    │ compressed len │ compressed data │ checksum │
//	│ 1 byte │ uvarint       │ uvarint        │ variable        │ uint32   │
//	└────────┴───────────────┴────────────────┴─────────────────┴──────────┘
//
// The marker is the format.CodingType of the set (0 intra, 1 inter). The
// checksum covers the compressed bytes and uses the header's byte order.
//
// # Payload Layout
//
// The uncompressed payload lists every tag in header order:
//
//	uvarint nCluster
//	per channel:  uvarint cluster, float32 scale, float32 bias
//	per cluster:  [mode byte, inter only]
//	              uvarint source channel
//	              varint  DC level
//	              H·W varint detail levels
//
// In inter sets the mode byte selects prediction from the reference channel
// at the representative's source index (1) or intra coding of that cluster
// (0). Encoders fall back to intra per cluster when the reference lacks a
// compatible channel.
package coding
