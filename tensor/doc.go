// Package tensor holds the in-memory model of intermediate feature data.
//
// A Tensor is one layer of a feature pyramid at one time step, stored as a
// dense channels × height × width float32 array in row-major order. A
// FeatureSet maps stable tags (layer names) to tensors, keeping insertion
// order; a Sequence is the ordered list of feature sets that make up one
// coded bitstream, together with the size of the image the features were
// extracted from.
//
// The package also provides the bicubic resampling used by the optional
// downsampling stage and a few per-channel statistics shared by the
// clustering and coding packages.
package tensor
