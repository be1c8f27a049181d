// Package safetensors reads and writes feature dumps in the safetensors
// layout: an 8-byte little-endian header length, a JSON header, then raw
// little-endian tensor data.
//
// A feature sequence is stored as one tensor per tag with shape
// [T, C, H, W]. The __metadata__ object records the tag order and the
// image sizes.
package safetensors

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"slices"
	"strconv"
	"strings"

	json "github.com/goccy/go-json"

	"github.com/arloliu/ftc/tensor"
)

// Supported dtypes. Only F32 is written.
const (
	DTypeF32  = "F32"
	DTypeF16  = "F16"
	DTypeBF16 = "BF16"
)

// Metadata keys.
const (
	MetaTags           = "tags"
	MetaOriginalHeight = "original_height"
	MetaOriginalWidth  = "original_width"
	MetaInputHeight    = "input_height"
	MetaInputWidth     = "input_width"
)

const (
	metadataKey  = "__metadata__"
	maxHeaderLen = 100 << 20
)

// ErrInvalidFile reports a malformed safetensors file.
var ErrInvalidFile = errors.New("invalid safetensors file")

// TensorInfo locates one tensor inside the data section.
type TensorInfo struct {
	DType string
	Shape []int
	Start int64
	End   int64
}

// File is a parsed safetensors file held in memory.
type File struct {
	Metadata map[string]string
	Tensors  map[string]TensorInfo
	data     []byte
}

type tensorHeader struct {
	DType       string  `json:"dtype"`
	Shape       []int   `json:"shape"`
	DataOffsets []int64 `json:"data_offsets"`
}

// Open reads and parses the file at path.
func Open(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	return Parse(data)
}

// Parse parses an in-memory file. data is retained.
func Parse(data []byte) (*File, error) {
	if len(data) < 8 {
		return nil, fmt.Errorf("%w: missing header length", ErrInvalidFile)
	}
	headerLen := binary.LittleEndian.Uint64(data)
	if headerLen > maxHeaderLen || headerLen > uint64(len(data)-8) {
		return nil, fmt.Errorf("%w: header length %d", ErrInvalidFile, headerLen)
	}
	body := data[8+headerLen:]

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data[8:8+headerLen], &raw); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidFile, err)
	}

	f := &File{
		Metadata: map[string]string{},
		Tensors:  make(map[string]TensorInfo, len(raw)),
		data:     body,
	}
	if msg, ok := raw[metadataKey]; ok {
		if err := json.Unmarshal(msg, &f.Metadata); err != nil {
			return nil, fmt.Errorf("%w: metadata: %w", ErrInvalidFile, err)
		}
		delete(raw, metadataKey)
	}

	for name, msg := range raw {
		var th tensorHeader
		if err := json.Unmarshal(msg, &th); err != nil {
			return nil, fmt.Errorf("%w: tensor %s: %w", ErrInvalidFile, name, err)
		}
		if len(th.DataOffsets) != 2 {
			return nil, fmt.Errorf("%w: tensor %s: invalid data_offsets", ErrInvalidFile, name)
		}
		start, end := th.DataOffsets[0], th.DataOffsets[1]
		if start < 0 || end < start || end > int64(len(body)) {
			return nil, fmt.Errorf("%w: tensor %s: offsets [%d, %d) outside %d data bytes",
				ErrInvalidFile, name, start, end, len(body))
		}
		f.Tensors[name] = TensorInfo{DType: th.DType, Shape: th.Shape, Start: start, End: end}
	}

	return f, nil
}

// Names returns the tensor names in sorted order.
func (f *File) Names() []string {
	names := make([]string, 0, len(f.Tensors))
	for name := range f.Tensors {
		names = append(names, name)
	}
	slices.Sort(names)

	return names
}

// TensorF32 returns a tensor converted to float32.
func (f *File) TensorF32(name string) ([]float32, TensorInfo, error) {
	info, ok := f.Tensors[name]
	if !ok {
		return nil, TensorInfo{}, fmt.Errorf("tensor not found: %s", name)
	}
	n, err := numElements(info.Shape)
	if err != nil {
		return nil, TensorInfo{}, fmt.Errorf("%w: tensor %s: %w", ErrInvalidFile, name, err)
	}
	raw := f.data[info.Start:info.End]

	out := make([]float32, n)
	switch info.DType {
	case DTypeF32:
		if len(raw) != n*4 {
			return nil, TensorInfo{}, fmt.Errorf("%w: tensor %s: invalid f32 data size", ErrInvalidFile, name)
		}
		for i := range out {
			out[i] = math.Float32frombits(binary.LittleEndian.Uint32(raw[i*4:]))
		}
	case DTypeBF16:
		if len(raw) != n*2 {
			return nil, TensorInfo{}, fmt.Errorf("%w: tensor %s: invalid bf16 data size", ErrInvalidFile, name)
		}
		for i := range out {
			out[i] = math.Float32frombits(uint32(binary.LittleEndian.Uint16(raw[i*2:])) << 16)
		}
	case DTypeF16:
		if len(raw) != n*2 {
			return nil, TensorInfo{}, fmt.Errorf("%w: tensor %s: invalid f16 data size", ErrInvalidFile, name)
		}
		for i := range out {
			out[i] = fp16ToFloat32(binary.LittleEndian.Uint16(raw[i*2:]))
		}
	default:
		return nil, TensorInfo{}, fmt.Errorf("%w: unsupported dtype %s", ErrInvalidFile, info.DType)
	}

	return out, info, nil
}

// Sequence converts the file into a feature sequence. Tensors of shape
// [C, H, W] are read as a single time step.
func (f *File) Sequence() (*tensor.Sequence, error) {
	tags := f.Names()
	if order := f.Metadata[MetaTags]; order != "" {
		tags = strings.Split(order, ",")
	}

	layers := make(map[string][]*tensor.Tensor, len(tags))
	for _, tag := range tags {
		values, info, err := f.TensorF32(tag)
		if err != nil {
			return nil, err
		}

		shape := info.Shape
		if len(shape) == 3 {
			shape = append([]int{1}, shape...)
		}
		if len(shape) != 4 {
			return nil, fmt.Errorf("%w: tensor %s has rank %d, expected 4", ErrInvalidFile, tag, len(info.Shape))
		}

		frames, c, h, w := shape[0], shape[1], shape[2], shape[3]
		size := c * h * w
		for t := range frames {
			ts, err := tensor.FromData(c, h, w, values[t*size:(t+1)*size:(t+1)*size])
			if err != nil {
				return nil, err
			}
			layers[tag] = append(layers[tag], ts)
		}
	}

	seq, err := tensor.FromLayers(tags, layers)
	if err != nil {
		return nil, err
	}
	seq.OriginalSize = tensor.Size{
		Height: f.metaInt(MetaOriginalHeight),
		Width:  f.metaInt(MetaOriginalWidth),
	}
	seq.InputSize = tensor.Size{
		Height: f.metaInt(MetaInputHeight),
		Width:  f.metaInt(MetaInputWidth),
	}

	return seq, nil
}

func (f *File) metaInt(key string) int {
	v, err := strconv.Atoi(f.Metadata[key])
	if err != nil || v < 0 {
		return 0
	}

	return v
}

// ReadSequence reads a feature sequence from path.
func ReadSequence(path string) (*tensor.Sequence, error) {
	f, err := Open(path)
	if err != nil {
		return nil, err
	}

	return f.Sequence()
}

// WriteSequence writes seq to a new file at path.
func WriteSequence(path string, seq *tensor.Sequence) error {
	out, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := EncodeSequence(out, seq); err != nil {
		_ = out.Close()
		_ = os.Remove(path)

		return err
	}

	return out.Close()
}

// EncodeSequence writes seq to w as F32 tensors.
func EncodeSequence(w io.Writer, seq *tensor.Sequence) error {
	if err := seq.Validate(); err != nil {
		return err
	}

	tags := seq.Tags()
	header := make(map[string]any, len(tags)+1)
	header[metadataKey] = map[string]string{
		MetaTags:           strings.Join(tags, ","),
		MetaOriginalHeight: strconv.Itoa(seq.OriginalSize.Height),
		MetaOriginalWidth:  strconv.Itoa(seq.OriginalSize.Width),
		MetaInputHeight:    strconv.Itoa(seq.InputSize.Height),
		MetaInputWidth:     strconv.Itoa(seq.InputSize.Width),
	}

	var offset int64
	for _, tag := range tags {
		first, _ := seq.Frames[0].Get(tag)
		s := first.Shape()
		size := int64(seq.Len()) * int64(len(first.Data())) * 4
		header[tag] = tensorHeader{
			DType:       DTypeF32,
			Shape:       []int{seq.Len(), s.C, s.H, s.W},
			DataOffsets: []int64{offset, offset + size},
		}
		offset += size
	}

	headerBytes, err := json.Marshal(header)
	if err != nil {
		return err
	}

	var lenBuf [8]byte
	binary.LittleEndian.PutUint64(lenBuf[:], uint64(len(headerBytes)))
	if _, err := w.Write(lenBuf[:]); err != nil {
		return err
	}
	if _, err := w.Write(headerBytes); err != nil {
		return err
	}

	var buf []byte
	for _, tag := range tags {
		for _, layer := range seq.Layer(tag) {
			buf = buf[:0]
			for _, v := range layer.Data() {
				buf = binary.LittleEndian.AppendUint32(buf, math.Float32bits(v))
			}
			if _, err := w.Write(buf); err != nil {
				return err
			}
		}
	}

	return nil
}

func numElements(shape []int) (int, error) {
	if len(shape) == 0 {
		return 0, errors.New("empty shape")
	}
	n := 1
	for _, d := range shape {
		if d <= 0 {
			return 0, fmt.Errorf("invalid dim %d", d)
		}
		if n > (int(^uint(0)>>1))/d {
			return 0, errors.New("tensor too large")
		}
		n *= d
	}

	return n, nil
}

func fp16ToFloat32(h uint16) float32 {
	sign := uint32(h>>15) & 0x1
	exp := uint32(h>>10) & 0x1F
	frac := uint32(h & 0x3FF)

	var f uint32
	switch exp {
	case 0:
		if frac == 0 {
			f = sign << 31
		} else {
			e := uint32(127 - 15 + 1)
			for (frac & 0x400) == 0 {
				frac <<= 1
				e--
			}
			frac &= 0x3FF
			f = (sign << 31) | (e << 23) | (frac << 13)
		}
	case 0x1F:
		f = (sign << 31) | 0x7F800000 | (frac << 13)
	default:
		f = (sign << 31) | ((exp + 127 - 15) << 23) | (frac << 13)
	}

	return math.Float32frombits(f)
}
