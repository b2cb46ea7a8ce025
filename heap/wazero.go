package heap

import (
	"context"
	"fmt"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"
	"go.uber.org/zap"

	"github.com/wippyai/xbridge"
	"github.com/wippyai/xbridge/errors"
)

// Wazero is a WebAssembly linear memory hosted by a wazero runtime. The
// module behind it exports a single memory and no code, so every byte is
// managed by the Go side through the xbridge interfaces.
type Wazero struct {
	runtime wazero.Runtime
	module  api.Module
	mem     api.Memory
}

var _ xbridge.Growable = (*Wazero)(nil)

// NewWazero instantiates a memory of initialPages pages. limitPages caps
// growth; 0 leaves wazero's default.
func NewWazero(ctx context.Context, initialPages, limitPages uint32) (*Wazero, error) {
	if limitPages > 0 && initialPages > limitPages {
		return nil, errors.InvalidInput(errors.PhaseLoad,
			fmt.Sprintf("initial pages %d exceed limit %d", initialPages, limitPages))
	}

	cfg := wazero.NewRuntimeConfig()
	if limitPages > 0 {
		cfg = cfg.WithMemoryLimitPages(limitPages)
	}
	runtime := wazero.NewRuntimeWithConfig(ctx, cfg)

	module, err := runtime.Instantiate(ctx, memoryModule(initialPages))
	if err != nil {
		_ = runtime.Close(ctx)
		return nil, errors.Load("instantiate memory module", err)
	}
	mem := module.ExportedMemory("memory")
	if mem == nil {
		_ = runtime.Close(ctx)
		return nil, errors.Load("memory export missing", nil)
	}

	Logger().Debug("wazero memory ready",
		zap.Uint32("pages", initialPages),
		zap.Uint32("limit_pages", limitPages),
	)
	return &Wazero{runtime: runtime, module: module, mem: mem}, nil
}

// Close releases the module and its runtime.
func (w *Wazero) Close(ctx context.Context) error {
	return w.runtime.Close(ctx)
}

// Size returns the memory size in bytes.
func (w *Wazero) Size() uint32 {
	return w.mem.Size()
}

// Grow extends the memory by deltaPages.
func (w *Wazero) Grow(deltaPages uint32) (uint32, bool) {
	return w.mem.Grow(deltaPages)
}

// Read reads bytes from memory. The slice aliases the memory.
func (w *Wazero) Read(offset uint32, length uint32) ([]byte, error) {
	data, ok := w.mem.Read(offset, length)
	if !ok {
		return nil, fmt.Errorf("memory read out of bounds: offset=%d, length=%d", offset, length)
	}
	return data, nil
}

// Write writes bytes to memory.
func (w *Wazero) Write(offset uint32, data []byte) error {
	if !w.mem.Write(offset, data) {
		return fmt.Errorf("memory write out of bounds: offset=%d, length=%d", offset, len(data))
	}
	return nil
}

func (w *Wazero) ReadU8(offset uint32) (uint8, error) {
	v, ok := w.mem.ReadByte(offset)
	if !ok {
		return 0, fmt.Errorf("memory read out of bounds: offset=%d", offset)
	}
	return v, nil
}

func (w *Wazero) ReadU16(offset uint32) (uint16, error) {
	v, ok := w.mem.ReadUint16Le(offset)
	if !ok {
		return 0, fmt.Errorf("memory read out of bounds: offset=%d", offset)
	}
	return v, nil
}

func (w *Wazero) ReadU32(offset uint32) (uint32, error) {
	v, ok := w.mem.ReadUint32Le(offset)
	if !ok {
		return 0, fmt.Errorf("memory read out of bounds: offset=%d", offset)
	}
	return v, nil
}

func (w *Wazero) ReadU64(offset uint32) (uint64, error) {
	v, ok := w.mem.ReadUint64Le(offset)
	if !ok {
		return 0, fmt.Errorf("memory read out of bounds: offset=%d", offset)
	}
	return v, nil
}

func (w *Wazero) WriteU8(offset uint32, value uint8) error {
	if !w.mem.WriteByte(offset, value) {
		return fmt.Errorf("memory write out of bounds: offset=%d", offset)
	}
	return nil
}

func (w *Wazero) WriteU16(offset uint32, value uint16) error {
	if !w.mem.WriteUint16Le(offset, value) {
		return fmt.Errorf("memory write out of bounds: offset=%d", offset)
	}
	return nil
}

func (w *Wazero) WriteU32(offset uint32, value uint32) error {
	if !w.mem.WriteUint32Le(offset, value) {
		return fmt.Errorf("memory write out of bounds: offset=%d", offset)
	}
	return nil
}

func (w *Wazero) WriteU64(offset uint32, value uint64) error {
	if !w.mem.WriteUint64Le(offset, value) {
		return fmt.Errorf("memory write out of bounds: offset=%d", offset)
	}
	return nil
}

// memoryModule encodes a core module that defines one memory with the given
// minimum and exports it as "memory".
func memoryModule(minPages uint32) []byte {
	limits := append([]byte{0x01, 0x00}, uleb128(minPages)...)

	out := []byte{0x00, 0x61, 0x73, 0x6d, 0x01, 0x00, 0x00, 0x00}
	out = append(out, 0x05)
	out = append(out, uleb128(uint32(len(limits)))...)
	out = append(out, limits...)
	out = append(out,
		0x07, 0x0a, 0x01,
		0x06, 'm', 'e', 'm', 'o', 'r', 'y',
		0x02, 0x00,
	)
	return out
}

func uleb128(v uint32) []byte {
	var out []byte
	for {
		b := byte(v & 0x7f)
		v >>= 7
		if v != 0 {
			b |= 0x80
		}
		out = append(out, b)
		if v == 0 {
			return out
		}
	}
}
