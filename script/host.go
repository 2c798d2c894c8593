package script

import (
	"context"
	"fmt"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"
	"go.uber.org/zap"

	"github.com/wippyai/scriptref/convert"
	"github.com/wippyai/scriptref/errors"
	"github.com/wippyai/scriptref/handle"
	"github.com/wippyai/scriptref/world"
)

var (
	i32 = api.ValueTypeI32
	i64 = api.ValueTypeI64
	f64 = api.ValueTypeF64
)

// Instantiate exports the context's host functions into r under the
// configured module name. Guests must be instantiated afterwards.
//
// Functions returning a handle return it as a positive i64, or a negated
// Status on failure. Other functions return a Status. After a failure
// last_error copies the error message into guest memory.
//
//	component(entity i64, name_ptr i32, name_len i32) -> i64
//	resource(name_ptr i32, name_len i32) -> i64
//	parse(text_ptr i32, text_len i32) -> i64
//	field(h i32, name_ptr i32, name_len i32) -> i64
//	index(h i32, i i32) -> i64
//	clone(h i32) -> i64
//	valid(h i32) -> i32
//	kind(h i32, buf_ptr i32, buf_cap i32) -> i32
//	get_f64(h i32, out_ptr i32) -> i32
//	set_f64(h i32, v f64) -> i32
//	get_i64(h i32, out_ptr i32) -> i32
//	set_i64(h i32, v i64) -> i32
//	apply(dst i32, src i32) -> i32
//	drop(h i32) -> i32
//	last_error(buf_ptr i32, buf_cap i32) -> i32
//
// kind and last_error return the full length of the text, writing at most
// buf_cap bytes. kind returns a negated Status on failure.
func (c *Context) Instantiate(ctx context.Context, r wazero.Runtime) (api.Module, error) {
	h := &host{c: c}
	b := r.NewHostModuleBuilder(c.cfg.ModuleName)

	export := func(name string, fn func(api.Memory, []uint64), params, results []api.ValueType, onPanic uint64) {
		b = b.NewFunctionBuilder().
			WithGoModuleFunction(api.GoModuleFunc(func(_ context.Context, mod api.Module, stack []uint64) {
				defer func() {
					if p := recover(); p != nil {
						c.log.Warn("host function panicked", zap.String("func", name), zap.Any("panic", p))
						c.record(fmt.Errorf("%s panicked: %v", name, p))
						stack[0] = onPanic
					}
				}()
				fn(mod.Memory(), stack)
			}), params, results).
			WithName(name).
			Export(name)
	}

	var (
		handleFailed = api.EncodeI64(-int64(StatusInternal))
		statusFailed = api.EncodeI32(int32(StatusInternal))
		lengthFailed = api.EncodeI32(-int32(StatusInternal))
	)
	export("component", h.component, []api.ValueType{i64, i32, i32}, []api.ValueType{i64}, handleFailed)
	export("resource", h.resource, []api.ValueType{i32, i32}, []api.ValueType{i64}, handleFailed)
	export("parse", h.parse, []api.ValueType{i32, i32}, []api.ValueType{i64}, handleFailed)
	export("field", h.field, []api.ValueType{i32, i32, i32}, []api.ValueType{i64}, handleFailed)
	export("index", h.index, []api.ValueType{i32, i32}, []api.ValueType{i64}, handleFailed)
	export("clone", h.clone, []api.ValueType{i32}, []api.ValueType{i64}, handleFailed)
	export("valid", h.valid, []api.ValueType{i32}, []api.ValueType{i32}, api.EncodeI32(0))
	export("kind", h.kind, []api.ValueType{i32, i32, i32}, []api.ValueType{i32}, lengthFailed)
	export("get_f64", h.getF64, []api.ValueType{i32, i32}, []api.ValueType{i32}, statusFailed)
	export("set_f64", h.setF64, []api.ValueType{i32, f64}, []api.ValueType{i32}, statusFailed)
	export("get_i64", h.getI64, []api.ValueType{i32, i32}, []api.ValueType{i32}, statusFailed)
	export("set_i64", h.setI64, []api.ValueType{i32, i64}, []api.ValueType{i32}, statusFailed)
	export("apply", h.apply, []api.ValueType{i32, i32}, []api.ValueType{i32}, statusFailed)
	export("drop", h.drop, []api.ValueType{i32}, []api.ValueType{i32}, statusFailed)
	export("last_error", h.lastError, []api.ValueType{i32, i32}, []api.ValueType{i32}, api.EncodeI32(0))

	mod, err := b.Instantiate(ctx)
	if err != nil {
		return nil, errors.Wrap(errors.PhaseScript, errors.KindInvalidInput, err, "instantiate host module "+c.cfg.ModuleName)
	}
	c.log.Debug("host module instantiated", zap.String("module", c.cfg.ModuleName))
	return mod, nil
}

// host adapts Context methods to the wasm calling convention.
type host struct {
	c *Context
}

func (h *host) handleResult(hd handle.Handle, err error) uint64 {
	if err != nil {
		return api.EncodeI64(-int64(h.c.record(err)))
	}
	return api.EncodeI64(int64(hd))
}

func (h *host) status(err error) uint64 {
	return api.EncodeI32(int32(h.c.record(err)))
}

func (h *host) component(mem api.Memory, stack []uint64) {
	name, err := readString(mem, stack[1], stack[2])
	if err != nil {
		stack[0] = h.handleResult(0, err)
		return
	}
	stack[0] = h.handleResult(h.c.Component(world.Entity(stack[0]), name))
}

func (h *host) resource(mem api.Memory, stack []uint64) {
	name, err := readString(mem, stack[0], stack[1])
	if err != nil {
		stack[0] = h.handleResult(0, err)
		return
	}
	stack[0] = h.handleResult(h.c.Resource(name))
}

func (h *host) parse(mem api.Memory, stack []uint64) {
	text, err := readString(mem, stack[0], stack[1])
	if err != nil {
		stack[0] = h.handleResult(0, err)
		return
	}
	stack[0] = h.handleResult(h.c.Parse(text))
}

func (h *host) field(mem api.Memory, stack []uint64) {
	name, err := readString(mem, stack[1], stack[2])
	if err != nil {
		stack[0] = h.handleResult(0, err)
		return
	}
	stack[0] = h.handleResult(h.c.Field(handleOf(stack[0]), name))
}

func (h *host) index(_ api.Memory, stack []uint64) {
	i := int(api.DecodeI32(stack[1]))
	if i < 0 {
		stack[0] = h.handleResult(0, errors.InvalidInput(errors.PhaseScript, "negative index"))
		return
	}
	stack[0] = h.handleResult(h.c.Index(handleOf(stack[0]), i))
}

func (h *host) clone(_ api.Memory, stack []uint64) {
	stack[0] = h.handleResult(h.c.Clone(handleOf(stack[0])))
}

func (h *host) valid(_ api.Memory, stack []uint64) {
	if h.c.Valid(handleOf(stack[0])) {
		stack[0] = api.EncodeI32(1)
	} else {
		stack[0] = api.EncodeI32(0)
	}
}

func (h *host) kind(mem api.Memory, stack []uint64) {
	name, err := h.c.Kind(handleOf(stack[0]))
	if err != nil {
		stack[0] = api.EncodeI32(-int32(h.c.record(err)))
		return
	}
	n, err := writeString(mem, stack[1], stack[2], name)
	if err != nil {
		stack[0] = api.EncodeI32(-int32(h.c.record(err)))
		return
	}
	stack[0] = api.EncodeI32(n)
}

func (h *host) getF64(mem api.Memory, stack []uint64) {
	p, err := h.c.Get(handleOf(stack[0]))
	if err != nil {
		stack[0] = h.status(err)
		return
	}
	f, ok := p.Float64()
	if !ok {
		stack[0] = h.status(errors.TypeMismatch(errors.PhaseScript, "number", p.Form().String()))
		return
	}
	if !mem.WriteFloat64Le(api.DecodeU32(stack[1]), f) {
		stack[0] = h.status(outOfRange(stack[1], 8))
		return
	}
	stack[0] = h.status(nil)
}

func (h *host) setF64(_ api.Memory, stack []uint64) {
	stack[0] = h.status(h.c.Set(handleOf(stack[0]), convert.Float(api.DecodeF64(stack[1]))))
}

func (h *host) getI64(mem api.Memory, stack []uint64) {
	p, err := h.c.Get(handleOf(stack[0]))
	if err != nil {
		stack[0] = h.status(err)
		return
	}
	n, ok := p.Int64()
	if !ok {
		stack[0] = h.status(errors.TypeMismatch(errors.PhaseScript, "number", p.Form().String()))
		return
	}
	if !mem.WriteUint64Le(api.DecodeU32(stack[1]), uint64(n)) {
		stack[0] = h.status(outOfRange(stack[1], 8))
		return
	}
	stack[0] = h.status(nil)
}

func (h *host) setI64(_ api.Memory, stack []uint64) {
	stack[0] = h.status(h.c.Set(handleOf(stack[0]), convert.Int(int64(stack[1]))))
}

func (h *host) apply(_ api.Memory, stack []uint64) {
	stack[0] = h.status(h.c.Apply(handleOf(stack[0]), handleOf(stack[1])))
}

func (h *host) drop(_ api.Memory, stack []uint64) {
	stack[0] = h.status(h.c.Release(handleOf(stack[0])))
}

func (h *host) lastError(mem api.Memory, stack []uint64) {
	err := h.c.LastError()
	if err == nil {
		stack[0] = api.EncodeI32(0)
		return
	}
	n, werr := writeString(mem, stack[0], stack[1], err.Error())
	if werr != nil {
		stack[0] = api.EncodeI32(0)
		return
	}
	stack[0] = api.EncodeI32(n)
}

func handleOf(v uint64) handle.Handle {
	return handle.Handle(api.DecodeU32(v))
}

func readString(mem api.Memory, ptr, length uint64) (string, error) {
	if mem == nil {
		return "", errors.InvalidInput(errors.PhaseScript, "guest has no memory")
	}
	data, ok := mem.Read(api.DecodeU32(ptr), api.DecodeU32(length))
	if !ok {
		return "", outOfRange(ptr, api.DecodeU32(length))
	}
	return string(data), nil
}

func writeString(mem api.Memory, ptr, capacity uint64, s string) (int32, error) {
	n := min(len(s), int(api.DecodeU32(capacity)))
	if n == 0 {
		return int32(len(s)), nil
	}
	if mem == nil {
		return 0, errors.InvalidInput(errors.PhaseScript, "guest has no memory")
	}
	if !mem.Write(api.DecodeU32(ptr), []byte(s[:n])) {
		return 0, outOfRange(ptr, uint32(n))
	}
	return int32(len(s)), nil
}

func outOfRange(ptr uint64, length uint32) error {
	return errors.New(errors.PhaseScript, errors.KindInvalidInput).
		Detail("memory range [%d, +%d) out of bounds", api.DecodeU32(ptr), length).
		Build()
}
