//go:build windows

package webgpu

import (
	"encoding/binary"
	"math"

	"github.com/go-webgpu/webgpu/wgpu"
	"github.com/pkg/errors"
	"k8s.io/klog/v2"

	"github.com/born-ml/strider/internal/backend/cpu"
	"github.com/born-ml/strider/internal/tensor"
)

// compileShader compiles WGSL shader code into a ShaderModule.
// Results are cached in the Backend's shaders map.
func (b *Backend) compileShader(name, code string) *wgpu.ShaderModule {
	b.mu.RLock()
	if shader, exists := b.shaders[name]; exists {
		b.mu.RUnlock()
		return shader
	}
	b.mu.RUnlock()

	shader := b.gpu.CreateShaderModuleWGSL(code)

	b.mu.Lock()
	b.shaders[name] = shader
	b.mu.Unlock()

	return shader
}

// getOrCreatePipeline returns a cached ComputePipeline or creates a new one.
func (b *Backend) getOrCreatePipeline(name, code string) *wgpu.ComputePipeline {
	b.mu.RLock()
	if pipeline, exists := b.pipelines[name]; exists {
		b.mu.RUnlock()
		return pipeline
	}
	b.mu.RUnlock()

	// Create compute pipeline with auto layout (nil layout)
	pipeline := b.gpu.CreateComputePipelineSimple(nil, b.compileShader(name, code), "main")

	b.mu.Lock()
	b.pipelines[name] = pipeline
	b.mu.Unlock()

	return pipeline
}

func typeCode(dt tensor.DataType) (uint32, bool) {
	switch dt {
	case tensor.Float32:
		return codeF32, true
	case tensor.Int32:
		return codeI32, true
	case tensor.Uint32:
		return codeU32, true
	default:
		return 0, false
	}
}

// shaderIndexable reports whether the shaders can address layout over shape
// with 32-bit signed indices.
func shaderIndexable(shape tensor.Shape, layout tensor.Strided) bool {
	if len(shape) > maxRank || shape.NumElements() > math.MaxInt32 || layout.Offset > math.MaxInt32 {
		return false
	}
	for _, s := range layout.Strides {
		if s > math.MaxInt32 || s < math.MinInt32 {
			return false
		}
	}
	lo, hi, ok := tensor.Span(shape, layout.Strides, layout.Offset)
	return !ok || (lo >= 0 && hi <= math.MaxInt32)
}

// layoutWords encodes shape and strides as fixed maxRank-long u32/i32 arrays.
func layoutWords(params []byte, shape tensor.Shape, strides ...[]int) {
	for k, n := range shape {
		//nolint:gosec // G115: shaderIndexable bounds every value
		binary.LittleEndian.PutUint32(params[k*4:], uint32(n))
	}
	for j, s := range strides {
		base := (j + 1) * maxRank * 4
		for k, v := range s {
			//nolint:gosec // G115: two's complement i32 encoding
			binary.LittleEndian.PutUint32(params[base+k*4:], uint32(int32(v)))
		}
	}
}

// dispatch runs pipeline over n invocations with the given buffers bound in order.
func (b *Backend) dispatch(pipeline *wgpu.ComputePipeline, n int, pre func(*wgpu.CommandEncoder), entries []wgpu.BindGroupEntry) {
	bindGroup := b.gpu.CreateBindGroupSimple(pipeline.GetBindGroupLayout(0), entries)
	defer bindGroup.Release()

	encoder := b.gpu.CreateCommandEncoder(nil)
	if pre != nil {
		pre(encoder)
	}
	computePass := encoder.BeginComputePass(nil)
	computePass.SetPipeline(pipeline)
	computePass.SetBindGroup(0, bindGroup, nil)

	groups := (n + workgroupSize - 1) / workgroupSize
	x := min(groups, maxWorkgroups)
	y := (groups + x - 1) / x
	//nolint:gosec // G115: both bounded by maxWorkgroups
	computePass.DispatchWorkgroups(uint32(x), uint32(y), 1)
	computePass.End()

	b.queue.Submit(encoder.Finish(nil))
}

// CopyStrided copies shape positions between two device layouts with dtype
// conversion. 32-bit types run on the GPU; others go through host memory.
func (b *Backend) CopyStrided(q tensor.Queue, shape tensor.Shape, src, dst tensor.Strided,
	srcType, dstType tensor.DataType,
) error {
	if err := b.checkQueue(q); err != nil {
		return err
	}
	s, err := b.own(src.Buffer)
	if err != nil {
		return errors.WithMessage(err, "webgpu: copy source")
	}
	d, err := b.own(dst.Buffer)
	if err != nil {
		return errors.WithMessage(err, "webgpu: copy destination")
	}
	if err := tensor.CheckBounds(shape, src.Strides, src.Offset, srcType.Size(), s.size); err != nil {
		return errors.WithMessage(err, "webgpu: copy source")
	}
	if err := tensor.CheckBounds(shape, dst.Strides, dst.Offset, dstType.Size(), d.size); err != nil {
		return errors.WithMessage(err, "webgpu: copy destination")
	}
	if shape.NumElements() == 0 {
		return nil
	}

	sc, sok := typeCode(srcType)
	dc, dok := typeCode(dstType)
	// Shader invocations writing one element would race; the host path orders them.
	if sok && dok && shaderIndexable(shape, src) && shaderIndexable(shape, dst) && !tensor.MayOverlap(shape, dst.Strides) {
		b.runStridedCopy(shape, s, d, src, dst, sc, dc)
		return nil
	}
	klog.V(3).Infof("webgpu: host fallback for %s -> %s copy of %v", srcType, dstType, shape)
	return b.hostStridedCopy(shape, s, d, src, dst, srcType, dstType)
}

func (b *Backend) runStridedCopy(shape tensor.Shape, s, d *Buffer, src, dst tensor.Strided, sc, dc uint32) {
	const header = 6 * 4
	params := make([]byte, header+3*maxRank*4)
	n := shape.NumElements()
	//nolint:gosec // G115: shaderIndexable bounds every value
	for i, v := range []uint32{uint32(n), uint32(len(shape)), uint32(src.Offset), uint32(dst.Offset), sc, dc} {
		binary.LittleEndian.PutUint32(params[i*4:], v)
	}
	layoutWords(params[header:], shape, src.Strides, dst.Strides)
	paramsBuf := b.createBuffer(params, wgpu.BufferUsageStorage)
	defer paramsBuf.Release()

	// One buffer cannot be bound read-only and writable in the same pass.
	source := s.buf
	var pre func(*wgpu.CommandEncoder)
	if s.buf == d.buf {
		snapshot := b.gpu.CreateBuffer(&wgpu.BufferDescriptor{
			Usage: wgpu.BufferUsageStorage | wgpu.BufferUsageCopyDst,
			Size:  s.capacity,
		})
		defer snapshot.Release()
		source = snapshot
		pre = func(enc *wgpu.CommandEncoder) {
			enc.CopyBufferToBuffer(s.buf, 0, snapshot, 0, s.capacity)
		}
	}

	pipeline := b.getOrCreatePipeline("strided_copy", stridedCopyShader)
	b.dispatch(pipeline, n, pre, []wgpu.BindGroupEntry{
		wgpu.BufferBindingEntry(0, source, 0, s.capacity),
		wgpu.BufferBindingEntry(1, d.buf, 0, d.capacity),
		wgpu.BufferBindingEntry(2, paramsBuf, 0, uint64(len(params))),
	})
}

func (b *Backend) hostStridedCopy(shape tensor.Shape, s, d *Buffer, src, dst tensor.Strided,
	srcType, dstType tensor.DataType,
) error {
	sdata, err := b.readBuffer(s.buf, 0, s.capacity)
	if err != nil {
		return err
	}
	ddata := sdata
	if d.buf != s.buf {
		if ddata, err = b.readBuffer(d.buf, 0, d.capacity); err != nil {
			return err
		}
	}
	cpu.StridedCopy(shape,
		cpu.Layout{Acc: tensor.NewAccessor(ddata[:d.size], dstType), Offset: dst.Offset, Strides: dst.Strides},
		cpu.Layout{Acc: tensor.NewAccessor(sdata[:s.size], srcType), Offset: src.Offset, Strides: src.Strides},
		b.parallel)
	b.writeBuffer(d.buf, 0, ddata)
	return nil
}

// Fill writes value to every logical element of a device array.
func (b *Backend) Fill(q tensor.Queue, t *tensor.RawTensor, value float64) error {
	if err := b.checkQueue(q); err != nil {
		return err
	}
	d, err := b.own(t.Buffer())
	if err != nil {
		return errors.WithMessage(err, "webgpu: fill")
	}
	layout := t.Strided()
	if err := tensor.CheckBounds(t.Shape(), layout.Strides, layout.Offset, t.DType().Size(), d.size); err != nil {
		return errors.WithMessage(err, "webgpu: fill")
	}
	n := t.NumElements()
	if n == 0 {
		return nil
	}

	if _, ok := typeCode(t.DType()); ok && shaderIndexable(t.Shape(), layout) {
		word := tensor.NewAccessor(make([]byte, 4), t.DType())
		word.SetFloat64(0, value)

		const header = 4 * 4
		params := make([]byte, header+2*maxRank*4)
		//nolint:gosec // G115: shaderIndexable bounds every value
		for i, v := range []uint32{uint32(n), uint32(len(t.Shape())), uint32(layout.Offset)} {
			binary.LittleEndian.PutUint32(params[i*4:], v)
		}
		copy(params[12:16], word.Bytes(0))
		layoutWords(params[header:], t.Shape(), layout.Strides)
		paramsBuf := b.createBuffer(params, wgpu.BufferUsageStorage)
		defer paramsBuf.Release()

		b.dispatch(b.getOrCreatePipeline("fill", fillShader), n, nil, []wgpu.BindGroupEntry{
			wgpu.BufferBindingEntry(0, d.buf, 0, d.capacity),
			wgpu.BufferBindingEntry(1, paramsBuf, 0, uint64(len(params))),
		})
		return nil
	}

	klog.V(3).Infof("webgpu: host fallback for %s fill of %v", t.DType(), t.Shape())
	data, err := b.readBuffer(d.buf, 0, d.capacity)
	if err != nil {
		return err
	}
	cpu.FillStrided(t.Shape(),
		cpu.Layout{Acc: tensor.NewAccessor(data[:d.size], t.DType()), Offset: layout.Offset, Strides: layout.Strides},
		value, b.parallel)
	b.writeBuffer(d.buf, 0, data)
	return nil
}

// Pointwise evaluates an assignment expression over device arrays.
// Each assignment is one strided copy with the input broadcast to the output.
func (b *Backend) Pointwise(q tensor.Queue, xs, ys []*tensor.RawTensor, expr string) error {
	if err := b.checkQueue(q); err != nil {
		return err
	}
	sources, err := tensor.ParseAssignments(expr, len(xs), len(ys))
	if err != nil {
		return errors.WithMessage(err, "webgpu")
	}

	type job struct {
		shape    tensor.Shape
		src, dst tensor.Strided
		from, to tensor.DataType
	}
	jobs := make([]job, len(ys))
	for i, y := range ys {
		x := xs[sources[i]]
		strides, err := tensor.BroadcastStrides(x.Shape(), x.Strides(), y.Shape())
		if err != nil {
			return errors.WithMessagef(err, "webgpu: pointwise x%d to y%d", sources[i], i)
		}
		for _, a := range []*tensor.RawTensor{x, y} {
			gb, err := b.own(a.Buffer())
			if err != nil {
				return errors.WithMessage(err, "webgpu: pointwise")
			}
			st := a.Strides()
			if a == x {
				st = strides
			}
			if err := tensor.CheckBounds(y.Shape(), st, a.Offset(), a.DType().Size(), gb.size); err != nil {
				return errors.WithMessage(err, "webgpu: pointwise")
			}
		}
		src := x.Strided()
		src.Strides = strides
		jobs[i] = job{shape: y.Shape(), src: src, dst: y.Strided(), from: x.DType(), to: y.DType()}
	}

	for _, j := range jobs {
		if err := b.CopyStrided(q, j.shape, j.src, j.dst, j.from, j.to); err != nil {
			return err
		}
	}
	return nil
}
