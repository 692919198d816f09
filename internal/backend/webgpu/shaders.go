//go:build windows

package webgpu

// WGSL compute shaders for array kernels.
// Using string constants instead of embed for simplicity.

// workgroupSize is the default number of threads per workgroup.
const workgroupSize = 256

// maxWorkgroups is the per-dimension dispatch limit.
const maxWorkgroups = 65535

// maxRank is the highest rank the shaders index.
const maxRank = 8

// Element type codes shared by the shaders. Every element is one 32-bit word.
const (
	codeF32 uint32 = 0
	codeI32 uint32 = 1
	codeU32 uint32 = 2
)

// stridedCopyShader copies shape positions between two strided layouts,
// converting each element between 32-bit types.
const stridedCopyShader = `
struct Params {
    numel: u32,
    ndim: u32,
    src_offset: u32,
    dst_offset: u32,
    src_type: u32,
    dst_type: u32,
    shape: array<u32, 8>,
    src_strides: array<i32, 8>,
    dst_strides: array<i32, 8>,
}

@group(0) @binding(0) var<storage, read> src: array<u32>;
@group(0) @binding(1) var<storage, read_write> dst: array<u32>;
@group(0) @binding(2) var<storage, read> params: Params;

fn to_f32(bits: u32, t: u32) -> f32 {
    if (t == 0u) {
        return bitcast<f32>(bits);
    }
    if (t == 1u) {
        return f32(bitcast<i32>(bits));
    }
    return f32(bits);
}

fn convert(bits: u32, from_t: u32, to_t: u32) -> u32 {
    if (from_t == to_t) {
        return bits;
    }
    if (to_t == 0u) {
        return bitcast<u32>(to_f32(bits, from_t));
    }
    if (from_t != 0u) {
        // Integer to integer keeps the bit pattern.
        return bits;
    }
    let v = bitcast<f32>(bits);
    if (to_t == 2u && v >= 2147483648.0) {
        return u32(v);
    }
    return bitcast<u32>(i32(v));
}

@compute @workgroup_size(256)
fn main(@builtin(global_invocation_id) global_id: vec3<u32>,
        @builtin(num_workgroups) groups: vec3<u32>) {
    let idx = global_id.y * groups.x * 256u + global_id.x;
    if (idx >= params.numel) {
        return;
    }

    var rem = idx;
    var s = i32(params.src_offset);
    var d = i32(params.dst_offset);
    for (var k = i32(params.ndim) - 1; k >= 0; k = k - 1) {
        let n = params.shape[k];
        let i = rem % n;
        rem = rem / n;
        s = s + i32(i) * params.src_strides[k];
        d = d + i32(i) * params.dst_strides[k];
    }
    dst[u32(d)] = convert(src[u32(s)], params.src_type, params.dst_type);
}
`

// fillShader writes one pre-encoded 32-bit word at every position of a
// strided layout.
const fillShader = `
struct Params {
    numel: u32,
    ndim: u32,
    offset: u32,
    value: u32,
    shape: array<u32, 8>,
    strides: array<i32, 8>,
}

@group(0) @binding(0) var<storage, read_write> dst: array<u32>;
@group(0) @binding(1) var<storage, read> params: Params;

@compute @workgroup_size(256)
fn main(@builtin(global_invocation_id) global_id: vec3<u32>,
        @builtin(num_workgroups) groups: vec3<u32>) {
    let idx = global_id.y * groups.x * 256u + global_id.x;
    if (idx >= params.numel) {
        return;
    }

    var rem = idx;
    var d = i32(params.offset);
    for (var k = i32(params.ndim) - 1; k >= 0; k = k - 1) {
        let n = params.shape[k];
        d = d + i32(rem % n) * params.strides[k];
        rem = rem / n;
    }
    dst[u32(d)] = params.value;
}
`
