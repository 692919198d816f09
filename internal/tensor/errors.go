package tensor

import "github.com/pkg/errors"

// Error kinds reported by the engine and its backends.
// Match them with errors.Is; the returned errors carry call-site context.
var (
	// ErrAllocation reports that a device could not provide the requested memory.
	ErrAllocation = errors.New("allocation failure")

	// ErrLayout reports a violated layout precondition, such as a view
	// requested on a non-contiguous array.
	ErrLayout = errors.New("layout precondition failed")

	// ErrShapeMismatch reports operands whose shapes or element counts disagree.
	ErrShapeMismatch = errors.New("shape mismatch")

	// ErrUnsupportedTransfer reports a device combination other than host <-> accelerator
	// or the same accelerator on both sides.
	ErrUnsupportedTransfer = errors.New("unsupported transfer")

	// ErrNotImplementedDType reports a data type outside the supported enumeration.
	ErrNotImplementedDType = errors.New("not implemented data type")
)
