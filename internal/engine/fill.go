package engine

import (
	"github.com/pkg/errors"

	"github.com/born-ml/strider/internal/tensor"
)

// Fill writes value, converted to a's data type, to every element of a.
// Strides and offset of a are honored, so filling a view writes through to
// every array sharing its storage.
func (e *Engine) Fill(a *tensor.RawTensor, value float64) error {
	if err := e.fill(a, value); err != nil {
		return err
	}
	return e.syncIfRequired(a.Device())
}

// Zero sets every element of a to zero. Unlike Fill it never waits on the queue.
func (e *Engine) Zero(a *tensor.RawTensor) error {
	return e.fill(a, 0)
}

func (e *Engine) fill(a *tensor.RawTensor, value float64) error {
	if err := checkStorage(a, "fill"); err != nil {
		return err
	}
	if a.Device().IsHost() {
		return errors.WithMessage(e.host.Fill(nil, a, value), "fill")
	}
	b, q, err := e.device(a.Device())
	if err != nil {
		return err
	}
	return errors.WithMessagef(b.Fill(q, a, value), "fill %v on %s", a.Shape(), a.Device())
}
