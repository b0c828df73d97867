package anyrollout

import (
	"fmt"

	"github.com/unixpickle/anyvec"
	"github.com/unixpickle/essentials"
)

// A TrainingView holds the flattened samples of one
// collection cycle.
//
// Sample i corresponds to timestep i%Horizon of
// environment i/Horizon (see Buffer.SampleIndex).
// A view is invalidated by the next write to its Buffer.
type TrainingView struct {
	fields     map[Field]anyvec.Vector
	composites map[string]map[string]anyvec.Vector
	strides    map[Field]int
	numSamples int
}

// Field returns the flattened vector for a field.
// The result is shared with the view.
func (t *TrainingView) Field(f Field) anyvec.Vector {
	vec, ok := t.fields[f]
	if !ok {
		panic("field not in training view: " + f.String())
	}
	return vec
}

// Composite returns the flattened vector for one part of a
// composite field.
// The result is shared with the view.
func (t *TrainingView) Composite(name, part string) anyvec.Vector {
	vec, ok := t.composites[name][part]
	if !ok {
		panic(fmt.Sprintf("composite %s.%s not in training view", name, part))
	}
	return vec
}

// NumSamples returns the number of flattened samples.
func (t *TrainingView) NumSamples() int {
	return t.numSamples
}

// A Minibatch is a contiguous range of samples from a
// TrainingView.
// Every vector is a copy laid out as [sample][trailing].
type Minibatch struct {
	Start int
	End   int

	Values       anyvec.Vector
	NegLogProbs  anyvec.Vector
	Advantages   anyvec.Vector
	ActionMeans  anyvec.Vector
	ActionStds   anyvec.Vector
	Returns      anyvec.Vector
	Actions      anyvec.Vector
	Observations anyvec.Vector
	PrivInfo     anyvec.Vector
	PointClouds  anyvec.Vector

	// Composites maps composite field names to their
	// parts.
	Composites map[string]map[string]anyvec.Vector
}

// Size returns the number of samples in the minibatch.
func (m *Minibatch) Size() int {
	return m.End - m.Start
}

// Tensors returns the vectors of the minibatch in a fixed
// order: values, neg-log-probs, advantages, action means,
// action stds, returns, actions, observations, privileged
// info, and point clouds.
func (m *Minibatch) Tensors() []anyvec.Vector {
	return []anyvec.Vector{
		m.Values,
		m.NegLogProbs,
		m.Advantages,
		m.ActionMeans,
		m.ActionStds,
		m.Returns,
		m.Actions,
		m.Observations,
		m.PrivInfo,
		m.PointClouds,
	}
}

func (m *Minibatch) field(f Field) *anyvec.Vector {
	switch f {
	case Value:
		return &m.Values
	case NegLogProb:
		return &m.NegLogProbs
	case Advantage:
		return &m.Advantages
	case ActionMean:
		return &m.ActionMeans
	case ActionStd:
		return &m.ActionStds
	case Return:
		return &m.Returns
	case Action:
		return &m.Actions
	case Observation:
		return &m.Observations
	case PrivInfo:
		return &m.PrivInfo
	case PointCloud:
		return &m.PointClouds
	default:
		panic("field not in minibatch: " + f.String())
	}
}

// PrepareTraining flattens the time and environment axes
// of every field and computes normalized advantages.
//
// It must be called after ComputeReturns.
// The result replaces any previous training view.
func (b *Buffer) PrepareTraining() *TrainingView {
	if b.phase == phaseCollecting {
		panic("PrepareTraining called before ComputeReturns")
	}

	view := &TrainingView{
		fields:     map[Field]anyvec.Vector{},
		composites: map[string]map[string]anyvec.Vector{},
		strides:    map[Field]int{},
		numSamples: b.config.BatchSize,
	}
	for i, rows := range b.fields {
		f := Field(i)
		view.fields[f] = swapLeadingAxes(rows, b.config.NumEnvs)
		view.strides[f] = b.config.trailingSize(f)
	}
	for _, name := range b.compositeNames() {
		parts := map[string]anyvec.Vector{}
		for partName, rows := range b.composites[name].parts {
			parts[partName] = swapLeadingAxes(rows, b.config.NumEnvs)
		}
		view.composites[name] = parts
	}

	advantages := view.fields[Return].Copy()
	advantages.Sub(view.fields[Value])
	mean, std := normalizeAdvantages(advantages)
	view.fields[Advantage] = advantages
	view.strides[Advantage] = 1

	b.view = view
	b.active = nil
	b.phase = phaseTraining

	if b.Logger != nil {
		b.Logger.LogAdvantages(mean, std)
	}
	return view
}

// View returns the current training view, or nil if
// PrepareTraining has not been called this cycle.
func (b *Buffer) View() *TrainingView {
	return b.view
}

// Minibatch returns the i-th contiguous minibatch of the
// training view and marks its range as active for
// UpdateDistParams.
func (b *Buffer) Minibatch(i int) *Minibatch {
	if b.view == nil {
		panic("Minibatch called before PrepareTraining")
	}
	if i < 0 || i >= b.NumMinibatches() {
		panic(fmt.Sprintf("minibatch %d out of range [0, %d)", i, b.NumMinibatches()))
	}
	size := b.config.MinibatchSize
	r := sampleRange{Start: i * size, End: (i + 1) * size}

	mb := &Minibatch{
		Start:      r.Start,
		End:        r.End,
		Composites: map[string]map[string]anyvec.Vector{},
	}
	for _, f := range minibatchFields {
		stride := b.view.strides[f]
		*mb.field(f) = b.view.fields[f].Slice(r.Start*stride, r.End*stride).Copy()
	}
	for name, parts := range b.view.composites {
		mbParts := map[string]anyvec.Vector{}
		for partName, vec := range parts {
			stride := b.composites[name].dims[partName]
			mbParts[partName] = vec.Slice(r.Start*stride, r.End*stride).Copy()
		}
		mb.Composites[name] = mbParts
	}

	b.active = &r
	return mb
}

// UpdateDistParams overwrites the action means and
// standard deviations of the most recently returned
// minibatch in the training view.
//
// It panics if no minibatch has been returned since the
// training view was prepared.
func (b *Buffer) UpdateDistParams(mean, std anyvec.Vector) {
	if b.active == nil {
		panic("UpdateDistParams called before Minibatch")
	}
	stride := b.config.ActDim
	start, end := b.active.Start*stride, b.active.End*stride
	overwriteRange(b.view.fields[ActionMean], start, end, mean)
	overwriteRange(b.view.fields[ActionStd], start, end, std)
}

// ForEachMinibatch calls f with every minibatch listed in
// order, stopping at the first error.
//
// The order is typically 0, 1, ..., Len()-1 or a random
// permutation thereof.
func (b *Buffer) ForEachMinibatch(order []int, f func(mb *Minibatch) error) error {
	for _, i := range order {
		if err := f(b.Minibatch(i)); err != nil {
			return essentials.AddCtx(fmt.Sprintf("minibatch %d", i), err)
		}
	}
	return nil
}

// SequentialOrder returns the minibatch indices
// 0, 1, ..., Len()-1.
func (b *Buffer) SequentialOrder() []int {
	res := make([]int, b.NumMinibatches())
	for i := range res {
		res[i] = i
	}
	return res
}
