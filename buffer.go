package anyrollout

import (
	"fmt"
	"sort"

	"github.com/unixpickle/anyvec"
)

type phase int

const (
	phaseCollecting phase = iota
	phaseReturns
	phaseTraining
)

// A sampleRange is a half-open range of flattened sample
// indices.
type sampleRange struct {
	Start int
	End   int
}

// A Buffer stores one horizon of transitions from a batch
// of environments.
//
// Storage is allocated once by NewBuffer and overwritten
// every collection cycle.
// A Buffer is not safe for concurrent use.
type Buffer struct {
	// Logger, if non-nil, is used to report statistics
	// about returns and advantages.
	Logger Logger

	creator anyvec.Creator
	config  Config

	// fields[f][t] is the row for timestep t, laid out
	// as [env][trailing].
	fields     [numStoredFields][]anyvec.Vector
	composites map[string]*compositeStore

	phase  phase
	view   *TrainingView
	active *sampleRange
}

type compositeStore struct {
	dims  map[string]int
	parts map[string][]anyvec.Vector
}

// NewBuffer allocates a zeroed Buffer.
//
// It panics if the config is invalid.
func NewBuffer(c anyvec.Creator, cfg *Config) *Buffer {
	if err := cfg.Validate(); err != nil {
		panic(err)
	}
	b := &Buffer{
		creator:    c,
		config:     *cfg,
		composites: map[string]*compositeStore{},
	}
	b.config.BatchSize = cfg.batchSize()
	b.config.MinibatchSize = cfg.minibatchSize()
	for i := range b.fields {
		b.fields[i] = b.makeRows(cfg.trailingSize(Field(i)))
	}
	for _, comp := range cfg.Composites {
		store := &compositeStore{
			dims:  map[string]int{},
			parts: map[string][]anyvec.Vector{},
		}
		for _, p := range comp.Parts {
			store.dims[p.Name] = p.Dim
			store.parts[p.Name] = b.makeRows(p.Dim)
		}
		b.composites[comp.Name] = store
	}
	return b
}

func (b *Buffer) makeRows(trailing int) []anyvec.Vector {
	rows := make([]anyvec.Vector, b.config.Horizon)
	for t := range rows {
		rows[t] = b.creator.MakeVector(b.config.NumEnvs * trailing)
	}
	return rows
}

// Creator returns the creator used for all storage.
func (b *Buffer) Creator() anyvec.Creator {
	return b.creator
}

// Config returns the buffer's configuration with default
// values filled in.
func (b *Buffer) Config() Config {
	return b.config
}

// NumMinibatches returns the number of minibatches in one
// pass over the training data.
func (b *Buffer) NumMinibatches() int {
	return b.config.BatchSize / b.config.MinibatchSize
}

// Len is equivalent to NumMinibatches.
func (b *Buffer) Len() int {
	return b.NumMinibatches()
}

// Write stores the row for timestep t of a field.
// The row must contain the data of every environment.
//
// Writing after returns have been computed starts a new
// collection cycle and discards the training view.
func (b *Buffer) Write(f Field, t int, v anyvec.Vector) {
	if !f.stored() {
		panic("cannot write field: " + f.String())
	}
	b.checkTime(t)
	expected := b.config.NumEnvs * b.config.trailingSize(f)
	if v.Len() != expected {
		panic(fmt.Sprintf("bad %s row length: expected %d but got %d", f,
			expected, v.Len()))
	}
	if f == Done {
		for _, x := range vectorToComponents(v) {
			if x != 0 && x != 1 {
				panic(fmt.Sprintf("done flags must be 0 or 1 (got %f)", x))
			}
		}
	}
	b.startCycle()
	b.fields[f][t].Set(v)
}

// WriteDones stores the termination flags for timestep t.
func (b *Buffer) WriteDones(t int, dones []bool) {
	vals := make([]float64, len(dones))
	for i, d := range dones {
		if d {
			vals[i] = 1
		}
	}
	b.Write(Done, t, b.creator.MakeVectorData(b.creator.MakeNumericList(vals)))
}

// WriteComposite stores timestep t for some or all of the
// parts of a composite field.
func (b *Buffer) WriteComposite(name string, t int, parts map[string]anyvec.Vector) {
	store, ok := b.composites[name]
	if !ok {
		panic("unknown composite field: " + name)
	}
	b.checkTime(t)
	for partName, v := range parts {
		dim, ok := store.dims[partName]
		if !ok {
			panic(fmt.Sprintf("unknown part %s of composite field %s", partName, name))
		}
		if v.Len() != b.config.NumEnvs*dim {
			panic(fmt.Sprintf("bad %s.%s row length: expected %d but got %d",
				name, partName, b.config.NumEnvs*dim, v.Len()))
		}
	}
	b.startCycle()
	for partName, v := range parts {
		store.parts[partName][t].Set(v)
	}
}

// Stored returns a copy of the row for timestep t of a
// field.
//
// The Return field may only be read once ComputeReturns
// has run for the current cycle.
func (b *Buffer) Stored(f Field, t int) anyvec.Vector {
	if !f.stored() {
		panic("field has no storage: " + f.String())
	}
	if f == Return && b.phase == phaseCollecting {
		panic("returns read before ComputeReturns")
	}
	b.checkTime(t)
	return b.fields[f][t].Copy()
}

// StoredComposite returns a copy of the row for timestep t
// of one part of a composite field.
func (b *Buffer) StoredComposite(name, part string, t int) anyvec.Vector {
	store, ok := b.composites[name]
	if !ok {
		panic("unknown composite field: " + name)
	}
	rows, ok := store.parts[part]
	if !ok {
		panic(fmt.Sprintf("unknown part %s of composite field %s", part, name))
	}
	b.checkTime(t)
	return rows[t].Copy()
}

// SampleIndex returns the flattened sample index which the
// training view uses for timestep t of environment env.
func (b *Buffer) SampleIndex(t, env int) int {
	b.checkTime(t)
	if env < 0 || env >= b.config.NumEnvs {
		panic(fmt.Sprintf("environment %d out of range [0, %d)", env,
			b.config.NumEnvs))
	}
	return env*b.config.Horizon + t
}

// SampleCoords is the inverse of SampleIndex.
func (b *Buffer) SampleCoords(i int) (t, env int) {
	if i < 0 || i >= b.config.BatchSize {
		panic(fmt.Sprintf("sample %d out of range [0, %d)", i, b.config.BatchSize))
	}
	return i % b.config.Horizon, i / b.config.Horizon
}

func (b *Buffer) checkTime(t int) {
	if t < 0 || t >= b.config.Horizon {
		panic(fmt.Sprintf("timestep %d out of range [0, %d)", t, b.config.Horizon))
	}
}

func (b *Buffer) startCycle() {
	if b.phase != phaseCollecting {
		b.phase = phaseCollecting
		b.view = nil
		b.active = nil
	}
}

func (b *Buffer) compositeNames() []string {
	names := make([]string, 0, len(b.composites))
	for name := range b.composites {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
