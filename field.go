package anyrollout

import "fmt"

// A Field identifies one kind of per-timestep data stored
// in a Buffer.
type Field int

const (
	Observation Field = iota
	PrivInfo
	PointCloud
	Reward
	Value
	NegLogProb
	Done
	Action
	ActionMean
	ActionStd
	Return

	// Advantage only exists in a TrainingView.
	// It cannot be written or read from storage.
	Advantage

	numStoredFields = int(Advantage)
)

var fieldNames = [...]string{
	"observation",
	"priv_info",
	"point_cloud",
	"reward",
	"value",
	"neg_log_prob",
	"done",
	"action",
	"action_mean",
	"action_std",
	"return",
	"advantage",
}

// String returns the name of the field.
func (f Field) String() string {
	if f < 0 || int(f) >= len(fieldNames) {
		return fmt.Sprintf("Field(%d)", int(f))
	}
	return fieldNames[f]
}

// stored reports whether the field has per-timestep
// storage.
func (f Field) stored() bool {
	return f >= 0 && int(f) < numStoredFields
}

// trailingSize computes the number of components each
// environment contributes to one timestep of f.
func (c *Config) trailingSize(f Field) int {
	switch f {
	case Observation:
		return c.ObsDim
	case PrivInfo:
		return c.PrivDim
	case PointCloud:
		return c.PointCloudDim * 3
	case Action, ActionMean, ActionStd:
		return c.ActDim
	case Reward, Value, NegLogProb, Done, Return, Advantage:
		return 1
	default:
		panic("unknown field: " + f.String())
	}
}

// minibatchFields lists the fields a Minibatch carries, in
// the order returned by Minibatch.Tensors.
var minibatchFields = []Field{
	Value,
	NegLogProb,
	Advantage,
	ActionMean,
	ActionStd,
	Return,
	Action,
	Observation,
	PrivInfo,
	PointCloud,
}
