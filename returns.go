package anyrollout

import (
	"fmt"

	"github.com/unixpickle/anyvec"
)

// ComputeReturns fills the Return field using Generalized
// Advantage Estimation.
//
// The bootstrap vector holds one value estimate per
// environment for the state after the last timestep.
// Gamma is the reward discount factor and tau is the GAE
// coefficient (0 = one-step TD residuals).
//
// A done flag at timestep t stops both the bootstrapped
// value and the accumulated advantage from flowing back
// across the end of that episode.
func (b *Buffer) ComputeReturns(bootstrap anyvec.Vector, gamma, tau float64) {
	if bootstrap.Len() != b.config.NumEnvs {
		panic(fmt.Sprintf("bootstrap should have %d values but has %d",
			b.config.NumEnvs, bootstrap.Len()))
	}
	if gamma < 0 || gamma > 1 || tau < 0 || tau > 1 {
		panic(fmt.Sprintf("gamma and tau must be in [0, 1] (got %f, %f)", gamma, tau))
	}

	c := b.creator
	rewards := b.fields[Reward]
	values := b.fields[Value]
	dones := b.fields[Done]
	returns := b.fields[Return]

	accumulation := c.MakeVector(b.config.NumEnvs)
	for t := b.config.Horizon - 1; t >= 0; t-- {
		var nextValues anyvec.Vector
		if t == b.config.Horizon-1 {
			nextValues = bootstrap.Copy()
		} else {
			nextValues = values[t+1].Copy()
		}

		nonterminal := dones[t].Copy()
		nonterminal.Scale(c.MakeNumeric(-1))
		nonterminal.AddScalar(c.MakeNumeric(1))

		delta := nextValues
		delta.Mul(nonterminal)
		delta.Scale(c.MakeNumeric(gamma))
		delta.Add(rewards[t])
		delta.Sub(values[t])

		accumulation.Mul(nonterminal)
		accumulation.Scale(c.MakeNumeric(gamma * tau))
		accumulation.Add(delta)

		returns[t].Set(accumulation)
		returns[t].Add(values[t])
	}

	b.phase = phaseReturns
	b.view = nil
	b.active = nil

	if b.Logger != nil {
		var total float64
		for _, row := range returns {
			total += numericToFloat(anyvec.Sum(row))
		}
		b.Logger.LogReturns(total / float64(b.config.BatchSize))
	}
}
