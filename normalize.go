package anyrollout

import (
	"math"

	"github.com/unixpickle/anyvec"
)

// AdvantageEpsilon is added to the standard deviation of
// the advantages before dividing by it.
const AdvantageEpsilon = 1e-8

// normalizeAdvantages shifts and scales the vector in
// place so that it has mean 0 and standard deviation 1.
//
// The standard deviation uses Bessel's correction.
// A single sample is treated as having a deviation of 0.
func normalizeAdvantages(adv anyvec.Vector) (mean, std float64) {
	c := adv.Creator()
	n := adv.Len()

	mean = meanComponent(adv)
	adv.AddScalar(c.MakeNumeric(-mean))

	if n > 1 {
		sq := adv.Copy()
		sq.Mul(adv)
		std = math.Sqrt(numericToFloat(anyvec.Sum(sq)) / float64(n-1))
	}

	adv.Scale(c.MakeNumeric(1 / (std + AdvantageEpsilon)))
	return
}
