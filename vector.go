package anyrollout

import (
	"fmt"

	"github.com/unixpickle/anyvec"
)

// swapLeadingAxes merges per-timestep rows, each laid out
// as [env][stride], into one vector laid out as
// [env][time][stride].
func swapLeadingAxes(rows []anyvec.Vector, numEnvs int) anyvec.Vector {
	c := rows[0].Creator()
	stride := rows[0].Len() / numEnvs
	if stride == 1 {
		joined := c.Concat(rows...)
		swapped := c.MakeVector(joined.Len())
		anyvec.Transpose(joined, swapped, len(rows))
		return swapped
	}
	parts := make([]anyvec.Vector, 0, numEnvs*len(rows))
	for env := 0; env < numEnvs; env++ {
		for _, row := range rows {
			parts = append(parts, row.Slice(env*stride, (env+1)*stride))
		}
	}
	return c.Concat(parts...)
}

// overwriteRange replaces vec[start:end] with v.
func overwriteRange(vec anyvec.Vector, start, end int, v anyvec.Vector) {
	if v.Len() != end-start {
		panic(fmt.Sprintf("length mismatch: range has %d components but got %d",
			end-start, v.Len()))
	}
	var parts []anyvec.Vector
	if start > 0 {
		parts = append(parts, vec.Slice(0, start))
	}
	parts = append(parts, v)
	if end < vec.Len() {
		parts = append(parts, vec.Slice(end, vec.Len()))
	}
	vec.Set(vec.Creator().Concat(parts...))
}

func numericToFloat(n anyvec.Numeric) float64 {
	switch n := n.(type) {
	case float32:
		return float64(n)
	case float64:
		return n
	default:
		panic(fmt.Sprintf("unsupported numeric type: %T", n))
	}
}

func vectorToComponents(vec anyvec.Vector) []float64 {
	switch data := vec.Data().(type) {
	case []float32:
		res := make([]float64, len(data))
		for i, x := range data {
			res[i] = float64(x)
		}
		return res
	case []float64:
		return data
	default:
		panic("unsupported numeric type")
	}
}

func meanComponent(vec anyvec.Vector) float64 {
	return numericToFloat(anyvec.Sum(vec)) / float64(vec.Len())
}
