package anyrollout

import (
	"math"
	"math/rand"
	"testing"

	"github.com/unixpickle/anyvec"
	"github.com/unixpickle/anyvec/anyvec64"
)

func TestComputeReturnsTerminalHorizon(t *testing.T) {
	c := anyvec64.DefaultCreator{}
	b := NewBuffer(c, testConfig())
	for step := 0; step < 4; step++ {
		b.Write(Reward, step, c.MakeVectorData([]float64{1, 1}))
		b.Write(Value, step, c.MakeVector(2))
		b.WriteDones(step, []bool{step == 3, step == 3})
	}
	b.ComputeReturns(c.MakeVector(2), 0.99, 0.95)

	expected := []float64{1, 0, 0, 0}
	for step := 2; step >= 0; step-- {
		expected[step] = 1 + 0.99*0.95*expected[step+1]
	}
	for step, x := range expected {
		testVectorsClose(t, "return", b.Stored(Return, step), []float64{x, x})
	}

	first := b.Stored(Return, 0).Data().([]float64)
	last := b.Stored(Return, 3).Data().([]float64)
	for env := range first {
		if last[env] != 1 {
			t.Errorf("env %d: terminal return should be 1 but got %f", env, last[env])
		}
		if first[env] <= last[env] {
			t.Errorf("env %d: expected earlier return to be larger", env)
		}
	}
}

func TestComputeReturnsAllDone(t *testing.T) {
	c := anyvec64.DefaultCreator{}
	b := NewBuffer(c, testConfig())
	rewards, values := randomRows(c, b), randomRows(c, b)
	for step := 0; step < 4; step++ {
		b.Write(Reward, step, rewards[step])
		b.Write(Value, step, values[step])
		b.WriteDones(step, []bool{true, true})
	}
	b.ComputeReturns(c.MakeVectorData([]float64{5, -5}), 0.9, 0.8)

	for step := 0; step < 4; step++ {
		adv := b.Stored(Return, step)
		adv.Sub(values[step])
		testVectorsClose(t, "advantage", adv, rewards[step].Data().([]float64))
	}
}

func TestComputeReturnsTD(t *testing.T) {
	c := anyvec64.DefaultCreator{}
	b := NewBuffer(c, testConfig())
	rewards, values := randomRows(c, b), randomRows(c, b)
	dones := [][]bool{{false, false}, {true, false}, {false, true}, {false, false}}
	for step := 0; step < 4; step++ {
		b.Write(Reward, step, rewards[step])
		b.Write(Value, step, values[step])
		b.WriteDones(step, dones[step])
	}
	bootstrap := []float64{0.5, -0.25}
	gamma := 0.97
	b.ComputeReturns(c.MakeVectorData(bootstrap), gamma, 0)

	for step := 0; step < 4; step++ {
		r := rewards[step].Data().([]float64)
		v := values[step].Data().([]float64)
		next := bootstrap
		if step < 3 {
			next = values[step+1].Data().([]float64)
		}
		expected := make([]float64, 2)
		for env := range expected {
			nonterminal := 1.0
			if dones[step][env] {
				nonterminal = 0
			}
			expected[env] = r[env] + gamma*next[env]*nonterminal - v[env]
		}
		adv := b.Stored(Return, step)
		adv.Sub(values[step])
		testVectorsClose(t, "td residual", adv, expected)
	}
}

func TestComputeReturnsMatchesEpisodeGAE(t *testing.T) {
	c := anyvec64.DefaultCreator{}
	b := NewBuffer(c, testConfig())
	rewards, values := randomRows(c, b), randomRows(c, b)
	for step := 0; step < 4; step++ {
		b.Write(Reward, step, rewards[step])
		b.Write(Value, step, values[step])
		b.WriteDones(step, []bool{step == 1, false})
	}
	bootstrap := []float64{0.3, 0.7}
	gamma, tau := 0.95, 0.9
	b.ComputeReturns(c.MakeVectorData(bootstrap), gamma, tau)

	for env := 0; env < 2; env++ {
		var accumulation float64
		expected := make([]float64, 4)
		for step := 3; step >= 0; step-- {
			next := bootstrap[env]
			if step < 3 {
				next = values[step+1].Data().([]float64)[env]
			}
			if env == 0 && step == 1 {
				next, accumulation = 0, 0
			}
			delta := rewards[step].Data().([]float64)[env] + gamma*next -
				values[step].Data().([]float64)[env]
			accumulation = delta + gamma*tau*accumulation
			expected[step] = accumulation
		}
		for step, x := range expected {
			actual := b.Stored(Return, step).Data().([]float64)[env] -
				values[step].Data().([]float64)[env]
			if math.Abs(actual-x) > 1e-4 {
				t.Errorf("env %d step %d: expected %f but got %f", env, step, x, actual)
			}
		}
	}
}

func TestComputeReturnsPreconditions(t *testing.T) {
	c := anyvec64.DefaultCreator{}
	b := NewBuffer(c, testConfig())
	testPanics(t, "bootstrap length", func() {
		b.ComputeReturns(c.MakeVector(3), 0.99, 0.95)
	})
	testPanics(t, "gamma range", func() {
		b.ComputeReturns(c.MakeVector(2), 1.5, 0.95)
	})
	testPanics(t, "tau range", func() {
		b.ComputeReturns(c.MakeVector(2), 0.99, -0.1)
	})
}

func TestComputeReturnsLogs(t *testing.T) {
	c := anyvec64.DefaultCreator{}
	b := NewBuffer(c, testConfig())
	logger := &recordingLogger{}
	b.Logger = logger
	for step := 0; step < 4; step++ {
		b.Write(Reward, step, c.MakeVectorData([]float64{2, 2}))
		b.WriteDones(step, []bool{true, true})
	}
	b.ComputeReturns(c.MakeVector(2), 0.99, 0.95)
	if len(logger.returns) != 1 || math.Abs(logger.returns[0]-2) > 1e-8 {
		t.Errorf("unexpected logged returns: %v", logger.returns)
	}
}

type recordingLogger struct {
	returns    []float64
	advantages [][2]float64
}

func (r *recordingLogger) LogReturns(meanReturn float64) {
	r.returns = append(r.returns, meanReturn)
}

func (r *recordingLogger) LogAdvantages(mean, std float64) {
	r.advantages = append(r.advantages, [2]float64{mean, std})
}

func randomRows(c anyvec.Creator, b *Buffer) []anyvec.Vector {
	rows := make([]anyvec.Vector, b.Config().Horizon)
	for i := range rows {
		data := make([]float64, b.Config().NumEnvs)
		for j := range data {
			data[j] = rand.NormFloat64()
		}
		rows[i] = c.MakeVectorData(c.MakeNumericList(data))
	}
	return rows
}
