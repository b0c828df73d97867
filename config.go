package anyrollout

import (
	"errors"
	"fmt"

	"github.com/unixpickle/essentials"
)

// Config describes the shape of a Buffer.
type Config struct {
	// NumEnvs is the number of environments written at
	// every timestep.
	NumEnvs int

	// Horizon is the number of timesteps collected per
	// environment before each training phase.
	Horizon int

	// BatchSize is the total number of samples in the
	// flattened training view.
	//
	// If 0, Horizon*NumEnvs is used.
	// Otherwise, it must equal Horizon*NumEnvs.
	BatchSize int

	// MinibatchSize is the number of samples served by
	// each call to Minibatch.
	// It must divide the batch size.
	//
	// If 0, the whole batch is one minibatch.
	MinibatchSize int

	ObsDim        int
	ActDim        int
	PrivDim       int
	PointCloudDim int

	// Composites declares extra fields which are made up
	// of several named parts.
	Composites []CompositeField
}

// A CompositeField is a named field made of several
// named sub-vectors, each with its own per-environment
// size.
type CompositeField struct {
	Name  string
	Parts []CompositePart
}

// A CompositePart is one sub-vector of a CompositeField.
type CompositePart struct {
	Name string
	Dim  int
}

// Validate checks that the configuration describes a
// usable Buffer.
func (c *Config) Validate() (err error) {
	defer essentials.AddCtxTo("validate rollout config", &err)
	dims := []struct {
		name string
		val  int
	}{
		{"NumEnvs", c.NumEnvs},
		{"Horizon", c.Horizon},
		{"ObsDim", c.ObsDim},
		{"ActDim", c.ActDim},
		{"PrivDim", c.PrivDim},
		{"PointCloudDim", c.PointCloudDim},
	}
	for _, d := range dims {
		if d.val <= 0 {
			return fmt.Errorf("%s must be positive (got %d)", d.name, d.val)
		}
	}
	if c.BatchSize < 0 || c.MinibatchSize < 0 {
		return errors.New("batch sizes must not be negative")
	}
	if c.BatchSize != 0 && c.BatchSize != c.Horizon*c.NumEnvs {
		return fmt.Errorf("batch size %d does not match horizon*envs = %d",
			c.BatchSize, c.Horizon*c.NumEnvs)
	}
	if c.batchSize()%c.minibatchSize() != 0 {
		return fmt.Errorf("minibatch size %d does not divide batch size %d",
			c.minibatchSize(), c.batchSize())
	}
	return c.validateComposites()
}

func (c *Config) validateComposites() error {
	names := map[string]bool{}
	for _, comp := range c.Composites {
		if comp.Name == "" {
			return errors.New("composite field has no name")
		}
		if names[comp.Name] {
			return fmt.Errorf("duplicate composite field: %s", comp.Name)
		}
		names[comp.Name] = true
		if len(comp.Parts) == 0 {
			return fmt.Errorf("composite field %s has no parts", comp.Name)
		}
		parts := map[string]bool{}
		for _, p := range comp.Parts {
			if parts[p.Name] {
				return fmt.Errorf("duplicate part %s in composite field %s",
					p.Name, comp.Name)
			}
			parts[p.Name] = true
			if p.Dim <= 0 {
				return fmt.Errorf("part %s of composite field %s must have positive dim",
					p.Name, comp.Name)
			}
		}
	}
	return nil
}

func (c *Config) batchSize() int {
	if c.BatchSize == 0 {
		return c.Horizon * c.NumEnvs
	}
	return c.BatchSize
}

func (c *Config) minibatchSize() int {
	if c.MinibatchSize == 0 {
		return c.batchSize()
	}
	return c.MinibatchSize
}
