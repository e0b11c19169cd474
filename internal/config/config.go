// Package config handles simulation scene configuration loading and saving.
package config

import (
	"errors"
	"fmt"

	"github.com/go-gl/mathgl/mgl64"
)

// Config holds a scene: the cloth, the rigid bodies it falls on, how to step
// it and where to write the results.
type Config struct {
	Cloth   ClothConfig   `yaml:"cloth"`
	Solver  SolverConfig  `yaml:"solver"`
	World   WorldConfig   `yaml:"world"`
	Output  OutputConfig  `yaml:"output"`
	Logging LoggingConfig `yaml:"logging"`
}

// Vec is a 3-vector written as a YAML sequence.
type Vec [3]float64

func (v Vec) Vec3() mgl64.Vec3 {
	return mgl64.Vec3(v)
}

// Pin modes
const (
	PinNone    = "none"
	PinCorners = "corners"
	PinEdge    = "edge"
)

// ClothConfig describes a rectangular grid cloth.
type ClothConfig struct {
	Width   int     `yaml:"width"`  // cells along X
	Height  int     `yaml:"height"` // cells along Z
	Spacing float64 `yaml:"spacing"`
	Origin  Vec     `yaml:"origin"`

	Density             float64 `yaml:"density"`
	StructuralStiffness float64 `yaml:"structural_stiffness"`
	BendingStiffness    float64 `yaml:"bending_stiffness"`
	Damping             float64 `yaml:"damping"`
	Friction            float64 `yaml:"friction"`
	Radius              float64 `yaml:"radius"`

	// Pin is one of none, corners (the two far corners) or edge (the far row)
	Pin string `yaml:"pin"`
}

// SolverConfig holds stepping settings.
type SolverConfig struct {
	TimeStep           float64 `yaml:"time_step"`
	Steps              int     `yaml:"steps"`
	Gravity            Vec     `yaml:"gravity"`
	MaxIterations      int     `yaml:"max_iterations"`
	Tolerance          float64 `yaml:"tolerance"`
	Workers            int     `yaml:"workers"`
	VelocityIterations int     `yaml:"velocity_iterations"`
	PositionIterations int     `yaml:"position_iterations"`
}

// WorldConfig lists the static bodies of the scene.
type WorldConfig struct {
	CellSize float64        `yaml:"cell_size"`
	Planes   []PlaneConfig  `yaml:"planes"`
	Spheres  []SphereConfig `yaml:"spheres"`
	Boxes    []BoxConfig    `yaml:"boxes"`
}

type PlaneConfig struct {
	Point    Vec     `yaml:"point"`
	Normal   Vec     `yaml:"normal"`
	Friction float64 `yaml:"friction"`
}

type SphereConfig struct {
	Center   Vec     `yaml:"center"`
	Radius   float64 `yaml:"radius"`
	Friction float64 `yaml:"friction"`
}

type BoxConfig struct {
	Center      Vec     `yaml:"center"`
	HalfExtents Vec     `yaml:"half_extents"`
	Friction    float64 `yaml:"friction"`
}

// OutputConfig holds snapshot settings. An empty Snapshot disables it.
type OutputConfig struct {
	Snapshot    string `yaml:"snapshot"`
	Width       int    `yaml:"width"`
	Height      int    `yaml:"height"`
	Supersample int    `yaml:"supersample"`
	// View is front (XY plane) or top (XZ plane)
	View string `yaml:"view"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	LogFile string `yaml:"log_file"`
	Console bool   `yaml:"console"`
}

// Default returns a 16x16 cloth pinned along one edge, falling onto a sphere
// resting above the ground.
func Default() *Config {
	return &Config{
		Cloth: ClothConfig{
			Width:               16,
			Height:              16,
			Spacing:             0.125,
			Origin:              Vec{-1, 2, -1},
			Density:             0.2,
			StructuralStiffness: 10000,
			BendingStiffness:    1000,
			Damping:             0,
			Friction:            0.5,
			Radius:              0.05,
			Pin:                 PinNone,
		},
		Solver: SolverConfig{
			TimeStep:           1.0 / 60.0,
			Steps:              120,
			Gravity:            Vec{0, -9.8, 0},
			MaxIterations:      100,
			Tolerance:          1e-4,
			Workers:            1,
			VelocityIterations: 8,
			PositionIterations: 2,
		},
		World: WorldConfig{
			CellSize: 1,
			Planes: []PlaneConfig{
				{Point: Vec{0, 0, 0}, Normal: Vec{0, 1, 0}, Friction: 0.6},
			},
			Spheres: []SphereConfig{
				{Center: Vec{0, 0.75, 0}, Radius: 0.75, Friction: 0.4},
			},
		},
		Output: OutputConfig{
			Snapshot:    "",
			Width:       512,
			Height:      512,
			Supersample: 2,
			View:        "front",
		},
		Logging: LoggingConfig{
			Level:   "info",
			LogFile: "",
			Console: true,
		},
	}
}

var ErrInvalid = errors.New("invalid config")

// Validate reports the first setting the simulation cannot run with.
func (c *Config) Validate() error {
	switch {
	case c.Cloth.Width < 1 || c.Cloth.Height < 1:
		return fmt.Errorf("%w: cloth grid %dx%d", ErrInvalid, c.Cloth.Width, c.Cloth.Height)
	case c.Cloth.Spacing <= 0:
		return fmt.Errorf("%w: cloth spacing %v", ErrInvalid, c.Cloth.Spacing)
	case c.Cloth.Pin != PinNone && c.Cloth.Pin != PinCorners && c.Cloth.Pin != PinEdge && c.Cloth.Pin != "":
		return fmt.Errorf("%w: pin mode %q", ErrInvalid, c.Cloth.Pin)
	case c.Solver.TimeStep < 0:
		return fmt.Errorf("%w: time step %v", ErrInvalid, c.Solver.TimeStep)
	case c.Solver.Steps < 0:
		return fmt.Errorf("%w: step count %d", ErrInvalid, c.Solver.Steps)
	case c.Output.Snapshot != "" && (c.Output.Width < 1 || c.Output.Height < 1):
		return fmt.Errorf("%w: snapshot size %dx%d", ErrInvalid, c.Output.Width, c.Output.Height)
	}

	for i, p := range c.World.Planes {
		if p.Normal.Vec3().Len() == 0 {
			return fmt.Errorf("%w: plane %d has a zero normal", ErrInvalid, i)
		}
	}
	for i, s := range c.World.Spheres {
		if s.Radius <= 0 {
			return fmt.Errorf("%w: sphere %d radius %v", ErrInvalid, i, s.Radius)
		}
	}
	for i, b := range c.World.Boxes {
		if b.HalfExtents[0] <= 0 || b.HalfExtents[1] <= 0 || b.HalfExtents[2] <= 0 {
			return fmt.Errorf("%w: box %d half extents %v", ErrInvalid, i, b.HalfExtents)
		}
	}

	return nil
}
