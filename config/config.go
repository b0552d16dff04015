// Package config provides YAML run configuration of the cart pendulum simulation.
package config

import (
	"fmt"
	"math"
	"os"

	cartpole "github.com/milosgajdos/go-cartpole"
	"github.com/milosgajdos/go-cartpole/control"
	"github.com/milosgajdos/go-cartpole/noise"
	"github.com/milosgajdos/go-cartpole/pendulum"
	"github.com/milosgajdos/go-cartpole/sim"
	"gonum.org/v1/gonum/mat"
	"gopkg.in/yaml.v3"
)

const (
	DefaultDt    = 0.01
	DefaultSteps = 10000
	DefaultTheta = 0.01
	DefaultR     = 1.0
)

// Controller types
const (
	ControllerNone     = "none"
	ControllerFeedback = "feedback"
	ControllerLQR      = "lqr"
)

// Config is the simulation run configuration
type Config struct {
	Params     ParamsConfig     `yaml:"params"`
	Scheme     string           `yaml:"scheme"`
	Dt         float64          `yaml:"dt"`
	Steps      int              `yaml:"steps"`
	InitState  InitStateConfig  `yaml:"init_state"`
	Controller ControllerConfig `yaml:"controller"`
	Noise      NoiseConfig      `yaml:"noise"`
}

type ParamsConfig struct {
	CartMass       float64 `yaml:"cart_mass"`
	PendulumMass   float64 `yaml:"pendulum_mass"`
	PendulumLength float64 `yaml:"pendulum_length"`
	Viscosity      float64 `yaml:"viscosity"`
}

type InitStateConfig struct {
	X        float64 `yaml:"x"`
	Theta    float64 `yaml:"theta"`
	XDot     float64 `yaml:"x_dot"`
	ThetaDot float64 `yaml:"theta_dot"`
}

// ControllerConfig configures the force controller.
// Gains are used by the feedback controller, Q and R by LQR.
// Q holds the diagonal of the state weight matrix.
type ControllerConfig struct {
	Type  string    `yaml:"type"`
	Gains []float64 `yaml:"gains,omitempty"`
	Limit float64   `yaml:"limit,omitempty"`
	Q     []float64 `yaml:"q,omitempty"`
	R     float64   `yaml:"r,omitempty"`
}

// NoiseConfig configures Gaussian force disturbance; zero Std disables it
type NoiseConfig struct {
	Std  float64 `yaml:"std"`
	Seed uint64  `yaml:"seed"`
}

// DefaultConfig returns configuration of the free falling pendulum experiment
func DefaultConfig() *Config {
	p := pendulum.DefaultParams()

	return &Config{
		Params: ParamsConfig{
			CartMass:       p.CartMass,
			PendulumMass:   p.PendulumMass,
			PendulumLength: p.PendulumLength,
			Viscosity:      p.Viscosity,
		},
		Scheme: pendulum.SemiImplicitEuler.String(),
		Dt:     DefaultDt,
		Steps:  DefaultSteps,
		InitState: InitStateConfig{
			Theta: DefaultTheta,
		},
		Controller: ControllerConfig{
			Type: ControllerNone,
		},
	}
}

// Load reads configuration from the YAML file stored in path.
// Fields missing in the file keep their default values.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %v", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Save writes cfg as YAML into path
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

// Validate checks the configuration is consistent
func (c *Config) Validate() error {
	if !(c.Dt > 0) || math.IsInf(c.Dt, 0) {
		return fmt.Errorf("invalid time step: %g", c.Dt)
	}

	if c.Steps <= 0 {
		return fmt.Errorf("invalid number of steps: %d", c.Steps)
	}

	if _, err := pendulum.ParseScheme(c.Scheme); err != nil {
		return err
	}

	switch c.Controller.Type {
	case "", ControllerNone:
	case ControllerFeedback:
		if len(c.Controller.Gains) != pendulum.StateDim {
			return fmt.Errorf("invalid number of feedback gains: %d", len(c.Controller.Gains))
		}
	case ControllerLQR:
		if len(c.Controller.Q) != 0 && len(c.Controller.Q) != pendulum.StateDim {
			return fmt.Errorf("invalid number of state weights: %d", len(c.Controller.Q))
		}
		if c.Controller.R < 0 {
			return fmt.Errorf("invalid input weight: %g", c.Controller.R)
		}
	default:
		return fmt.Errorf("unsupported controller: %s", c.Controller.Type)
	}

	if c.Controller.Limit < 0 {
		return fmt.Errorf("invalid force limit: %g", c.Controller.Limit)
	}

	if c.Noise.Std < 0 {
		return fmt.Errorf("invalid noise standard deviation: %g", c.Noise.Std)
	}

	return nil
}

// PendulumParams returns pendulum parameters
func (c *Config) PendulumParams() (pendulum.Params, error) {
	scheme, err := pendulum.ParseScheme(c.Scheme)
	if err != nil {
		return pendulum.Params{}, err
	}

	return pendulum.Params{
		CartMass:       c.Params.CartMass,
		PendulumMass:   c.Params.PendulumMass,
		PendulumLength: c.Params.PendulumLength,
		Viscosity:      c.Params.Viscosity,
		Scheme:         scheme,
	}, nil
}

// GetInitState returns initial pendulum state
func (c *Config) GetInitState() pendulum.State {
	return pendulum.NewState(c.InitState.X, c.InitState.Theta, c.InitState.XDot, c.InitState.ThetaDot)
}

// NewPendulum creates inverted pendulum initialized to the configured state
func (c *Config) NewPendulum() (*pendulum.InvertedPendulum, error) {
	p, err := c.PendulumParams()
	if err != nil {
		return nil, err
	}

	ip := pendulum.NewWithParams(p)
	ip.SetState(c.GetInitState())

	return ip, nil
}

// NewController creates the configured controller.
// LQR gain is designed on the model linearized about the upright rest state
// and discretized with the configured time step.
func (c *Config) NewController() (cartpole.Controller, error) {
	switch c.Controller.Type {
	case "", ControllerNone:
		return control.Zero{}, nil
	case ControllerFeedback:
		if len(c.Controller.Gains) != pendulum.StateDim {
			return nil, fmt.Errorf("invalid number of feedback gains: %d", len(c.Controller.Gains))
		}
		var k [pendulum.StateDim]float64
		copy(k[:], c.Controller.Gains)
		fb := control.NewStateFeedback(k)
		fb.Limit = c.Controller.Limit
		return fb, nil
	case ControllerLQR:
		fb, err := c.lqr()
		if err != nil {
			return nil, err
		}
		fb.Limit = c.Controller.Limit
		return fb, nil
	}

	return nil, fmt.Errorf("unsupported controller: %s", c.Controller.Type)
}

func (c *Config) lqr() (*control.StateFeedback, error) {
	p, err := c.PendulumParams()
	if err != nil {
		return nil, err
	}

	ct, err := sim.Linearize(p)
	if err != nil {
		return nil, fmt.Errorf("failed to linearize model: %w", err)
	}

	disc, err := ct.ToDiscrete(c.Dt)
	if err != nil {
		return nil, fmt.Errorf("failed to discretize model: %v", err)
	}

	Q, R, err := c.LQRWeights()
	if err != nil {
		return nil, err
	}

	return control.LQR(disc, Q, R, 0, 0)
}

// LQRWeights returns LQR state and input weight matrices.
// State weights default to identity and input weight to DefaultR.
func (c *Config) LQRWeights() (*mat.SymDense, *mat.SymDense, error) {
	q := c.Controller.Q
	if len(q) == 0 {
		q = []float64{1, 1, 1, 1}
	}
	if len(q) != pendulum.StateDim {
		return nil, nil, fmt.Errorf("invalid number of state weights: %d", len(q))
	}

	r := c.Controller.R
	if r == 0 {
		r = DefaultR
	}

	Q := mat.NewSymDense(pendulum.StateDim, nil)
	for i, v := range q {
		Q.SetSym(i, i, v)
	}
	R := mat.NewSymDense(pendulum.ControlDim, []float64{r})

	return Q, R, nil
}

// NewNoise creates force disturbance. It returns zero noise when Std is zero.
func (c *Config) NewNoise() (cartpole.Noise, error) {
	if c.Noise.Std == 0 {
		z, err := noise.NewZero(pendulum.ControlDim)
		if err != nil {
			return nil, err
		}
		return z, nil
	}

	g, err := noise.NewForce(c.Noise.Std, c.Noise.Seed)
	if err != nil {
		return nil, err
	}

	return g, nil
}
