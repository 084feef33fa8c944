package experiment

import (
	"github.com/san-kum/modelspace/internal/dynamo"
	"github.com/san-kum/modelspace/internal/integrators"
	"github.com/san-kum/modelspace/internal/model"
	"github.com/san-kum/modelspace/internal/physics"
)

// Registry bundles the model types and integrators an experiment can name.
type Registry struct {
	Models *model.Registry
}

// NewRegistry registers every built-in model type.
func NewRegistry() (*Registry, error) {
	models := model.NewRegistry()
	if err := physics.Register(models); err != nil {
		return nil, err
	}
	return &Registry{Models: models}, nil
}

func (r *Registry) NewModel(name string, opts ...model.Option) (*model.Model, error) {
	return r.Models.New(name, opts...)
}

func (r *Registry) NewIntegrator(name string) (dynamo.Integrator, error) {
	return integrators.New(name)
}

func (r *Registry) ListModels() []string {
	return r.Models.Names()
}

func (r *Registry) ListIntegrators() []string {
	return integrators.Names()
}
