package model

// Concrete model types customize instances by passing a hooks value to New
// (see WithHooks). Each interface below is optional.

// ParamsUpdater is called after every change to the parameter vectors,
// including the initial defaults at construction.
type ParamsUpdater interface {
	ParamsUpdated(m *Model)
}

// Validator reports whether the current parameters describe a valid model.
// Without it every parameter set is valid.
type Validator interface {
	Valid(m *Model) bool
}

// PropertyHandler serves the non-parameter properties a level declares.
type PropertyHandler interface {
	GetProperty(m *Model, p Property) (any, error)
	SetProperty(m *Model, p Property, v any) error
}
