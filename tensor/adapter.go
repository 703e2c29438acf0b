package tensor

// FrameworkAdapter converts between a model's internal weight representation
// and the name-to-tensor Dict the store operates on. Adapters are
// per-framework glue owned by the host process; the store and coordinator
// never invoke one directly, they only consume and produce Dicts.
type FrameworkAdapter interface {
	// GetTensorDict extracts the model's current weights as a Dict.
	GetTensorDict() (Dict, error)

	// SetTensorDict loads a Dict back into the model.
	SetTensorDict(d Dict) error
}
