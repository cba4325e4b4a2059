package bind_group_provider

import "errors"

// BufferWrite describes a single GPU buffer write targeting a binding, or one member of it,
// on a BindGroupProvider.
type BufferWrite struct {
	Provider BindGroupProvider
	Binding  string
	// Member is empty for a whole-binding write.
	Member string
	Data   []byte
}

// Apply performs the write.
func (w BufferWrite) Apply() error {
	if w.Member == "" {
		return w.Provider.WriteBinding(w.Binding, w.Data)
	}
	return w.Provider.WriteMember(w.Binding, w.Member, w.Data)
}

// WriteAll applies every write in order. Every write is attempted; the failures are joined.
//
// Parameters:
//   - writes: the writes to apply
//
// Returns:
//   - error: the joined write errors, nil when all succeeded
func WriteAll(writes []BufferWrite) error {
	var errs []error
	for _, w := range writes {
		if err := w.Apply(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
