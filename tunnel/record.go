package tunnel

// Record is a tunnel held by a Registry.
//
// A record's position is not stored: it is looked up from the record's
// offset in its registry every time it is read, so it cannot drift out of
// step with the registry's order.
type Record struct {
	id     string
	name   string
	config *Configuration
	owner  *Registry
}

// ID returns the record's random identifier. UI layers use it to follow a
// record while other insertions and removals renumber positions.
func (r *Record) ID() string {
	return r.id
}

// Name returns the name derived from the configuration when the record was
// created. Replacing the configuration does not rename the record.
func (r *Record) Name() string {
	return r.name
}

// Configuration returns a copy of the record's current configuration.
func (r *Record) Configuration() *Configuration {
	return r.config.Clone()
}

// Position returns the record's zero-based index in its registry,
// or -1 once the record has been removed.
func (r *Record) Position() int {
	if r.owner == nil {
		return -1
	}
	return r.owner.indexOf(r)
}
