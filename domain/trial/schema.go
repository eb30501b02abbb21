package trial

// FactorDescriptor names one factor column and the kind most of its cells hold.
type FactorDescriptor struct {
	Name string `json:"name"`
	Kind Kind   `json:"kind"`
	// Levels is the number of distinct values the factor takes.
	Levels int `json:"levels"`
}

// Schema is the validated column layout of a trial table, derived once at
// ingestion and handed to every downstream step.
type Schema struct {
	Room    string             `json:"room"`
	Outcome string             `json:"outcome"`
	Factors []FactorDescriptor `json:"factors"`
}

// FactorNames returns the configuration key in source order.
func (s Schema) FactorNames() []string {
	names := make([]string, len(s.Factors))
	for i, f := range s.Factors {
		names[i] = f.Name
	}
	return names
}

// Factor looks up a descriptor by name.
func (s Schema) Factor(name string) (FactorDescriptor, bool) {
	for _, f := range s.Factors {
		if f.Name == name {
			return f, true
		}
	}
	return FactorDescriptor{}, false
}
