package balancing

// randomStrategy has no objective; the engine shuffles once and stops.
type randomStrategy struct{}

func (randomStrategy) method() Method { return MethodRandom }

func (randomStrategy) objective(Request, Sizes, Config) (objective, error) {
	return nil, nil
}
