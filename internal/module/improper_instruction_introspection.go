package module

type ImproperInstructionIntrospection struct {
	*BaseModule
}

func NewImproperInstructionIntrospection() *ImproperInstructionIntrospection {
	return &ImproperInstructionIntrospection{
		BaseModule: newBaseModule(ImproperInstructionIntrospectionID, &Rule{
			Sinks: []SinkPattern{
				CallArg{Callees: LoadInstructionAt, Arg: 0},
			},
			Coverage: Presence,
		}),
	}
}
