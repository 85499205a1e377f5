package module

type InsecureAccountClose struct {
	*BaseModule
}

func NewInsecureAccountClose() *InsecureAccountClose {
	return &InsecureAccountClose{
		BaseModule: newBaseModule(InsecureAccountCloseID, &Rule{
			Sinks: []SinkPattern{
				ZeroAssign{Field: "lamports"},
			},
			Guards: []GuardPattern{
				ZeroLoop{Buffer: "data"},
				BufferClear{Callees: BufferClearCalls, Buffer: "data"},
			},
			Exemptions: []ExemptionPattern{
				ForceDefund{},
			},
			Coverage: Presence,
		}),
	}
}
