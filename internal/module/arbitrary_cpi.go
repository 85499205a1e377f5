package module

type ArbitraryCPI struct {
	*BaseModule
}

// NewArbitraryCPI checks that the program id of every cross-program
// invocation is compared on all paths leading to it.
func NewArbitraryCPI() *ArbitraryCPI {
	return &ArbitraryCPI{
		BaseModule: newBaseModule(ArbitraryCPIID, &Rule{
			Sinks: []SinkPattern{
				ConstructField{Types: Instruction, Field: "program_id"},
				CallArg{Callees: CpiContextNew, Arg: 0, Project: []string{"key"}},
			},
			Guards: []GuardPattern{
				OperandCompare{},
			},
			Exemptions: []ExemptionPattern{
				WrapperReceiver{Callees: ToAccountInfo, Types: concat(AnchorProgram, AnchorInterface)},
			},
			Coverage: AllPaths,
		}),
	}
}
