package module

type BumpSeedCanonicalization struct {
	*BaseModule
}

func NewBumpSeedCanonicalization() *BumpSeedCanonicalization {
	return &BumpSeedCanonicalization{
		BaseModule: newBaseModule(BumpSeedCanonicalizationID, &Rule{
			Sinks: []SinkPattern{
				SeedBump{
					Callees:       CreateProgramAddress,
					AnchorMessage: "Bump seed comes from anchor Account, use anchor's #[account(seed=..., bump=...)] macro instead",
					StructMessage: "Bump seed comes from structure, ensure it is constrained to a single value and not user-controlled.",
				},
			},
			Guards: []GuardPattern{
				OperandCompare{},
				FieldConstraint{Kinds: []string{"bump"}},
			},
			Coverage: Presence,
		}),
	}
}
