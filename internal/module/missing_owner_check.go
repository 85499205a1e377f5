package module

type MissingOwnerCheck struct {
	*BaseModule
}

func NewMissingOwnerCheck() *MissingOwnerCheck {
	return &MissingOwnerCheck{
		BaseModule: newBaseModule(MissingOwnerCheckID, &Rule{
			Sinks: []SinkPattern{
				TypedUse{Types: AccountInfo, Skip: Clone},
			},
			Guards: []GuardPattern{
				FieldRead{Fields: []string{"owner"}},
				KeyCompare{},
			},
			Exemptions: []ExemptionPattern{
				WrapperReceiver{Callees: ToAccountInfo, Types: ValidatedWrappers},
				FieldConstraint{Kinds: []string{"signer", "init", "seeds", "address", "owner", "executable"}},
			},
			Coverage: Presence,
		}),
	}
}
