package module

type SysvarAddressCheck struct {
	*BaseModule
}

func NewSysvarAddressCheck() *SysvarAddressCheck {
	return &SysvarAddressCheck{
		BaseModule: newBaseModule(SysvarAddressCheckID, &Rule{
			Sinks: []SinkPattern{
				TypedCall{Callees: BincodeDeserialize, ResultTrait: TraitSysvar},
			},
			Coverage: Presence,
		}),
	}
}
