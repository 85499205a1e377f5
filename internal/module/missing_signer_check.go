package module

type MissingSignerCheck struct {
	*BaseModule
}

func NewMissingSignerCheck() *MissingSignerCheck {
	return &MissingSignerCheck{
		BaseModule: newBaseModule(MissingSignerCheckID, &Rule{
			Sinks: []SinkPattern{
				HandlerParam{Types: AnchorContext},
			},
			Guards: []GuardPattern{
				FieldRead{Fields: []string{"is_signer"}},
				SignerParam{Types: AnchorSigner, Marker: MarkerSigner, Context: AnchorContext},
			},
			Coverage: Presence,
		}),
	}
}
