package module

import (
	"strings"

	"sealscan/internal/program"
)

// Identity is a set of fully qualified item paths. A name without any "::"
// matches on the last segment, so front ends may emit short names.
type Identity []string

func (id Identity) Match(name string) bool {
	if name == "" {
		return false
	}
	short := !strings.Contains(name, "::")
	for _, p := range id {
		if p == name || (short && program.LastSegment(p) == name) {
			return true
		}
	}
	return false
}

// Methods returns the last segment of every path, for matching calls whose
// callee is qualified by the receiver type instead of the trait.
func (id Identity) Methods() []string {
	out := make([]string, 0, len(id))
	for _, p := range id {
		if m := program.LastSegment(p); !contains(out, m) {
			out = append(out, m)
		}
	}
	return out
}

var (
	AccountInfo = Identity{
		"solana_program::account_info::AccountInfo",
		"anchor_lang::prelude::AccountInfo",
	}
	AnchorContext = Identity{"anchor_lang::context::Context"}
	Instruction   = Identity{"solana_program::instruction::Instruction"}

	AnchorAccount       = Identity{"anchor_lang::accounts::account::Account"}
	AnchorProgram       = Identity{"anchor_lang::accounts::program::Program"}
	AnchorInterface     = Identity{"anchor_lang::accounts::interface::Interface"}
	AnchorSystemAccount = Identity{"anchor_lang::accounts::system_account::SystemAccount"}
	AnchorAccountLoader = Identity{"anchor_lang::accounts::account_loader::AccountLoader"}
	AnchorSigner        = Identity{"anchor_lang::accounts::signer::Signer"}
	AnchorSysvar        = Identity{"anchor_lang::accounts::sysvar::Sysvar"}

	ToAccountInfo = Identity{
		"anchor_lang::ToAccountInfo::to_account_info",
		"solana_program::account_info::AccountInfo::to_account_info",
	}
	CpiContextNew = Identity{
		"anchor_lang::context::CpiContext::new",
		"anchor_lang::context::CpiContext::new_with_signer",
	}
	CreateProgramAddress    = Identity{"solana_program::pubkey::Pubkey::create_program_address"}
	LoadInstructionAt       = Identity{"solana_program::sysvar::instructions::load_instruction_at_checked"}
	BincodeDeserialize      = Identity{"bincode::deserialize"}
	FromAccountInfo         = Identity{"solana_program::sysvar::Sysvar::from_account_info"}
	CopyFromSlice           = Identity{"core::slice::copy_from_slice"}
	Clone                   = Identity{"core::clone::Clone::clone"}
	BufferClearCalls        = Identity{"core::slice::fill", "solana_program::program_memory::sol_memset"}
	BorshDeserializeMethods = Identity{
		"borsh::BorshDeserialize::try_from_slice",
		"borsh::BorshDeserialize::deserialize",
		"anchor_lang::AccountDeserialize::try_deserialize",
		"anchor_lang::AccountDeserialize::try_deserialize_unchecked",
	}
)

// Trait and constraint names carried by type descriptors and fields.
const (
	TraitSysvar             = "Sysvar"
	TraitAccountDeserialize = "AccountDeserialize"
	TraitAccounts           = "Accounts"

	MarkerSigner = "signer"
)

// GetSysvars are the sysvars that implement Sysvar::get.
var GetSysvars = []string{"Clock", "EpochRewards", "EpochSchedule", "Fees", "LastRestartSlot", "Rent"}

// ValidatedWrappers are account wrappers whose construction already checks
// the owner or the key of the account.
var ValidatedWrappers = concat(
	AnchorAccount,
	AnchorProgram,
	AnchorInterface,
	AnchorSystemAccount,
	AnchorAccountLoader,
	AnchorSigner,
	AnchorSysvar,
)

func concat(ids ...Identity) Identity {
	var out Identity
	for _, id := range ids {
		out = append(out, id...)
	}
	return out
}
