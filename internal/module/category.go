package module

import (
	"sealscan/internal/issue"
)

// Solana program vulnerability classes, after
// https://github.com/coral-xyz/sealevel-attacks

const (
	MissingOwnerCheckID                = "missing-owner-check"
	MissingSignerCheckID               = "missing-signer-check"
	ArbitraryCPIID                     = "arbitrary-cpi"
	InsecureAccountCloseID             = "insecure-account-close"
	TypeCosplayID                      = "type-cosplay"
	BumpSeedCanonicalizationID         = "bump-seed-canonicalization"
	SysvarGetID                        = "sysvar-get"
	SysvarAddressCheckID               = "sysvar-address-check"
	ImproperInstructionIntrospectionID = "improper-instruction-introspection"
	DuplicateMutableAccountsID         = "duplicate-mutable-accounts"
)

type CategoryData struct {
	ID          string         `yaml:"id"`
	Title       string         `yaml:"title"`
	Description string         `yaml:"description"`
	Message     string         `yaml:"message"`
	Help        string         `yaml:"help,omitempty"`
	Severity    issue.Severity `yaml:"severity"`
}

var CategoryDataMap = map[string]*CategoryData{
	MissingOwnerCheckID: {
		ID:          MissingOwnerCheckID,
		Title:       "Missing Owner Check",
		Description: "An account is used without checking that it is owned by the expected program. An attacker can pass an account owned by another program with the same data layout and have the program act on it.",
		Message:     "using an account without checking if its owner is as expected",
		Help:        "compare the account's owner with the expected program id, or use a typed account wrapper",
		Severity:    issue.SeverityWarning,
	},
	MissingSignerCheckID: {
		ID:          MissingSignerCheckID,
		Title:       "Missing Signer Check",
		Description: "An instruction handler never checks that any account signed the transaction, so anyone can invoke privileged operations on behalf of an authority.",
		Message:     "this function lacks a use of `is_signer`",
		Help:        "check `is_signer` on the authority account or declare it as a `Signer`",
		Severity:    issue.SeverityWarning,
	},
	ArbitraryCPIID: {
		ID:          ArbitraryCPIID,
		Title:       "Arbitrary Cross-Program Invocation",
		Description: "A cross-program invocation uses a program id that is not compared with the expected program on every path, so a caller can substitute a malicious program.",
		Message:     "program_id may not be checked",
		Help:        "compare the program id with the expected program before invoking it, or pass a `Program` account",
		Severity:    issue.SeverityWarning,
	},
	InsecureAccountCloseID: {
		ID:          InsecureAccountCloseID,
		Title:       "Insecure Account Close",
		Description: "An account is closed by zeroing its lamports while its data is left intact. Within the same transaction the account can be refunded and reused with stale data.",
		Message:     "attempt to close an account without also clearing its data",
		Help:        "clear the account data or use the `close` constraint",
		Severity:    issue.SeverityWarning,
	},
	TypeCosplayID: {
		ID:          TypeCosplayID,
		Title:       "Type Cosplay",
		Description: "Several account types are deserialized from raw bytes without a discriminant that tells their layouts apart, so one account type can be passed where another is expected.",
		Message:     "type is deserialized without a discriminant that distinguishes it from other account types",
		Help:        "add a leading discriminant field or deserialize through a single enum",
		Severity:    issue.SeverityWarning,
	},
	BumpSeedCanonicalizationID: {
		ID:          BumpSeedCanonicalizationID,
		Title:       "Bump Seed Canonicalization",
		Description: "A program address is derived with `create_program_address` from a bump seed that is never constrained, so a caller can pick a non-canonical bump and a different address.",
		Message:     "Bump seed may not be constrained. If stored in an account, use anchor's #[account(seed=..., bump=...)] macro instead",
		Help:        "use `find_program_address` or compare the bump with the canonical one",
		Severity:    issue.SeverityWarning,
	},
	SysvarGetID: {
		ID:          SysvarGetID,
		Title:       "Sysvar From Account Info",
		Description: "A sysvar that implements `Sysvar::get` is read from a passed account. This wastes transaction space and compute, and the account must be validated.",
		Message:     "Use `Sysvar::get()` instead of `Sysvar::from_account_info(...)`",
		Help:        "call `get()` on the sysvar type",
		Severity:    issue.SeverityWarning,
	},
	SysvarAddressCheckID: {
		ID:          SysvarAddressCheckID,
		Title:       "Sysvar Address Check",
		Description: "A sysvar is deserialized with raw `bincode::deserialize`, which skips the check that the account is the real sysvar.",
		Message:     "raw deserialization of a type that implements Sysvar",
		Help:        "use from_account_info() instead",
		Severity:    issue.SeverityWarning,
	},
	ImproperInstructionIntrospectionID: {
		ID:          ImproperInstructionIntrospectionID,
		Title:       "Improper Instruction Introspection",
		Description: "Instructions are loaded by absolute index. Unless the correlation with the current instruction is validated, an attacker can reorder or repeat instructions.",
		Message:     "Access instructions through relative indexes using the `get_instruction_relative` helper function.",
		Help:        "use `get_instruction_relative` with an offset from the current instruction",
		Severity:    issue.SeverityWarning,
	},
	DuplicateMutableAccountsID: {
		ID:          DuplicateMutableAccountsID,
		Title:       "Duplicate Mutable Accounts",
		Description: "Two accounts of the same type are accepted without checking that their keys differ. The same account can be passed twice and one update overwrites the other.",
		Message:     "does not check if multiple identical Anchor accounts have different keys",
		Help:        "add a key check to make sure the accounts have different keys, e.g., x.key() != y.key()",
		Severity:    issue.SeverityWarning,
	},
}
