package common

import (
	"fmt"

	"github.com/go-cardano/ctxbuilder/cbor"
)

// Anchor points to an off-chain document (a governance metadata URL) and
// commits to its contents with a hash, per the Conway CDDL anchor type.
type Anchor struct {
	URL      string
	DataHash Blake2b256
}

func (a Anchor) MarshalCBOR() ([]byte, error) {
	return cbor.Encode([]any{a.URL, a.DataHash})
}
func (a *Anchor) UnmarshalCBOR(raw []byte) error {
	var parts struct {
		cbor.StructAsArray `cbor:",toarray"`
		URL                string
		DataHash           Blake2b256
	}
	if err := cbor.Decode(raw, &parts); err != nil {
		return fmt.Errorf("anchor: %w", err)
	}
	a.URL, a.DataHash = parts.URL, parts.DataHash
	return nil
}

// GovernanceActionId identifies a prior governance action a proposal acts
// upon or a vote targets: [transaction_id, action_index].
type GovernanceActionId struct {
	TransactionId Blake2b256
	ActionIndex   uint32
}

func (id GovernanceActionId) MarshalCBOR() ([]byte, error) {
	return cbor.Encode([]any{id.TransactionId, id.ActionIndex})
}
func (id *GovernanceActionId) UnmarshalCBOR(raw []byte) error {
	var parts struct {
		cbor.StructAsArray `cbor:",toarray"`
		TransactionId      Blake2b256
		ActionIndex        uint32
	}
	if err := cbor.Decode(raw, &parts); err != nil {
		return fmt.Errorf("governance action id: %w", err)
	}
	id.TransactionId, id.ActionIndex = parts.TransactionId, parts.ActionIndex
	return nil
}

// GovernanceActionType is the first element of a governance_action's CBOR
// array, identifying which of the seven Conway action kinds follows.
type GovernanceActionType uint

const (
	GovActionParameterChange     GovernanceActionType = 0
	GovActionHardForkInitiation  GovernanceActionType = 1
	GovActionTreasuryWithdrawals GovernanceActionType = 2
	GovActionNoConfidence        GovernanceActionType = 3
	GovActionUpdateCommittee     GovernanceActionType = 4
	GovActionNewConstitution     GovernanceActionType = 5
	GovActionInfo                GovernanceActionType = 6
)

// GovernanceAction is a tagged union over the seven action kinds. Only the
// fields relevant to Action are populated; this mirrors how the ledger
// itself treats the action body as effectively sum-typed despite the flat
// Go representation.
type GovernanceAction struct {
	Action               GovernanceActionType
	PriorAction          *GovernanceActionId
	Withdrawals          map[*Address]uint64
	ConstitutionAnchor   *Anchor
	ConstitutionScript   *Blake2b224
	NewCommitteeMembers  map[Credential]uint64
	RemovedCommittee     []Credential
	NewQuorum            UnitInterval
	InfoOnly             bool
}

func (g GovernanceAction) MarshalCBOR() ([]byte, error) {
	switch g.Action {
	case GovActionTreasuryWithdrawals:
		return cbor.Encode([]any{uint(g.Action), g.Withdrawals, nil})
	case GovActionNoConfidence:
		return cbor.Encode([]any{uint(g.Action), g.PriorAction})
	case GovActionUpdateCommittee:
		return cbor.Encode([]any{uint(g.Action), g.PriorAction, g.RemovedCommittee, g.NewCommitteeMembers, g.NewQuorum})
	case GovActionNewConstitution:
		return cbor.Encode([]any{uint(g.Action), g.PriorAction, []any{g.ConstitutionAnchor, g.ConstitutionScript}})
	case GovActionInfo:
		return cbor.Encode([]any{uint(g.Action)})
	default:
		return cbor.Encode([]any{uint(g.Action), g.PriorAction})
	}
}

func (g *GovernanceAction) UnmarshalCBOR(raw []byte) error {
	var items []cbor.RawMessage
	if err := cbor.Decode(raw, &items); err != nil {
		return fmt.Errorf("governance action: %w", err)
	}
	if len(items) == 0 {
		return fmt.Errorf("governance action: empty array")
	}
	var typ uint
	if err := cbor.Decode(items[0], &typ); err != nil {
		return fmt.Errorf("governance action: type: %w", err)
	}
	g.Action = GovernanceActionType(typ)
	switch g.Action {
	case GovActionTreasuryWithdrawals:
		if len(items) < 2 {
			return fmt.Errorf("governance action: treasury withdrawals missing fields")
		}
		return cbor.Decode(items[1], &g.Withdrawals)
	case GovActionNoConfidence, GovActionParameterChange, GovActionHardForkInitiation:
		if len(items) < 2 {
			return nil
		}
		var prior GovernanceActionId
		if err := cbor.Decode(items[1], &prior); err == nil {
			g.PriorAction = &prior
		}
		return nil
	case GovActionUpdateCommittee:
		if len(items) != 5 {
			return fmt.Errorf("governance action: update committee wants 5 elements")
		}
		var prior GovernanceActionId
		if err := cbor.Decode(items[1], &prior); err == nil {
			g.PriorAction = &prior
		}
		if err := cbor.Decode(items[2], &g.RemovedCommittee); err != nil {
			return err
		}
		if err := cbor.Decode(items[3], &g.NewCommitteeMembers); err != nil {
			return err
		}
		return cbor.Decode(items[4], &g.NewQuorum)
	case GovActionNewConstitution:
		if len(items) != 3 {
			return fmt.Errorf("governance action: new constitution wants 3 elements")
		}
		var prior GovernanceActionId
		if err := cbor.Decode(items[1], &prior); err == nil {
			g.PriorAction = &prior
		}
		var constitution []cbor.RawMessage
		if err := cbor.Decode(items[2], &constitution); err != nil {
			return err
		}
		if len(constitution) != 2 {
			return fmt.Errorf("governance action: constitution wants 2 elements")
		}
		var anchor Anchor
		if err := cbor.Decode(constitution[0], &anchor); err != nil {
			return err
		}
		g.ConstitutionAnchor = &anchor
		var scriptHash Blake2b224
		if err := cbor.Decode(constitution[1], &scriptHash); err == nil {
			g.ConstitutionScript = &scriptHash
		}
		return nil
	case GovActionInfo:
		g.InfoOnly = true
		return nil
	default:
		return fmt.Errorf("governance action: unknown type %d", g.Action)
	}
}

// ProposalProcedure is a single governance-action proposal entry in the
// transaction body's proposal_procedures set.
type ProposalProcedure struct {
	Deposit       uint64
	RewardAccount Address
	GovAction     GovernanceAction
	Anchor        Anchor
}

func (p ProposalProcedure) MarshalCBOR() ([]byte, error) {
	return cbor.Encode([]any{p.Deposit, p.RewardAccount, p.GovAction, p.Anchor})
}
func (p *ProposalProcedure) UnmarshalCBOR(raw []byte) error {
	var parts struct {
		cbor.StructAsArray `cbor:",toarray"`
		Deposit            uint64
		RewardAccount      Address
		GovAction          GovernanceAction
		Anchor             Anchor
	}
	if err := cbor.Decode(raw, &parts); err != nil {
		return fmt.Errorf("proposal procedure: %w", err)
	}
	p.Deposit, p.RewardAccount, p.GovAction, p.Anchor = parts.Deposit, parts.RewardAccount, parts.GovAction, parts.Anchor
	return nil
}

// Vote is a DRep/committee/pool vote on a governance action.
type Vote uint

const (
	VoteNo      Vote = 0
	VoteYes     Vote = 1
	VoteAbstain Vote = 2
)

// VoterType identifies which of the three voter roles cast a vote.
type VoterType uint

const (
	VoterConstitutionalCommitteeKeyHash    VoterType = 0
	VoterConstitutionalCommitteeScriptHash VoterType = 1
	VoterDrepKeyHash                       VoterType = 2
	VoterDrepScriptHash                    VoterType = 3
	VoterStakingPoolKeyHash                VoterType = 4
)

// Voter identifies who cast a vote: [voter_type, credential_hash].
type Voter struct {
	Type VoterType
	Hash Blake2b224
}

func (v Voter) MarshalCBOR() ([]byte, error) {
	return cbor.Encode([]any{uint(v.Type), v.Hash})
}
func (v *Voter) UnmarshalCBOR(raw []byte) error {
	var parts struct {
		cbor.StructAsArray `cbor:",toarray"`
		Type               uint
		Hash               Blake2b224
	}
	if err := cbor.Decode(raw, &parts); err != nil {
		return fmt.Errorf("voter: %w", err)
	}
	v.Type, v.Hash = VoterType(parts.Type), parts.Hash
	return nil
}

// VotingProcedure pairs a single vote decision with its optional
// justifying anchor.
type VotingProcedure struct {
	Decision Vote
	Anchor   *Anchor
}

func (p VotingProcedure) MarshalCBOR() ([]byte, error) {
	return cbor.Encode([]any{uint(p.Decision), p.Anchor})
}
func (p *VotingProcedure) UnmarshalCBOR(raw []byte) error {
	var parts struct {
		cbor.StructAsArray `cbor:",toarray"`
		Decision           uint
		Anchor             *Anchor
	}
	if err := cbor.Decode(raw, &parts); err != nil {
		return fmt.Errorf("voting procedure: %w", err)
	}
	p.Decision, p.Anchor = Vote(parts.Decision), parts.Anchor
	return nil
}

// VotingProcedures is the transaction body's voting_procedures field: a map
// from voter to their votes on a set of governance actions.
type VotingProcedures map[Voter]map[GovernanceActionId]VotingProcedure
