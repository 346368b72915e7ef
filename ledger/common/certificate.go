package common

import (
	"fmt"

	"github.com/go-cardano/ctxbuilder/cbor"
)

// CertificateType is the first element of every certificate's CBOR array,
// identifying which of the Conway-era certificate variants follows.
type CertificateType uint

const (
	CertificateTypeStakeRegistration              CertificateType = 0
	CertificateTypeStakeDeregistration             CertificateType = 1
	CertificateTypeStakeDelegation                 CertificateType = 2
	CertificateTypePoolRegistration                CertificateType = 3
	CertificateTypePoolRetirement                  CertificateType = 4
	CertificateTypeMoveInstantaneousRewards        CertificateType = 6
	CertificateTypeRegistration                    CertificateType = 7
	CertificateTypeDeregistration                  CertificateType = 8
	CertificateTypeVoteDelegation                  CertificateType = 9
	CertificateTypeStakeVoteDelegation             CertificateType = 10
	CertificateTypeStakeRegistrationDelegation     CertificateType = 11
	CertificateTypeVoteRegistrationDelegation      CertificateType = 12
	CertificateTypeStakeVoteRegistrationDelegation CertificateType = 13
	CertificateTypeAuthCommitteeHot                CertificateType = 14
	CertificateTypeResignCommitteeCold             CertificateType = 15
	CertificateTypeRegisterDrep                    CertificateType = 16
	CertificateTypeUnregisterDrep                  CertificateType = 17
	CertificateTypeUpdateDrep                       CertificateType = 18
)

// CertificateWrapper carries a decoded certificate alongside its type tag,
// since the concrete Go type behind Certificate depends on Type.
type CertificateWrapper struct {
	Type        uint
	Certificate any
}

func (c CertificateWrapper) MarshalCBOR() ([]byte, error) {
	return cbor.Encode(c.Certificate)
}

func (c *CertificateWrapper) UnmarshalCBOR(raw []byte) error {
	var head []cbor.RawMessage
	if err := cbor.Decode(raw, &head); err != nil {
		return fmt.Errorf("certificate: %w", err)
	}
	if len(head) == 0 {
		return fmt.Errorf("certificate: empty array")
	}
	var typ uint
	if err := cbor.Decode(head[0], &typ); err != nil {
		return fmt.Errorf("certificate: type: %w", err)
	}
	c.Type = typ

	var err error
	switch CertificateType(typ) {
	case CertificateTypeStakeRegistration:
		var cert StakeRegistrationCertificate
		err = decodeInto(raw, &cert)
		c.Certificate = &cert
	case CertificateTypeStakeDeregistration:
		var cert StakeDeregistrationCertificate
		err = decodeInto(raw, &cert)
		c.Certificate = &cert
	case CertificateTypeStakeDelegation:
		var cert StakeDelegationCertificate
		err = decodeInto(raw, &cert)
		c.Certificate = &cert
	case CertificateTypePoolRegistration:
		var cert PoolRegistrationCertificate
		err = decodeInto(raw, &cert)
		c.Certificate = &cert
	case CertificateTypePoolRetirement:
		var cert PoolRetirementCertificate
		err = decodeInto(raw, &cert)
		c.Certificate = &cert
	case CertificateTypeMoveInstantaneousRewards:
		var cert MoveInstantaneousRewardsCertificate
		err = decodeInto(raw, &cert)
		c.Certificate = &cert
	case CertificateTypeRegistration, CertificateTypeDeregistration:
		var cert DepositCertificate
		err = decodeInto(raw, &cert)
		c.Certificate = &cert
	case CertificateTypeVoteDelegation:
		var cert VoteDelegationCertificate
		err = decodeInto(raw, &cert)
		c.Certificate = &cert
	case CertificateTypeStakeVoteDelegation:
		var cert StakeVoteDelegationCertificate
		err = decodeInto(raw, &cert)
		c.Certificate = &cert
	case CertificateTypeStakeRegistrationDelegation:
		var cert StakeRegistrationDelegationCertificate
		err = decodeInto(raw, &cert)
		c.Certificate = &cert
	case CertificateTypeVoteRegistrationDelegation:
		var cert VoteRegistrationDelegationCertificate
		err = decodeInto(raw, &cert)
		c.Certificate = &cert
	case CertificateTypeStakeVoteRegistrationDelegation:
		var cert StakeVoteRegistrationDelegationCertificate
		err = decodeInto(raw, &cert)
		c.Certificate = &cert
	case CertificateTypeAuthCommitteeHot:
		var cert AuthCommitteeHotCertificate
		err = decodeInto(raw, &cert)
		c.Certificate = &cert
	case CertificateTypeResignCommitteeCold:
		var cert ResignCommitteeColdCertificate
		err = decodeInto(raw, &cert)
		c.Certificate = &cert
	case CertificateTypeRegisterDrep:
		var cert RegisterDrepCertificate
		err = decodeInto(raw, &cert)
		c.Certificate = &cert
	case CertificateTypeUnregisterDrep:
		var cert UnregisterDrepCertificate
		err = decodeInto(raw, &cert)
		c.Certificate = &cert
	case CertificateTypeUpdateDrep:
		var cert UpdateDrepCertificate
		err = decodeInto(raw, &cert)
		c.Certificate = &cert
	default:
		return fmt.Errorf("certificate: unknown type %d", typ)
	}
	return err
}

func decodeInto(raw []byte, v cbor.Unmarshaler) error {
	return v.UnmarshalCBOR(raw)
}

// StakeRegistrationCertificate: [0, stake_credential].
type StakeRegistrationCertificate struct {
	CertType        uint
	StakeCredential Credential
}

func (c StakeRegistrationCertificate) MarshalCBOR() ([]byte, error) {
	return cbor.Encode([]any{uint(CertificateTypeStakeRegistration), c.StakeCredential})
}
func (c *StakeRegistrationCertificate) UnmarshalCBOR(raw []byte) error {
	var parts struct {
		cbor.StructAsArray `cbor:",toarray"`
		Type               uint
		StakeCredential    Credential
	}
	if err := cbor.Decode(raw, &parts); err != nil {
		return err
	}
	c.CertType, c.StakeCredential = uint(CertificateTypeStakeRegistration), parts.StakeCredential
	return nil
}

// StakeDeregistrationCertificate: [1, stake_credential].
type StakeDeregistrationCertificate struct {
	CertType        uint
	StakeCredential Credential
}

func (c StakeDeregistrationCertificate) MarshalCBOR() ([]byte, error) {
	return cbor.Encode([]any{uint(CertificateTypeStakeDeregistration), c.StakeCredential})
}
func (c *StakeDeregistrationCertificate) UnmarshalCBOR(raw []byte) error {
	var parts struct {
		cbor.StructAsArray `cbor:",toarray"`
		Type               uint
		StakeCredential    Credential
	}
	if err := cbor.Decode(raw, &parts); err != nil {
		return err
	}
	c.CertType, c.StakeCredential = uint(CertificateTypeStakeDeregistration), parts.StakeCredential
	return nil
}

// DepositCertificate covers registration (type 7) and deregistration
// (type 8): [type, stake_credential, coin].
type DepositCertificate struct {
	CertType        uint
	StakeCredential Credential
	Coin            uint64
}

func (c DepositCertificate) MarshalCBOR() ([]byte, error) {
	return cbor.Encode([]any{c.CertType, c.StakeCredential, c.Coin})
}
func (c *DepositCertificate) UnmarshalCBOR(raw []byte) error {
	var parts struct {
		cbor.StructAsArray `cbor:",toarray"`
		Type               uint
		StakeCredential    Credential
		Coin               uint64
	}
	if err := cbor.Decode(raw, &parts); err != nil {
		return err
	}
	c.CertType, c.StakeCredential, c.Coin = parts.Type, parts.StakeCredential, parts.Coin
	return nil
}

// StakeDelegationCertificate: [2, stake_credential, pool_keyhash].
type StakeDelegationCertificate struct {
	CertType        uint
	StakeCredential *Credential
	PoolKeyHash     Blake2b224
}

func (c StakeDelegationCertificate) MarshalCBOR() ([]byte, error) {
	return cbor.Encode([]any{uint(CertificateTypeStakeDelegation), c.StakeCredential, c.PoolKeyHash})
}
func (c *StakeDelegationCertificate) UnmarshalCBOR(raw []byte) error {
	var parts struct {
		cbor.StructAsArray `cbor:",toarray"`
		Type               uint
		StakeCredential    Credential
		PoolKeyHash        Blake2b224
	}
	if err := cbor.Decode(raw, &parts); err != nil {
		return err
	}
	c.CertType, c.StakeCredential, c.PoolKeyHash = uint(CertificateTypeStakeDelegation), &parts.StakeCredential, parts.PoolKeyHash
	return nil
}

// Relay is a pool relay announcement: single (IPv4/IPv6 host, optional
// port), or a DNS name, or a DNS SRV name. Exactly one of the three should
// be populated, keyed by RelayType.
type RelayType uint

const (
	RelaySingleHost     RelayType = 0
	RelaySingleHostName RelayType = 1
	RelayMultiHost      RelayType = 2
)

type Relay struct {
	Type     RelayType
	Port     *uint32
	Ipv4     []byte
	Ipv6     []byte
	Hostname string
}

func (r Relay) MarshalCBOR() ([]byte, error) {
	switch r.Type {
	case RelaySingleHost:
		return cbor.Encode([]any{uint(r.Type), r.Port, r.Ipv4, r.Ipv6})
	case RelayMultiHost:
		return cbor.Encode([]any{uint(r.Type), r.Hostname})
	case RelaySingleHostName:
		return cbor.Encode([]any{uint(r.Type), r.Port, r.Hostname})
	default:
		return nil, fmt.Errorf("relay: unknown type %d", r.Type)
	}
}
func (r *Relay) UnmarshalCBOR(raw []byte) error {
	var items []cbor.RawMessage
	if err := cbor.Decode(raw, &items); err != nil {
		return err
	}
	if len(items) == 0 {
		return fmt.Errorf("relay: empty array")
	}
	var typ uint
	if err := cbor.Decode(items[0], &typ); err != nil {
		return err
	}
	r.Type = RelayType(typ)
	switch r.Type {
	case RelaySingleHost:
		if len(items) != 4 {
			return fmt.Errorf("relay: single host wants 4 elements")
		}
		if err := cbor.Decode(items[1], &r.Port); err != nil {
			return err
		}
		if err := cbor.Decode(items[2], &r.Ipv4); err != nil {
			return err
		}
		return cbor.Decode(items[3], &r.Ipv6)
	case RelayMultiHost:
		if len(items) != 2 {
			return fmt.Errorf("relay: multi host wants 2 elements")
		}
		return cbor.Decode(items[1], &r.Hostname)
	case RelaySingleHostName:
		if len(items) != 3 {
			return fmt.Errorf("relay: single host name wants 3 elements")
		}
		if err := cbor.Decode(items[1], &r.Port); err != nil {
			return err
		}
		return cbor.Decode(items[2], &r.Hostname)
	default:
		return fmt.Errorf("relay: unknown type %d", r.Type)
	}
}

// PoolRegistrationCertificate: [3, operator, vrf_keyhash, pledge, cost,
// margin, reward_account, pool_owners, relays, pool_metadata/null].
type PoolRegistrationCertificate struct {
	CertType         uint
	Operator         Blake2b224
	VrfKeyHash       Blake2b256
	Pledge           uint64
	Cost             uint64
	Margin           UnitInterval
	RewardAccount    Address
	PoolOwners       []Blake2b224
	Relays           []Relay
	PoolMetadataURL  string
	PoolMetadataHash *Blake2b256
}

func (c PoolRegistrationCertificate) MarshalCBOR() ([]byte, error) {
	var metadata any
	if c.PoolMetadataHash != nil {
		metadata = []any{c.PoolMetadataURL, *c.PoolMetadataHash}
	}
	return cbor.Encode([]any{
		uint(CertificateTypePoolRegistration), c.Operator, c.VrfKeyHash, c.Pledge, c.Cost,
		c.Margin, c.RewardAccount, c.PoolOwners, c.Relays, metadata,
	})
}
func (c *PoolRegistrationCertificate) UnmarshalCBOR(raw []byte) error {
	var items []cbor.RawMessage
	if err := cbor.Decode(raw, &items); err != nil {
		return err
	}
	if len(items) != 10 {
		return fmt.Errorf("pool registration: expected 10 elements, got %d", len(items))
	}
	c.CertType = uint(CertificateTypePoolRegistration)
	if err := cbor.Decode(items[1], &c.Operator); err != nil {
		return err
	}
	if err := cbor.Decode(items[2], &c.VrfKeyHash); err != nil {
		return err
	}
	if err := cbor.Decode(items[3], &c.Pledge); err != nil {
		return err
	}
	if err := cbor.Decode(items[4], &c.Cost); err != nil {
		return err
	}
	if err := cbor.Decode(items[5], &c.Margin); err != nil {
		return err
	}
	if err := cbor.Decode(items[6], &c.RewardAccount); err != nil {
		return err
	}
	if err := cbor.Decode(items[7], &c.PoolOwners); err != nil {
		return err
	}
	if err := cbor.Decode(items[8], &c.Relays); err != nil {
		return err
	}
	var meta []cbor.RawMessage
	if err := cbor.Decode(items[9], &meta); err == nil && len(meta) == 2 {
		if err := cbor.Decode(meta[0], &c.PoolMetadataURL); err != nil {
			return err
		}
		var hash Blake2b256
		if err := cbor.Decode(meta[1], &hash); err != nil {
			return err
		}
		c.PoolMetadataHash = &hash
	}
	return nil
}

// PoolRetirementCertificate: [4, pool_keyhash, epoch].
type PoolRetirementCertificate struct {
	CertType    uint
	PoolKeyHash Blake2b224
	Epoch       uint64
}

func (c PoolRetirementCertificate) MarshalCBOR() ([]byte, error) {
	return cbor.Encode([]any{uint(CertificateTypePoolRetirement), c.PoolKeyHash, c.Epoch})
}
func (c *PoolRetirementCertificate) UnmarshalCBOR(raw []byte) error {
	var parts struct {
		cbor.StructAsArray `cbor:",toarray"`
		Type               uint
		PoolKeyHash        Blake2b224
		Epoch              uint64
	}
	if err := cbor.Decode(raw, &parts); err != nil {
		return err
	}
	c.CertType, c.PoolKeyHash, c.Epoch = uint(CertificateTypePoolRetirement), parts.PoolKeyHash, parts.Epoch
	return nil
}

// MIRPot identifies which pot a move-instantaneous-rewards certificate
// draws from: the reserves or the treasury.
type MIRPot uint

const (
	MIRPotReserves MIRPot = 0
	MIRPotTreasury MIRPot = 1
)

// MoveInstantaneousRewardsCertificate: [6, [pot, {credential: delta_coin}]].
// Retained for decode-only compatibility: MIR certificates were removed
// from the ledger after the Conway hard fork's predecessor era, but
// pre-Conway transactions carrying one still need to parse.
type MoveInstantaneousRewardsCertificate struct {
	Pot     MIRPot
	Rewards map[Credential]int64
}

func (c MoveInstantaneousRewardsCertificate) MarshalCBOR() ([]byte, error) {
	return cbor.Encode([]any{uint(CertificateTypeMoveInstantaneousRewards), []any{uint(c.Pot), c.Rewards}})
}
func (c *MoveInstantaneousRewardsCertificate) UnmarshalCBOR(raw []byte) error {
	var outer []cbor.RawMessage
	if err := cbor.Decode(raw, &outer); err != nil {
		return err
	}
	if len(outer) != 2 {
		return fmt.Errorf("mir: expected 2 elements, got %d", len(outer))
	}
	var inner []cbor.RawMessage
	if err := cbor.Decode(outer[1], &inner); err != nil {
		return err
	}
	if len(inner) != 2 {
		return fmt.Errorf("mir: inner expected 2 elements, got %d", len(inner))
	}
	var pot uint
	if err := cbor.Decode(inner[0], &pot); err != nil {
		return err
	}
	c.Pot = MIRPot(pot)
	return cbor.Decode(inner[1], &c.Rewards)
}

// Drep identifies a delegated representative target for a vote-delegation
// certificate: a credential-backed DRep, or the two protocol sentinels.
type DrepType uint

const (
	DrepCredential         DrepType = 0
	DrepAlwaysAbstain      DrepType = 2
	DrepAlwaysNoConfidence DrepType = 3
)

type Drep struct {
	Type       DrepType
	Credential Credential
}

func NewDrepFromCredential(cred Credential) Drep {
	return Drep{Type: DrepCredential, Credential: cred}
}

func (d Drep) MarshalCBOR() ([]byte, error) {
	switch d.Type {
	case DrepCredential:
		tag := uint(0)
		if d.Credential.IsScriptHash() {
			tag = 1
		}
		return cbor.Encode([]any{tag, d.Credential.Credential})
	case DrepAlwaysAbstain:
		return cbor.Encode([]any{uint(DrepAlwaysAbstain)})
	case DrepAlwaysNoConfidence:
		return cbor.Encode([]any{uint(DrepAlwaysNoConfidence)})
	default:
		return nil, fmt.Errorf("drep: unknown type %d", d.Type)
	}
}
func (d *Drep) UnmarshalCBOR(raw []byte) error {
	var items []cbor.RawMessage
	if err := cbor.Decode(raw, &items); err != nil {
		return err
	}
	if len(items) == 0 {
		return fmt.Errorf("drep: empty array")
	}
	var typ uint
	if err := cbor.Decode(items[0], &typ); err != nil {
		return err
	}
	switch typ {
	case 0, 1:
		if len(items) != 2 {
			return fmt.Errorf("drep: credential form wants 2 elements")
		}
		var hash Blake2b224
		if err := cbor.Decode(items[1], &hash); err != nil {
			return err
		}
		d.Type = DrepCredential
		if typ == 0 {
			d.Credential = NewKeyHashCredential(hash)
		} else {
			d.Credential = NewScriptHashCredential(hash)
		}
	case 2:
		d.Type = DrepAlwaysAbstain
	case 3:
		d.Type = DrepAlwaysNoConfidence
	default:
		return fmt.Errorf("drep: unknown type %d", typ)
	}
	return nil
}

// VoteDelegationCertificate: [9, stake_credential, drep].
type VoteDelegationCertificate struct {
	CertType        uint
	StakeCredential Credential
	Drep            Drep
}

func (c VoteDelegationCertificate) MarshalCBOR() ([]byte, error) {
	return cbor.Encode([]any{uint(CertificateTypeVoteDelegation), c.StakeCredential, c.Drep})
}
func (c *VoteDelegationCertificate) UnmarshalCBOR(raw []byte) error {
	var parts struct {
		cbor.StructAsArray `cbor:",toarray"`
		Type               uint
		StakeCredential    Credential
		Drep               Drep
	}
	if err := cbor.Decode(raw, &parts); err != nil {
		return err
	}
	c.CertType, c.StakeCredential, c.Drep = uint(CertificateTypeVoteDelegation), parts.StakeCredential, parts.Drep
	return nil
}

// StakeVoteDelegationCertificate: [10, stake_credential, pool_keyhash, drep].
type StakeVoteDelegationCertificate struct {
	CertType        uint
	StakeCredential Credential
	PoolKeyHash     Blake2b224
	Drep            Drep
}

func (c StakeVoteDelegationCertificate) MarshalCBOR() ([]byte, error) {
	return cbor.Encode([]any{uint(CertificateTypeStakeVoteDelegation), c.StakeCredential, c.PoolKeyHash, c.Drep})
}
func (c *StakeVoteDelegationCertificate) UnmarshalCBOR(raw []byte) error {
	var parts struct {
		cbor.StructAsArray `cbor:",toarray"`
		Type               uint
		StakeCredential    Credential
		PoolKeyHash        Blake2b224
		Drep               Drep
	}
	if err := cbor.Decode(raw, &parts); err != nil {
		return err
	}
	c.CertType, c.StakeCredential, c.PoolKeyHash, c.Drep = uint(CertificateTypeStakeVoteDelegation), parts.StakeCredential, parts.PoolKeyHash, parts.Drep
	return nil
}

// StakeRegistrationDelegationCertificate: [11, stake_credential, pool_keyhash, coin].
type StakeRegistrationDelegationCertificate struct {
	CertType        uint
	StakeCredential Credential
	PoolKeyHash     Blake2b224
	Amount          int64
}

func (c StakeRegistrationDelegationCertificate) MarshalCBOR() ([]byte, error) {
	return cbor.Encode([]any{uint(CertificateTypeStakeRegistrationDelegation), c.StakeCredential, c.PoolKeyHash, uint64(c.Amount)})
}
func (c *StakeRegistrationDelegationCertificate) UnmarshalCBOR(raw []byte) error {
	var parts struct {
		cbor.StructAsArray `cbor:",toarray"`
		Type               uint
		StakeCredential    Credential
		PoolKeyHash        Blake2b224
		Coin               uint64
	}
	if err := cbor.Decode(raw, &parts); err != nil {
		return err
	}
	c.CertType, c.StakeCredential, c.PoolKeyHash, c.Amount = uint(CertificateTypeStakeRegistrationDelegation), parts.StakeCredential, parts.PoolKeyHash, int64(parts.Coin)
	return nil
}

// VoteRegistrationDelegationCertificate: [12, stake_credential, drep, coin].
type VoteRegistrationDelegationCertificate struct {
	CertType        uint
	StakeCredential Credential
	Drep            Drep
	Amount          int64
}

func (c VoteRegistrationDelegationCertificate) MarshalCBOR() ([]byte, error) {
	return cbor.Encode([]any{uint(CertificateTypeVoteRegistrationDelegation), c.StakeCredential, c.Drep, uint64(c.Amount)})
}
func (c *VoteRegistrationDelegationCertificate) UnmarshalCBOR(raw []byte) error {
	var parts struct {
		cbor.StructAsArray `cbor:",toarray"`
		Type               uint
		StakeCredential    Credential
		Drep               Drep
		Coin               uint64
	}
	if err := cbor.Decode(raw, &parts); err != nil {
		return err
	}
	c.CertType, c.StakeCredential, c.Drep, c.Amount = uint(CertificateTypeVoteRegistrationDelegation), parts.StakeCredential, parts.Drep, int64(parts.Coin)
	return nil
}

// StakeVoteRegistrationDelegationCertificate: [13, stake_credential, pool_keyhash, drep, coin].
type StakeVoteRegistrationDelegationCertificate struct {
	CertType        uint
	StakeCredential Credential
	PoolKeyHash     Blake2b224
	Drep            Drep
	Amount          int64
}

func (c StakeVoteRegistrationDelegationCertificate) MarshalCBOR() ([]byte, error) {
	return cbor.Encode([]any{
		uint(CertificateTypeStakeVoteRegistrationDelegation), c.StakeCredential, c.PoolKeyHash, c.Drep, uint64(c.Amount),
	})
}
func (c *StakeVoteRegistrationDelegationCertificate) UnmarshalCBOR(raw []byte) error {
	var parts struct {
		cbor.StructAsArray `cbor:",toarray"`
		Type               uint
		StakeCredential    Credential
		PoolKeyHash        Blake2b224
		Drep               Drep
		Coin               uint64
	}
	if err := cbor.Decode(raw, &parts); err != nil {
		return err
	}
	c.CertType, c.StakeCredential, c.PoolKeyHash, c.Drep, c.Amount = uint(CertificateTypeStakeVoteRegistrationDelegation), parts.StakeCredential, parts.PoolKeyHash, parts.Drep, int64(parts.Coin)
	return nil
}

// AuthCommitteeHotCertificate: [14, committee_cold_credential, committee_hot_credential].
type AuthCommitteeHotCertificate struct {
	ColdCredential Credential
	HotCredential  Credential
}

func (c AuthCommitteeHotCertificate) MarshalCBOR() ([]byte, error) {
	return cbor.Encode([]any{uint(CertificateTypeAuthCommitteeHot), c.ColdCredential, c.HotCredential})
}
func (c *AuthCommitteeHotCertificate) UnmarshalCBOR(raw []byte) error {
	var parts struct {
		cbor.StructAsArray `cbor:",toarray"`
		Type               uint
		ColdCredential     Credential
		HotCredential      Credential
	}
	if err := cbor.Decode(raw, &parts); err != nil {
		return err
	}
	c.ColdCredential, c.HotCredential = parts.ColdCredential, parts.HotCredential
	return nil
}

// ResignCommitteeColdCertificate: [15, committee_cold_credential, anchor/null].
type ResignCommitteeColdCertificate struct {
	ColdCredential Credential
	Anchor         *Anchor
}

func (c ResignCommitteeColdCertificate) MarshalCBOR() ([]byte, error) {
	return cbor.Encode([]any{uint(CertificateTypeResignCommitteeCold), c.ColdCredential, c.Anchor})
}
func (c *ResignCommitteeColdCertificate) UnmarshalCBOR(raw []byte) error {
	var parts struct {
		cbor.StructAsArray `cbor:",toarray"`
		Type               uint
		ColdCredential     Credential
		Anchor             *Anchor
	}
	if err := cbor.Decode(raw, &parts); err != nil {
		return err
	}
	c.ColdCredential, c.Anchor = parts.ColdCredential, parts.Anchor
	return nil
}

// RegisterDrepCertificate: [16, drep_credential, coin, anchor/null].
type RegisterDrepCertificate struct {
	Credential Credential
	Coin       uint64
	Anchor     *Anchor
}

func (c RegisterDrepCertificate) MarshalCBOR() ([]byte, error) {
	return cbor.Encode([]any{uint(CertificateTypeRegisterDrep), c.Credential, c.Coin, c.Anchor})
}
func (c *RegisterDrepCertificate) UnmarshalCBOR(raw []byte) error {
	var parts struct {
		cbor.StructAsArray `cbor:",toarray"`
		Type               uint
		Credential         Credential
		Coin               uint64
		Anchor             *Anchor
	}
	if err := cbor.Decode(raw, &parts); err != nil {
		return err
	}
	c.Credential, c.Coin, c.Anchor = parts.Credential, parts.Coin, parts.Anchor
	return nil
}

// UnregisterDrepCertificate: [17, drep_credential, coin].
type UnregisterDrepCertificate struct {
	Credential Credential
	Coin       uint64
}

func (c UnregisterDrepCertificate) MarshalCBOR() ([]byte, error) {
	return cbor.Encode([]any{uint(CertificateTypeUnregisterDrep), c.Credential, c.Coin})
}
func (c *UnregisterDrepCertificate) UnmarshalCBOR(raw []byte) error {
	var parts struct {
		cbor.StructAsArray `cbor:",toarray"`
		Type               uint
		Credential         Credential
		Coin               uint64
	}
	if err := cbor.Decode(raw, &parts); err != nil {
		return err
	}
	c.Credential, c.Coin = parts.Credential, parts.Coin
	return nil
}

// UpdateDrepCertificate: [18, drep_credential, anchor/null].
type UpdateDrepCertificate struct {
	Credential Credential
	Anchor     *Anchor
}

func (c UpdateDrepCertificate) MarshalCBOR() ([]byte, error) {
	return cbor.Encode([]any{uint(CertificateTypeUpdateDrep), c.Credential, c.Anchor})
}
func (c *UpdateDrepCertificate) UnmarshalCBOR(raw []byte) error {
	var parts struct {
		cbor.StructAsArray `cbor:",toarray"`
		Type               uint
		Credential         Credential
		Anchor             *Anchor
	}
	if err := cbor.Decode(raw, &parts); err != nil {
		return err
	}
	c.Credential, c.Anchor = parts.Credential, parts.Anchor
	return nil
}
