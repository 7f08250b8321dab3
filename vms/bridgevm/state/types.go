// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package state

import (
	"fmt"
	"slices"
	"strconv"

	"github.com/luxfi/ids"

	"github.com/luxfi/bridge/utils/math"
	"github.com/luxfi/bridge/vms/bridgevm/signer"
)

// ChainID is the numeric id of an external chain. Any value not listed below
// is treated as a custom chain.
type ChainID uint32

const (
	ChainEthereum  ChainID = 1
	ChainOptimism  ChainID = 10
	ChainBSC       ChainID = 56
	ChainPolygon   ChainID = 137
	ChainArbitrum  ChainID = 42161
	ChainAvalanche ChainID = 43114
)

func (c ChainID) String() string {
	switch c {
	case ChainEthereum:
		return "ethereum"
	case ChainOptimism:
		return "optimism"
	case ChainBSC:
		return "bsc"
	case ChainPolygon:
		return "polygon"
	case ChainArbitrum:
		return "arbitrum"
	case ChainAvalanche:
		return "avalanche"
	default:
		return "custom-" + strconv.FormatUint(uint64(c), 10)
	}
}

// Direction of a bridge request relative to the home ledger.
type Direction uint8

const (
	Outbound Direction = iota
	Inbound
)

func (d Direction) String() string {
	switch d {
	case Outbound:
		return "outbound"
	case Inbound:
		return "inbound"
	default:
		return "unknown"
	}
}

func (d Direction) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

func (d *Direction) UnmarshalText(b []byte) error {
	return unmarshalName(b, d, Outbound, Inbound)
}

// Status of a bridge request. Approved is only ever observed inside the
// transaction that finalizes the request.
type Status uint8

const (
	Pending Status = iota
	Approved
	Completed
	Rejected
	Cancelled
	Expired
)

func (s Status) String() string {
	switch s {
	case Pending:
		return "pending"
	case Approved:
		return "approved"
	case Completed:
		return "completed"
	case Rejected:
		return "rejected"
	case Cancelled:
		return "cancelled"
	case Expired:
		return "expired"
	default:
		return "unknown"
	}
}

func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *Status) UnmarshalText(b []byte) error {
	return unmarshalName(b, s, Pending, Approved, Completed, Rejected, Cancelled, Expired)
}

// unmarshalName sets v to the candidate whose String matches b.
func unmarshalName[T fmt.Stringer](b []byte, v *T, candidates ...T) error {
	for _, c := range candidates {
		if c.String() == string(b) {
			*v = c
			return nil
		}
	}
	return fmt.Errorf("%w: %q", errUnknownName, b)
}

// Terminal reports whether no further transition is possible.
func (s Status) Terminal() bool {
	return s >= Completed
}

// ValidatorSet is the current signer set and its approval threshold.
type ValidatorSet struct {
	Validators []ids.ShortID `serialize:"true" json:"validators"`
	Threshold  uint32        `serialize:"true" json:"threshold"`
	Version    uint64        `serialize:"true" json:"version"`
	UpdatedAt  uint64        `serialize:"true" json:"updatedAt"`
}

func (s *ValidatorSet) Len() int {
	return len(s.Validators)
}

func (s *ValidatorSet) Contains(validator ids.ShortID) bool {
	return slices.Contains(s.Validators, validator)
}

// Remove deletes validator, keeping the order of the others.
func (s *ValidatorSet) Remove(validator ids.ShortID) bool {
	i := slices.Index(s.Validators, validator)
	if i < 0 {
		return false
	}
	s.Validators = slices.Delete(s.Validators, i, i+1)
	return true
}

// PendingUpgrade is a proposed replacement of the whole validator set.
type PendingUpgrade struct {
	Validators  []ids.ShortID `serialize:"true" json:"validators"`
	Threshold   uint32        `serialize:"true" json:"threshold"`
	ProposedAt  uint64        `serialize:"true" json:"proposedAt"`
	EffectiveAt uint64        `serialize:"true" json:"effectiveAt"`
	Proposer    ids.ShortID   `serialize:"true" json:"proposer"`
}

// ChainConfig holds the operational limits of one external chain.
type ChainConfig struct {
	ChainID           ChainID `serialize:"true" json:"chainID"`
	IsActive          bool    `serialize:"true" json:"isActive"`
	MinConfirmations  uint32  `serialize:"true" json:"minConfirmations"`
	MaxTransferAmount uint64  `serialize:"true" json:"maxTransferAmount"`
	DailyLimit        uint64  `serialize:"true" json:"dailyLimit"`
	DailyVolume       uint64  `serialize:"true" json:"dailyVolume"`
	WindowStart       uint64  `serialize:"true" json:"windowStart"`
	FeeBps            uint32  `serialize:"true" json:"feeBps"`
	ExpirySeconds     uint64  `serialize:"true" json:"expirySeconds"`
}

// RefreshWindow starts a new volume window if the current one, of the given
// length in seconds, has elapsed at now.
func (c *ChainConfig) RefreshWindow(now, window uint64) bool {
	end, err := math.Add(c.WindowStart, window)
	if err == nil && now < end {
		return false
	}
	c.DailyVolume = 0
	c.WindowStart = now
	return true
}

// WrappedAsset tracks collateral locked on the home ledger against supply
// minted for one external chain.
type WrappedAsset struct {
	Asset            ids.ID  `serialize:"true" json:"asset"`
	ChainID          ChainID `serialize:"true" json:"chainID"`
	ExternalContract []byte  `serialize:"true" json:"externalContract"`
	HomeDecimals     uint8   `serialize:"true" json:"homeDecimals"`
	ExternalDecimals uint8   `serialize:"true" json:"externalDecimals"`
	TotalLocked      uint64  `serialize:"true" json:"totalLocked"`
	TotalMinted      uint64  `serialize:"true" json:"totalMinted"`
	IsActive         bool    `serialize:"true" json:"isActive"`
	BackingRatioBps  uint64  `serialize:"true" json:"backingRatioBps"`
}

// ToHome converts an amount in external-chain units to home units.
func (a *WrappedAsset) ToHome(amount uint64) (uint64, error) {
	return rescale(amount, a.ExternalDecimals, a.HomeDecimals)
}

// ToExternal converts an amount in home units to external-chain units.
func (a *WrappedAsset) ToExternal(amount uint64) (uint64, error) {
	return rescale(amount, a.HomeDecimals, a.ExternalDecimals)
}

// rescale truncates when scaling down.
func rescale(amount uint64, from, to uint8) (uint64, error) {
	switch {
	case from == to:
		return amount, nil
	case from > to:
		d, err := math.Pow10(from - to)
		if err != nil {
			// any uint64 divided by >= 10^20 is zero
			return 0, nil
		}
		return amount / d, nil
	default:
		m, err := math.Pow10(to - from)
		if err != nil {
			if amount == 0 {
				return 0, nil
			}
			return 0, err
		}
		return math.Mul(amount, m)
	}
}

// Request is a bridge transfer and its tally. Requests are never deleted.
type Request struct {
	ID                uint64      `serialize:"true" json:"id"`
	Direction         Direction   `serialize:"true" json:"direction"`
	Initiator         ids.ShortID `serialize:"true" json:"initiator"`
	Asset             ids.ID      `serialize:"true" json:"asset"`
	GrossAmount       uint64      `serialize:"true" json:"grossAmount"`
	FeeAmount         uint64      `serialize:"true" json:"feeAmount"`
	NetAmount         uint64      `serialize:"true" json:"netAmount"`
	ChainID           ChainID     `serialize:"true" json:"chainID"`
	ExternalAddress   []byte      `serialize:"true" json:"externalAddress"`
	ExternalTxHash    []byte      `serialize:"true" json:"externalTxHash"`
	Status            Status      `serialize:"true" json:"status"`
	CreatedAt         uint64      `serialize:"true" json:"createdAt"`
	ExpiresAt         uint64      `serialize:"true" json:"expiresAt"`
	CompletedAt       uint64      `serialize:"true" json:"completedAt"`
	ApprovalCount     uint32      `serialize:"true" json:"approvalCount"`
	RejectionCount    uint32      `serialize:"true" json:"rejectionCount"`
	RequiredApprovals uint32      `serialize:"true" json:"requiredApprovals"`
	Nonce             uint64      `serialize:"true" json:"nonce"`
}

// Payload returns the bytes validators sign to vote on r.
func (r *Request) Payload() []byte {
	return signer.Payload(r.ID, r.NetAmount, uint32(r.ChainID), r.ExternalAddress)
}

func (r *Request) String() string {
	return fmt.Sprintf("%s request %d (%s)", r.Direction, r.ID, r.Status)
}

// Vote is a validator's signed decision on a request.
type Vote struct {
	Validator  ids.ShortID `serialize:"true" json:"validator"`
	RequestID  uint64      `serialize:"true" json:"requestID"`
	Approved   bool        `serialize:"true" json:"approved"`
	SignedAt   uint64      `serialize:"true" json:"signedAt"`
	Signature  []byte      `serialize:"true" json:"signature"`
	SetVersion uint64      `serialize:"true" json:"setVersion"`
}

// Stats are bridge-wide counters plus the pause flag.
type Stats struct {
	TotalRequests      uint64 `serialize:"true" json:"totalRequests"`
	TotalCompleted     uint64 `serialize:"true" json:"totalCompleted"`
	TotalRejected      uint64 `serialize:"true" json:"totalRejected"`
	TotalCancelled     uint64 `serialize:"true" json:"totalCancelled"`
	TotalExpired       uint64 `serialize:"true" json:"totalExpired"`
	TotalVolume        uint64 `serialize:"true" json:"totalVolume"`
	TotalFeesCollected uint64 `serialize:"true" json:"totalFeesCollected"`
	IsPaused           bool   `serialize:"true" json:"isPaused"`
	PauseReason        string `serialize:"true" json:"pauseReason"`
}

type EventType uint8

const (
	EventBridgeInitialized EventType = iota + 1
	EventAssetRegistered
	EventAssetStatusChanged
	EventChainConfigured
	EventChainStatusChanged
	EventRequestInitiated
	EventValidatorVoted
	EventRequestCompleted
	EventRequestRejected
	EventRequestCancelled
	EventRequestExpired
	EventValidatorAdded
	EventValidatorRemoved
	EventPauseToggled
	EventUpgradeProposed
	EventUpgradeApplied
	EventFeeCollectorChanged
)

var eventTypeNames = map[EventType]string{
	EventBridgeInitialized:   "bridgeInitialized",
	EventAssetRegistered:     "assetRegistered",
	EventAssetStatusChanged:  "assetStatusChanged",
	EventChainConfigured:     "chainConfigured",
	EventChainStatusChanged:  "chainStatusChanged",
	EventRequestInitiated:    "requestInitiated",
	EventValidatorVoted:      "validatorVoted",
	EventRequestCompleted:    "requestCompleted",
	EventRequestRejected:     "requestRejected",
	EventRequestCancelled:    "requestCancelled",
	EventRequestExpired:      "requestExpired",
	EventValidatorAdded:      "validatorAdded",
	EventValidatorRemoved:    "validatorRemoved",
	EventPauseToggled:        "pauseToggled",
	EventUpgradeProposed:     "upgradeProposed",
	EventUpgradeApplied:      "upgradeApplied",
	EventFeeCollectorChanged: "feeCollectorChanged",
}

func (t EventType) String() string {
	if name, ok := eventTypeNames[t]; ok {
		return name
	}
	return "unknown"
}

func (t EventType) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

func (t *EventType) UnmarshalText(b []byte) error {
	for eventType, name := range eventTypeNames {
		if name == string(b) {
			*t = eventType
			return nil
		}
	}
	return fmt.Errorf("%w: %q", errUnknownName, b)
}

// Event is one entry of the bridge's append-only log. Fields that do not
// apply to an event type are left zero.
type Event struct {
	Seq               uint64      `serialize:"true" json:"seq"`
	Type              EventType   `serialize:"true" json:"type"`
	Timestamp         uint64      `serialize:"true" json:"timestamp"`
	Actor             ids.ShortID `serialize:"true" json:"actor"`
	RequestID         uint64      `serialize:"true" json:"requestID"`
	Direction         Direction   `serialize:"true" json:"direction"`
	Status            Status      `serialize:"true" json:"status"`
	Asset             ids.ID      `serialize:"true" json:"asset"`
	ChainID           ChainID     `serialize:"true" json:"chainID"`
	Amount            uint64      `serialize:"true" json:"amount"`
	Fee               uint64      `serialize:"true" json:"fee"`
	Approved          bool        `serialize:"true" json:"approved"`
	ApprovalCount     uint32      `serialize:"true" json:"approvalCount"`
	RejectionCount    uint32      `serialize:"true" json:"rejectionCount"`
	RequiredApprovals uint32      `serialize:"true" json:"requiredApprovals"`
	// Subject is the validator or account the event is about.
	Subject           ids.ShortID `serialize:"true" json:"subject"`
	SetVersion        uint64      `serialize:"true" json:"setVersion"`
	Threshold         uint32      `serialize:"true" json:"threshold"`
	ValidatorCount    uint32      `serialize:"true" json:"validatorCount"`
	EffectiveAt       uint64      `serialize:"true" json:"effectiveAt"`
	Flag              bool        `serialize:"true" json:"flag"`
	Reason            string      `serialize:"true" json:"reason"`
}
