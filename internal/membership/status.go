package membership

import "time"

// ContractStatus is the derived lifecycle status of a contract.
type ContractStatus string

const (
	ContractActive    ContractStatus = "active"
	ContractSuspended ContractStatus = "suspended"
	ContractCancelled ContractStatus = "cancelled"
)

// MemberStatus is the derived lifecycle status of a member.
type MemberStatus string

const (
	MemberActive    MemberStatus = "active"
	MemberFrozen    MemberStatus = "frozen"
	MemberCancelled MemberStatus = "cancelled"
)

// ContractExpired reports whether the earlier of expiry and end falls on or
// before the calendar day of now. Contracts with neither date never expire.
func ContractExpired(expiry, end *time.Time, now time.Time) bool {
	earliest := EarlierDateTime(expiry, end)
	if earliest == nil {
		return false
	}
	// YYYY-MM-DD compares correctly as a string.
	return ToDate(*earliest) <= ToDate(now)
}

// DeriveContractStatus computes a contract's status as of now.
// ContractSuspended is never produced; active suspensions are not consulted.
func DeriveContractStatus(c Contract, now time.Time) ContractStatus {
	if ContractExpired(c.ExpiryDateTime, c.EndDateTime, now) {
		return ContractCancelled
	}
	return ContractActive
}

// DeriveMemberStatus computes a member's status from its contract statuses.
// The first matching rule wins: all contracts cancelled, then blocked,
// overdue or all suspended, then active. A member without contracts is
// cancelled.
func DeriveMemberStatus(m Member, statuses []ContractStatus) MemberStatus {
	if allContracts(statuses, ContractCancelled) {
		return MemberCancelled
	}
	if m.IsBlocked || m.OutstandingBalance > 0 || allContracts(statuses, ContractSuspended) {
		return MemberFrozen
	}
	return MemberActive
}

func allContracts(statuses []ContractStatus, want ContractStatus) bool {
	for _, s := range statuses {
		if s != want {
			return false
		}
	}
	return true
}
