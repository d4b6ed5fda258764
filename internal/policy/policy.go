// Package policy holds the pure validation rules applied to a proposed
// transfer. Evaluate performs no I/O; it is a function of the source account,
// the authenticated principal and the request.
package policy

import (
	"fmt"

	"github.com/kinpay/kinpay/internal/account"
	"github.com/kinpay/kinpay/internal/principal"
)

// Kind enumerates the violations a transfer request can trigger.
type Kind string

const (
	// KindServiceNotPermitted: a child principal used a service outside its allowlist.
	KindServiceNotPermitted Kind = "service_not_permitted"
	// KindWithdrawalLimitExceeded: the rolling cash cap would be exceeded.
	KindWithdrawalLimitExceeded Kind = "withdrawal_limit_exceeded"
	// KindPerTransactionLimitExceeded: the value exceeds the single-transfer cap.
	KindPerTransactionLimitExceeded Kind = "per_transaction_limit_exceeded"
	// KindInsufficientFunds: the source balance cannot cover the value.
	KindInsufficientFunds Kind = "insufficient_funds"
	// KindPinMismatch: the supplied PIN does not match the principal's PIN.
	KindPinMismatch Kind = "pin_mismatch"
)

// Violation is a policy rejection. It carries no account state beyond the kind.
type Violation struct {
	Kind    Kind
	Message string
}

func (v Violation) Error() string {
	return v.Message
}

// Request captures the caller-supplied facts Evaluate checks.
type Request struct {
	Value      int64
	PIN        string
	ServiceTag string
}

// Evaluate runs the ordered checks; the first failing check wins. Permission
// and cap checks precede the balance check so authorization failures never
// leak balance information, and the PIN comparison runs last so only valid,
// in-policy requests reach it.
func Evaluate(source account.Account, p principal.Principal, req Request) error {
	if p.Role == principal.RoleChild && req.ServiceTag != "" {
		if !p.ServiceAllowed(req.ServiceTag) {
			return Violation{Kind: KindServiceNotPermitted, Message: "this service is not available for you"}
		}
	}

	if source.Type == account.TypeWallet {
		if source.RollingCashUsed+req.Value > source.CashWithdrawalLimit {
			return Violation{Kind: KindWithdrawalLimitExceeded, Message: "you have exceeded the cash withdrawal limit; change this limit or wait for a new month"}
		}
		if req.Value > source.LimitPerTransaction {
			return Violation{Kind: KindPerTransactionLimitExceeded, Message: fmt.Sprintf("value %d is greater than your transaction limit", req.Value)}
		}
	}

	if source.Balance < req.Value {
		return Violation{Kind: KindInsufficientFunds, Message: fmt.Sprintf("your balance is less than the required value %d", req.Value)}
	}

	if !p.VerifyPIN(req.PIN) {
		return Violation{Kind: KindPinMismatch, Message: "your pin is wrong"}
	}

	return nil
}
