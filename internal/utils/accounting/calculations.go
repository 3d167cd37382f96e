package accounting

import (
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/theaavashh/xyxx-sub001/internal/core/domain"
)

// BalanceTolerance is the maximum allowed |totalDebit - totalCredit| for a
// journal entry to be accepted as balanced. It absorbs rounding on computed
// amounts (e.g. VAT); anything beyond it is a validation failure.
var BalanceTolerance = decimal.NewFromFloat(0.01)

// SignedDelta returns the debit-positive signed effect of a journal line on
// its account's running balance: +amount for debits, -amount for credits.
func SignedDelta(line domain.JournalLine) decimal.Decimal {
	if line.Side == domain.Credit {
		return line.Amount.Neg()
	}
	return line.Amount
}

// EntryTotals recomputes the debit and credit totals of a set of lines.
func EntryTotals(lines []domain.JournalLine) (totalDebit, totalCredit decimal.Decimal) {
	totalDebit = decimal.Zero
	totalCredit = decimal.Zero
	for _, line := range lines {
		if line.Side == domain.Debit {
			totalDebit = totalDebit.Add(line.Amount)
		} else {
			totalCredit = totalCredit.Add(line.Amount)
		}
	}
	return totalDebit, totalCredit
}

// IsBalanced reports whether debit and credit totals agree within tolerance.
func IsBalanced(totalDebit, totalCredit decimal.Decimal) bool {
	return totalDebit.Sub(totalCredit).Abs().LessThanOrEqual(BalanceTolerance)
}

// BalanceSide reports the side a debit-positive signed balance falls on.
// A zero balance is reported on the debit side.
func BalanceSide(signed decimal.Decimal) domain.BalanceSide {
	if signed.IsNegative() {
		return domain.CreditBalance
	}
	return domain.DebitBalance
}

// NaturalBalance converts a debit-positive signed balance into the
// magnitude conventionally reported for the account type: debit-normal
// accounts (asset, expense) keep the sign, credit-normal accounts
// (liability, equity, revenue) flip it.
func NaturalBalance(accountType domain.AccountType, signed decimal.Decimal) (decimal.Decimal, error) {
	switch accountType {
	case domain.Asset, domain.Expense:
		return signed, nil
	case domain.Liability, domain.Equity, domain.Revenue:
		return signed.Neg(), nil
	default:
		return decimal.Zero, fmt.Errorf("unknown account type '%s'", accountType)
	}
}

// ComputeVAT returns the VAT amount for a taxable amount at a percentage
// rate, rounded half-up to 2 decimal places.
func ComputeVAT(taxable decimal.Decimal, ratePercent decimal.Decimal) decimal.Decimal {
	return taxable.Mul(ratePercent).Div(decimal.NewFromInt(100)).Round(2)
}
