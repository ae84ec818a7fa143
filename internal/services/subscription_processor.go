package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"fintrack/internal/core"
	"fintrack/internal/ledger"
)

// SubscriptionProcessor posts due subscription charges into the ledger.
// Deduplication rides on the ledger itself: every posted charge carries
// a [sub:<name>:<period>] marker in its note, and a marker already
// present anywhere in the ledger suppresses a second post. That keeps
// the append-only CSV the only durable state the processor needs.
type SubscriptionProcessor struct {
	subs   ledger.SubscriptionStore
	reader ledger.TransactionReader
	svc    *LedgerService
}

func NewSubscriptionProcessor(subs ledger.SubscriptionStore, reader ledger.TransactionReader, svc *LedgerService) *SubscriptionProcessor {
	return &SubscriptionProcessor{
		subs:   subs,
		reader: reader,
		svc:    svc,
	}
}

// ChargeMarker returns the dedup marker for one subscription charge.
func ChargeMarker(name, periodToken string) string {
	return fmt.Sprintf("[sub:%s:%s]", name, periodToken)
}

// PostDueCharges appends one expense per subscription due at now whose
// marker is not yet in the ledger. Returns the number of posted charges.
func (p *SubscriptionProcessor) PostDueCharges(ctx context.Context, now time.Time) (int, error) {
	if p.subs == nil || p.svc == nil {
		return 0, fmt.Errorf("processor not properly initialized")
	}

	subs, err := p.subs.ListSubscriptions(ctx)
	if err != nil {
		return 0, fmt.Errorf("list subscriptions: %w", err)
	}

	txs, err := p.reader.ReadTransactions(ctx)
	if err != nil {
		return 0, fmt.Errorf("read ledger: %w", err)
	}

	slog.InfoContext(ctx, "Processing subscriptions",
		"total", len(subs),
		"processing_date", now.Format("2006-01-02"))

	posted := 0
	for _, sub := range subs {
		checker, err := GetDuenessChecker(sub.Cadence)
		if err != nil {
			slog.ErrorContext(ctx, "Skipping subscription with unknown cadence",
				"id", sub.ID, "name", sub.Name, "cadence", string(sub.Cadence))
			continue
		}

		if !checker.IsDue(sub.NextChargeDate, now) {
			continue
		}

		marker := ChargeMarker(sub.Name, checker.PeriodToken(now))
		if hasMarker(txs, marker) {
			slog.DebugContext(ctx, "Charge already posted", "marker", marker)
			continue
		}

		charge := core.Transaction{
			Date:     chargeDate(sub.Cadence, now),
			Amount:   sub.Amount.Abs().Neg(),
			Category: sub.Category,
			Note:     sub.Name + " " + marker,
		}
		saved, err := p.svc.RecordTransaction(ctx, charge)
		if err != nil {
			slog.ErrorContext(ctx, "Failed to post subscription charge",
				"subscription_id", sub.ID,
				"name", sub.Name,
				"error", err)
			continue
		}

		posted++
		slog.InfoContext(ctx, "Posted subscription charge",
			"subscription_id", sub.ID,
			"transaction_id", saved.ID,
			"name", sub.Name,
			"amount_cents", saved.Amount.Cents,
			"cadence", string(sub.Cadence))
	}

	slog.InfoContext(ctx, "Subscription processing complete",
		"posted", posted,
		"total_checked", len(subs))

	return posted, nil
}

func hasMarker(txs []core.Transaction, marker string) bool {
	for _, t := range txs {
		if strings.Contains(t.Note, marker) {
			return true
		}
	}
	return false
}

// chargeDate picks the booking date for a posted charge. Monthly and
// yearly charges clamp the day to 28 so the date exists in every month.
func chargeDate(cadence core.Cadence, now time.Time) core.Date {
	switch cadence {
	case core.Monthly, core.Yearly:
		day := now.Day()
		if day > 28 {
			day = 28
		}
		return core.NewDate(now.Year(), int(now.Month()), day)
	default:
		return core.NewDate(now.Year(), int(now.Month()), now.Day())
	}
}
