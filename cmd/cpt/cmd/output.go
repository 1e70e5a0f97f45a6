package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	apiclient "github.com/donaldgifford/card-price-tracker/internal/api/client"
	domain "github.com/donaldgifford/card-price-tracker/pkg/types"
)

// tabWriter wraps tabwriter with error tracking.
type tabWriter struct {
	*tabwriter.Writer
	err error
}

func newTabWriter(w io.Writer) *tabWriter {
	return &tabWriter{Writer: tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)}
}

func (tw *tabWriter) writef(format string, args ...any) {
	if tw.err != nil {
		return
	}
	_, tw.err = fmt.Fprintf(tw.Writer, format, args...)
}

func (tw *tabWriter) finish() error {
	if tw.err != nil {
		return tw.err
	}
	return tw.Flush()
}

func printLookup(w io.Writer, r *domain.LookupResult) error {
	tw := newTabWriter(w)
	tw.writef("Query:\t%s\n", r.Query)
	tw.writef("Pass:\t%s (%d of 3)\n", r.PassUsed, r.TotalPasses)
	tw.writef("Matches:\t%d exact, %d close (ladder level %d)\n", r.ExactCount, r.CloseCount, r.LadderLevel)

	est := r.EstimatedSaleRange
	if est.Available {
		tw.writef("Estimated sale:\t$%.2f - $%.2f (%s confidence)\n", est.Low, est.High, est.Confidence)
		if est.Market != nil {
			tw.writef("Market ask:\t$%.2f median of %d (p20 $%.2f, p80 $%.2f)\n",
				est.Market.Median, est.Market.Count, est.Market.P20, est.Market.P80)
		}
	} else {
		tw.writef("Estimated sale:\tunavailable (%s)\n", est.Reason)
	}

	fs := r.ForSale
	if fs.Count > 0 {
		tw.writef("For sale:\t%d listings, $%.2f / $%.2f / $%.2f (low / median / high)\n",
			fs.Count, fs.Low, fs.Median, fs.High)
	} else {
		tw.writef("For sale:\tno matching listings\n")
	}
	if r.Stale {
		tw.writef("Cached:\tyes\n")
	}
	if err := tw.finish(); err != nil {
		return err
	}

	if len(fs.Items) > 0 {
		if _, err := fmt.Fprintln(w); err != nil {
			return err
		}
		exact := make(map[string]bool, len(r.Exact))
		for i := range r.Exact {
			exact[r.Exact[i].Candidate.ID] = true
		}
		tw = newTabWriter(w)
		tw.writef("PRICE\tTOTAL\tMATCH\tTYPE\tSOURCE\tTITLE\n")
		for i := range fs.Items {
			it := &fs.Items[i]
			match := "close"
			if exact[it.ID] {
				match = "exact"
			}
			tw.writef("$%.2f\t$%.2f\t%s\t%s\t%s\t%s\n",
				it.Price, it.TotalPrice(), match, it.ListingType, it.Source, truncate(it.Title, 70))
		}
		if err := tw.finish(); err != nil {
			return err
		}
	}

	notes := append(append([]string{}, est.Notes...), r.Disclaimers...)
	if len(notes) == 0 {
		return nil
	}
	if _, err := fmt.Fprintln(w); err != nil {
		return err
	}
	for _, n := range notes {
		if _, err := fmt.Fprintf(w, "* %s\n", n); err != nil {
			return err
		}
	}
	return nil
}

func printParse(w io.Writer, p *apiclient.ParseResponse) error {
	q := &p.Query
	tw := newTabWriter(w)
	tw.writef("Description:\t%s\n", p.Description)
	tw.writef("Player:\t%s\n", q.Player)
	if q.Year > 0 {
		tw.writef("Year:\t%d%s\n", q.Year, lockMark(p.Locked, domain.ConstraintYear))
	}
	if q.Set != "" {
		tw.writef("Set:\t%s (%s)%s\n", q.Set, q.Line, lockMark(p.Locked, domain.ConstraintLine))
	}
	if q.Brand != "" {
		tw.writef("Brand:\t%s%s\n", q.Brand, lockMark(p.Locked, domain.ConstraintBrand))
	}
	if q.CardNumber != "" {
		tw.writef("Number:\t#%s%s\n", q.CardNumber, lockMark(p.Locked, domain.ConstraintCardNumber))
	}
	if q.Parallel != "" {
		tw.writef("Parallel:\t%s%s\n", q.Parallel, lockMark(p.Locked, domain.ConstraintParallel))
	}
	if !q.Grade.IsZero() {
		tw.writef("Grade:\t%s%s\n", q.Grade.String(), lockMark(p.Locked, domain.ConstraintGrade))
	}
	if flags := cardFlags(q); flags != "" {
		tw.writef("Flags:\t%s\n", flags)
	}
	tw.writef("Tokens:\t%s\n", strings.Join(p.Tokens, " "))
	return tw.finish()
}

func printQuota(w io.Writer, q *apiclient.QuotaResponse) error {
	tw := newTabWriter(w)
	tw.writef("KEY\tUSED\tLIMIT\tERRORS\tBLOCKED UNTIL\tRESETS\n")
	for i := range q.Limiters {
		l := &q.Limiters[i]
		limit := "-"
		if l.DailyLimit > 0 {
			limit = fmt.Sprintf("%d", l.DailyLimit)
		}
		tw.writef("%s\t%d\t%s\t%d\t%s\t%s\n",
			l.Key,
			l.DailyCount,
			limit,
			l.ConsecutiveErrors,
			formatTime(l.BlockedUntil),
			formatTime(l.ResetAt),
		)
	}
	if err := tw.finish(); err != nil {
		return err
	}
	if q.Synced {
		_, err := fmt.Fprintln(w, "\nBrowse usage synced from the Analytics API.")
		return err
	}
	return nil
}

func lockMark(locked domain.LockedConstraints, c domain.Constraint) string {
	if locked.Has(c) {
		return " (locked)"
	}
	return ""
}

func cardFlags(q *domain.StructuredQuery) string {
	var flags []string
	if q.Rookie {
		flags = append(flags, "rookie")
	}
	if q.Autograph {
		flags = append(flags, "auto")
	}
	if q.Relic {
		flags = append(flags, "relic")
	}
	if q.SerialNumber != "" {
		flags = append(flags, q.SerialNumber)
	}
	return strings.Join(flags, ", ")
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Local().Format("2006-01-02 15:04:05")
}

func outputJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}
