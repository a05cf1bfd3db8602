package orchestrator

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/capitalize-ai/order-capture/internal/fuzzy"
	"github.com/capitalize-ai/order-capture/internal/model"
	"github.com/capitalize-ai/order-capture/internal/order"
	"github.com/capitalize-ai/order-capture/internal/pricing"
	"github.com/capitalize-ai/order-capture/pkg/metrics"
)

func (o *Orchestrator) extract(ctx context.Context, t *turn) (Outcome, error) {
	t.extractions++
	st := t.state

	ectx, cancel := context.WithTimeout(ctx, o.cfg.ExtractionTimeout)
	partial, err := o.extractor.Extract(ectx, t.text)
	cancel()
	if err != nil {
		if isCanceled(ctx) {
			return 0, ctx.Err()
		}
		t.log.Warn("extraction failed, continuing with empty fragment", zap.Error(err))
		t.result.ExtractionErr = err
		o.addWarning(t, WarnExtractionFailed)
		partial = model.Order{}
	}

	unknown := unresolvedNames(st)
	base := applyChoices(st.Order, partial, st.PendingChoices, t.text)
	base, partial = replaceUnresolved(base, partial, unknown)
	st.Order = order.Merge(base, partial)
	st.PendingChoices = nil
	st.Pricing = nil
	return OutcomeExtracted, nil
}

// applyChoices renames items that were waiting on a suggestion once the
// user has picked one of the candidates, either by name or by its 1-based
// position in the list.
func applyChoices(o model.Order, partial model.Order, choices []model.ItemChoice, text string) model.Order {
	if len(choices) == 0 {
		return o
	}
	out := o.Clone()
	reply := strings.TrimSpace(text)
	for _, c := range choices {
		if c.Index < 0 || c.Index >= len(out.Items) || !strings.EqualFold(out.Items[c.Index].Name, c.Query) {
			continue
		}
		if pick := chooseCandidate(c, partial, reply, len(choices) == 1); pick != "" {
			out.Items[c.Index].Name = pick
		}
	}
	out.Items = order.Consolidate(out.Items)
	return out
}

func chooseCandidate(c model.ItemChoice, partial model.Order, reply string, only bool) string {
	for _, cand := range c.Candidates {
		for _, it := range partial.Items {
			if strings.EqualFold(strings.TrimSpace(it.Name), cand) {
				return cand
			}
		}
		if strings.EqualFold(reply, cand) {
			return cand
		}
	}
	if only {
		if n, err := strconv.Atoi(reply); err == nil && n >= 1 && n <= len(c.Candidates) {
			return c.Candidates[n-1]
		}
	}
	return ""
}

// unresolvedNames returns the lowercased names of items the last
// clarification could not place in the catalog.
func unresolvedNames(st *model.ConversationState) map[string]bool {
	names := map[string]bool{}
	for _, f := range st.MissingFields {
		i, field, ok := order.ParseItemField(f)
		if !ok || field != "name" || i >= len(st.Order.Items) {
			continue
		}
		names[strings.ToLower(strings.TrimSpace(st.Order.Items[i].Name))] = true
	}
	return names
}

// replaceUnresolved drops items that are still unresolved once the user
// names items the order does not have yet. The k-th new item takes the
// quantity and size of the k-th dropped one when it carries none.
func replaceUnresolved(o, partial model.Order, names map[string]bool) (model.Order, model.Order) {
	if len(names) == 0 {
		return o, partial
	}
	var fresh []int
	for i, it := range partial.Items {
		if strings.TrimSpace(it.Name) != "" && order.Match(o.Items, it) < 0 {
			fresh = append(fresh, i)
		}
	}
	if len(fresh) == 0 {
		return o, partial
	}

	out := o.Clone()
	out.Items = out.Items[:0]
	var dropped []model.OrderItem
	for _, it := range o.Items {
		if names[strings.ToLower(strings.TrimSpace(it.Name))] {
			dropped = append(dropped, it)
			continue
		}
		out.Items = append(out.Items, it)
	}
	if len(dropped) == 0 {
		return o, partial
	}

	next := partial.Clone()
	for k, i := range fresh {
		if k >= len(dropped) {
			break
		}
		if !next.Items[i].HasQuantity() {
			next.Items[i].Quantity = dropped[k].Quantity
		}
		if !next.Items[i].HasSize() {
			next.Items[i].SizeOrWeight = dropped[k].SizeOrWeight
		}
	}
	return out, next
}

func (o *Orchestrator) clarify(ctx context.Context, t *turn) (Outcome, error) {
	st := t.state
	var (
		unresolved []int
		choices    []model.ItemChoice
	)

	if o.index.Len() == 0 {
		o.addWarning(t, WarnCatalogUnavailable)
	} else {
		results := make(map[string]fuzzy.Result, len(st.Order.Items))
		for i, it := range st.Order.Items {
			res := o.resolver.Resolve(it.Name)
			results[strings.ToLower(it.Name)] = res
			metrics.FuzzyResolutions.WithLabelValues(res.Tier.String()).Inc()
			if res.Tier == fuzzy.TierHighConfidence {
				st.Order.Items[i].Name = res.Entry.Name
			}
		}
		st.Order.Items = order.Consolidate(st.Order.Items)

		for i, it := range st.Order.Items {
			if t.unpriced[strings.ToLower(it.Name)] {
				unresolved = append(unresolved, i)
				continue
			}
			res, ok := results[strings.ToLower(it.Name)]
			if !ok {
				// renamed to a canonical name above
				continue
			}
			switch res.Tier {
			case fuzzy.TierSuggest:
				unresolved = append(unresolved, i)
				choices = append(choices, model.ItemChoice{Index: i, Query: it.Name, Candidates: res.CandidateNames()})
			case fuzzy.TierNone:
				unresolved = append(unresolved, i)
			}
		}
	}

	st.MissingFields = order.Missing(st.Order, unresolved...)
	st.PendingChoices = choices
	if len(st.MissingFields) == 0 {
		return OutcomeReady, nil
	}

	cctx, cancel := context.WithTimeout(ctx, o.cfg.ClarificationTimeout)
	question, err := o.composer.ComposeClarification(cctx, st.Order, st.MissingFields, st.PendingChoices)
	cancel()
	if err != nil {
		if isCanceled(ctx) {
			return 0, ctx.Err()
		}
		t.log.Warn("clarification compose failed, using template", zap.Error(err))
		question = FallbackQuestion(st.Order, st.MissingFields, st.PendingChoices)
	}
	st.AssistantMessage = question
	return OutcomeIncomplete, nil
}

func (o *Orchestrator) validate(t *turn) (Outcome, error) {
	err := order.Validate(t.state.Order, o.cfg.Limits)
	if err == nil {
		return OutcomeValid, nil
	}

	var verr *order.ValidationError
	if !errors.As(err, &verr) {
		return 0, err
	}
	t.log.Info("order failed validation", zap.Strings("problems", verr.Problems))
	t.state.AssistantMessage = InvalidMessage(verr.Problems)
	return OutcomeInvalid, nil
}

func (o *Orchestrator) price(t *turn) (Outcome, error) {
	st := t.state
	breakdown, err := o.calc.Price(st.Order)

	var unresolved *pricing.UnresolvedError
	switch {
	case err == nil:
	case errors.Is(err, pricing.ErrCatalogUnavailable):
		t.log.Error("pricing without a catalog", zap.Error(err))
		o.addWarning(t, WarnCatalogUnavailable)
	case errors.As(err, &unresolved):
		t.log.Warn("pricing found unresolved items", zap.Strings("items", unresolved.Names))
		for _, n := range unresolved.Names {
			t.unpriced[strings.ToLower(n)] = true
		}
		st.Pricing = nil
		return OutcomeUnpriceable, nil
	default:
		return 0, err
	}

	st.Pricing = breakdown
	return OutcomePriced, nil
}

func (o *Orchestrator) confirm(t *turn) (Outcome, error) {
	st := t.state
	if t.prev == model.StagePricing {
		st.AssistantMessage = Summary(st.Pricing, st.Warnings)
		return OutcomePresented, nil
	}
	if IsAffirmation(t.text) {
		if !st.Pricing.CatalogUnavailable {
			return OutcomeAffirmed, nil
		}
		if o.index.Len() > 0 {
			return OutcomeStalePrice, nil
		}
		o.addWarning(t, WarnCatalogUnavailable)
		st.AssistantMessage = UnpricedMessage()
		return OutcomePresented, nil
	}
	st.Pricing = nil
	return OutcomeRejected, nil
}

func (o *Orchestrator) fulfill(t *turn) (Outcome, error) {
	id, err := o.newID()
	if err != nil {
		return 0, err
	}
	st := t.state
	st.OrderID = id.String()
	st.MissingFields = []string{}
	st.AssistantMessage = FulfilledMessage(st.OrderID)
	t.result.Fulfilled = true
	t.log.Info("order fulfilled",
		zap.String("order_id", st.OrderID),
		zap.Int64("grand_total", st.Pricing.GrandTotal),
	)
	return OutcomeFulfilled, nil
}
