package finance

import (
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"
)

// Snapshot is a point-in-time view of the collections reconciliation reads
type Snapshot struct {
	ShipmentIDs  []uuid.UUID
	Costs        []Cost
	Applications []Application
}

// ReconcileReport counts the rows each reconciliation step changed
type ReconcileReport struct {
	OrphanCostsDeleted   int `json:"orphan_costs_deleted"`
	InvalidCostsDeleted  int `json:"invalid_costs_deleted"`
	LinksCleared         int `json:"links_cleared"`
	ApplicationsDeleted  int `json:"applications_deleted"`
	ApplicationsZeroed   int `json:"applications_zeroed"`
	ApplicationsRebuilt  int `json:"applications_rebuilt"`
	SettledWithoutNumber int `json:"settled_without_number"`
	AppliedWithoutNumber int `json:"applied_without_number"`
}

// Total returns the number of changes across all steps
func (r ReconcileReport) Total() int {
	return r.OrphanCostsDeleted + r.InvalidCostsDeleted + r.LinksCleared +
		r.ApplicationsDeleted + r.ApplicationsZeroed + r.ApplicationsRebuilt +
		r.SettledWithoutNumber + r.AppliedWithoutNumber
}

// IsClean reports whether the pass found nothing to repair
func (r ReconcileReport) IsClean() bool {
	return r.Total() == 0
}

// FindOrphanCosts returns costs whose shipment is not among shipmentIDs
func FindOrphanCosts(costs []Cost, shipmentIDs []uuid.UUID) []Cost {
	known := lo.SliceToMap(shipmentIDs, func(id uuid.UUID) (uuid.UUID, struct{}) {
		return id, struct{}{}
	})
	return lo.Filter(costs, func(c Cost, _ int) bool {
		_, ok := known[c.ShipmentID]
		return !ok
	})
}

// FindInvalidCosts returns costs missing a required attribute
func FindInvalidCosts(costs []Cost) []Cost {
	return lo.Filter(costs, func(c Cost, _ int) bool {
		return !c.IsComplete()
	})
}

// FindDanglingLinks returns costs that carry application fields they should
// not: a number that matches no application, or any linkage at all on an
// unapplied cost.
func FindDanglingLinks(costs []Cost, applications []Application) []Cost {
	numbers := lo.SliceToMap(applications, func(a Application) (string, struct{}) {
		return a.Number, struct{}{}
	})
	return lo.Filter(costs, func(c Cost, _ int) bool {
		if c.Status == CostStatusUnapplied {
			return c.HasApplicationFields()
		}
		if !c.HasApplicationNumber() {
			return false
		}
		_, ok := numbers[*c.ApplicationNumber]
		return !ok
	})
}

// AggregatePlan is the rebuild outcome for one application. Application
// holds the recomputed values.
type AggregatePlan struct {
	Action      RebuildAction
	Application Application
}

// PlanAggregateRebuild recomputes every application from its members and
// returns the ones whose stored aggregate is wrong.
func PlanAggregateRebuild(applications []Application, costs []Cost, now time.Time) []AggregatePlan {
	members := lo.GroupBy(
		lo.Filter(costs, func(c Cost, _ int) bool { return c.HasApplicationNumber() }),
		func(c Cost) string { return *c.ApplicationNumber },
	)

	plans := make([]AggregatePlan, 0)
	for _, app := range applications {
		rebuilt := app
		action := rebuilt.Rebuild(members[app.Number], now)
		if action == RebuildNone {
			continue
		}
		plans = append(plans, AggregatePlan{Action: action, Application: rebuilt})
	}
	return plans
}

// FindStatusViolations returns settled and applied costs that have lost
// their application number.
func FindStatusViolations(costs []Cost) (settled []Cost, applied []Cost) {
	for _, c := range costs {
		if c.HasApplicationNumber() {
			continue
		}
		switch c.Status {
		case CostStatusSettled:
			settled = append(settled, c)
		case CostStatusApplied:
			applied = append(applied, c)
		}
	}
	return settled, applied
}

// Reconcile runs every reconciliation step over a snapshot and returns the
// repaired snapshot. It never touches storage and is used for previews and
// as the reference for the store-backed sweep.
func Reconcile(s Snapshot, now time.Time) (Snapshot, ReconcileReport) {
	var report ReconcileReport
	costs := cloneCosts(s.Costs)
	apps := append([]Application(nil), s.Applications...)

	orphans := FindOrphanCosts(costs, s.ShipmentIDs)
	report.OrphanCostsDeleted = len(orphans)
	costs = withoutCosts(costs, orphans)

	invalid := FindInvalidCosts(costs)
	report.InvalidCostsDeleted = len(invalid)
	costs = withoutCosts(costs, invalid)

	dangling := lo.SliceToMap(FindDanglingLinks(costs, apps), func(c Cost) (uuid.UUID, struct{}) {
		return c.ID, struct{}{}
	})
	report.LinksCleared = len(dangling)
	for i := range costs {
		if _, ok := dangling[costs[i].ID]; ok {
			costs[i].Unapply(now)
		}
	}

	plans := lo.SliceToMap(PlanAggregateRebuild(apps, costs, now), func(p AggregatePlan) (string, AggregatePlan) {
		return p.Application.Number, p
	})
	kept := make([]Application, 0, len(apps))
	for _, app := range apps {
		plan, ok := plans[app.Number]
		if !ok {
			kept = append(kept, app)
			continue
		}
		switch plan.Action {
		case RebuildDelete:
			report.ApplicationsDeleted++
			continue
		case RebuildZero:
			report.ApplicationsZeroed++
		case RebuildUpdate:
			report.ApplicationsRebuilt++
		}
		kept = append(kept, plan.Application)
	}
	apps = kept

	settled, _ := FindStatusViolations(costs)
	report.SettledWithoutNumber = len(settled)
	for i := range costs {
		if !costs[i].HasApplicationNumber() && costs[i].Status == CostStatusSettled {
			costs[i].RevertSettlement(now)
		}
	}
	_, applied := FindStatusViolations(costs)
	report.AppliedWithoutNumber = len(applied)
	for i := range costs {
		if !costs[i].HasApplicationNumber() && costs[i].Status == CostStatusApplied {
			costs[i].Unapply(now)
		}
	}

	return Snapshot{ShipmentIDs: s.ShipmentIDs, Costs: costs, Applications: apps}, report
}

func cloneCosts(costs []Cost) []Cost {
	return append([]Cost(nil), costs...)
}

func withoutCosts(costs, remove []Cost) []Cost {
	ids := lo.SliceToMap(remove, func(c Cost) (uuid.UUID, struct{}) {
		return c.ID, struct{}{}
	})
	return lo.Filter(costs, func(c Cost, _ int) bool {
		_, drop := ids[c.ID]
		return !drop
	})
}
