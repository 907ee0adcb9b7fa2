package purge

import "github.com/snykops/orgreap/snykapi"

// Plan is the total, disjoint partition of the listed organizations.
// Order within each side is the server order, so previews are reproducible
// across dry and live runs given identical server state.
type Plan struct {
	Protected  []snykapi.Organization
	Candidates []snykapi.Organization
}

// Total returns the number of organizations in the plan.
func (p Plan) Total() int {
	return len(p.Protected) + len(p.Candidates)
}

// BuildPlan partitions the organizations against the exclusion set. Pure
// function, no I/O; every input organization lands on exactly one side.
func BuildPlan(orgs []snykapi.Organization, exclusions *ExclusionSet) Plan {
	var plan Plan
	for _, org := range orgs {
		if exclusions.Matches(org) {
			plan.Protected = append(plan.Protected, org)
		} else {
			plan.Candidates = append(plan.Candidates, org)
		}
	}
	return plan
}
