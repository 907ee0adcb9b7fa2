// Package purge implements the deletion-orchestration engine: loading the
// exclusion set, partitioning listed organizations into a plan, gating the
// plan behind an exact confirmation phrase, executing deletions one by one
// with per-item retry and failure isolation, and aggregating the run report.
//
// The pipeline is strictly staged: Lister -> Planner -> Gate -> Executor ->
// Reporter. Deletions are issued sequentially on purpose; destructive calls
// against a rate-limited API are not parallelized.
package purge
