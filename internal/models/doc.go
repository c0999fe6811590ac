// Package models defines the domain types shared by the matching engine, the reconciliation
// orchestrator and the catalog collaborators.
//
// The package contains three groups of types:
//
// 1. Catalog snapshots
//   - [Item] : canonical playlist entry or search candidate from either catalog
//   - [Direction] : which catalog plays the source role for a leg
//
// 2. Matching outcomes
//   - [MatchResult] : best candidate or a typed [Reason] for one match attempt
//
// 3. Reconciliation state
//   - [SyncCache] : persisted per-playlist idempotency document
//   - [Plan] and [PlanEntry] : ordered add / map-only / skip decisions for one leg
//   - [RunRecord] : summary of a completed leg, kept by the SQLite backend
//
// Items are immutable snapshots for the duration of a run; the orchestrator compares them but never
// mutates them. Only [SyncCache] is mutated, and only in memory until a non-dry-run pass persists it.
package models
