// Package tasks reconciles a Spotify playlist with a YouTube playlist with real-time progress reporting.
//
// # Legs
//
// A leg matches the newest items of a source playlist into a target playlist. [Reconciler.RunLeg]
// walks one leg through its phases:
//
//  1. [LoadCache] : read the source playlist's [models.SyncCache]
//  2. [FetchCatalogs] : fetch both playlists concurrently
//  3. [SelectCandidates] : keep the window newest source items that are new, unseen, or mapped to a
//     target that no longer exists
//  4. [BuildPlan] : per candidate, skip when validly mapped, map-only on a soft duplicate, otherwise
//     search with the leg's matcher and plan an add
//  5. [Apply] : record mappings and insert additions oldest first
//  6. [PersistCache] : mark every current source item seen and save the cache
//
// Dry runs stop after [BuildPlan] and never touch the stored cache.
//
// # Modes
//
// [Reconciler.Sync] runs the forward leg (Spotify → YouTube), the reverse leg (YouTube → Spotify), or
// both. In both mode the reverse window grows by the number of forward additions, since those
// additions push older items out of the reverse leg's recency window.
//
// [Reconciler.SyncAll] runs several pairs in sequence and writes per-leg reports and a manifest.
//
// # Progress Reporting
//
// All operations use non-blocking channels for progress updates.
// Updates use select with default to prevent blocking.
package tasks
