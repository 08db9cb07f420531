// Package core provides quality classification and doublecheck reconciliation
// for terminal weighing feeds.
//
// This package is the heart of the system. It holds all domain logic
// independent of any UI or transport layer, so the web server, the CLI and
// tests use it without modification.
//
// # Pipeline
//
//	raw text -> ParseFeed (Field Parser + Row Mapper) -> []Unit
//	         -> Engine.ClassifyAll (Evaluator + Reconciler) -> []ClassifiedUnit
//	         -> Aggregator (day and month rollups)
//
// # Feed Registry
//
// Feeds are registered at init time using [RegisterFeed]. Each
// [FeedDefinition] names its header aliases, the fields that identify a row
// and how a row becomes a [Unit]:
//
//	core.RegisterFeed(core.FeedDefinition{
//	    Key:      "unit",
//	    Kind:     core.KindTruck,
//	    Aliases:  unitAliases(),
//	    Required: []core.Field{core.FieldID, core.FieldLicensePlate},
//	    Build:    buildTruck,
//	})
//
// # Nullability
//
// Values are pgtype types. Valid=false means the source had no usable value,
// which is never the same as zero: an absent metric is incomplete data, not a
// specification violation.
//
// # Reconciliation
//
// [Reconciler.Decide] is the single place where the review state and final
// narrative of a unit are derived. Presentation code must not re-derive them
// from raw fields.
//
// # Error Handling
//
// Malformed rows are skipped and reported in [FeedResult.Skipped]. Service
// errors map to coded user messages through [MapError]:
//
//   - FEED001-FEED005: feed lookup and fetch errors
//   - REQ001-REQ002: cancelled or timed out requests
package core
