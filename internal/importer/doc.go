// Package importer implements the CSV bulk-import pipeline for inventory
// assets.
//
// The pipeline runs in four stages, each usable on its own:
//
//  1. [Parse] tokenizes raw CSV text into headers and rows, handling the
//     UTF-8 BOM, semicolon-or-comma delimiters and spreadsheet quoting.
//  2. [AutoMap] proposes a mapping from CSV headers to the canonical
//     field catalog. The proposal is advisory; the operator can override
//     any entry before validating.
//  3. [Validator.Validate] partitions rows into validated rows and
//     per-row error lists. Every row lands in exactly one of the two.
//  4. [Importer.Run] persists validated rows in fixed-size batches,
//     creating missing categories on the fly and routing EPI-classified
//     rows to their own collection.
//
// Nothing in this package holds state across runs: the category cache is
// built per run and passed explicitly through validation and import.
package importer
