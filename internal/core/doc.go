// Package core provides the normalization and fusion engine for fleet data.
//
// This package is the heart of the service, containing all domain logic
// independent of any file format, UI or transport layer. It can be used by web
// handlers, batch jobs, or tests without modification. Nothing in here performs
// I/O or logs.
//
// # Pipeline
//
// Two raw tables flow strictly forward through the engine:
//
//  1. Column roles are discovered with [ResolveColumn] against fixed, ordered
//     keyword tables (see [Role]).
//  2. Every row gets a canonical equipment key ([CanonicalizeEquipment]) and a
//     (year, month) period ([CoerceDate], [SplitMonthYear]).
//  3. Each source is reduced to one row per (equipment, year, month) with
//     [AggregateOperations] and [AggregateMaintenance].
//  4. [Fuse] outer-joins both aggregates and [BuildDimension] assigns surrogate
//     equipment ids.
//  5. [Clean] repairs or drops rows that break the year/month/tonnage/key
//     contract and restricts the dimension and detail tables to surviving keys.
//
// [Transform] runs all steps and returns a [Result] snapshot.
//
// # Missing Values
//
// Missing cells are represented with pgx nullable types (Valid=false):
// pgtype.Int4 for years and months, pgtype.Float8 for numeric measures,
// pgtype.Date for dates and pgtype.Text for order classes. Missing inputs never
// raise errors; they propagate until a cleaning rule turns them into a drop.
//
// # Error Handling
//
// The only fatal condition is a missing or empty source table, reported as
// [ErrMissingSource]. Technical errors are mapped to user-friendly messages
// using [MapError]:
//
//   - SRC001-SRC002: Source tables (missing, empty)
//   - FILE001-FILE004: Workbook files (size, format, missing upload)
//   - RUN001-RUN004: Pipeline runs (busy, not found, cancelled, timeout)
//   - DB001-DB004: Store errors (connection, timeout, constraints)
package core
