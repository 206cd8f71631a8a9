// Package models defines the core domain models for fintrack.
//
// # Models
//
//   - User: a registered identity, unique by email
//   - Transaction: a single deposit or withdrawal owned by exactly one user
//   - Analytics: category and daily totals derived from a user's transactions
//
// # Design Principles
//
//  1. Every Transaction carries its owner's ID; stores filter on it for every read.
//  2. Timestamps are always UTC.
//  3. Amounts are decimals, serialised as plain JSON numbers.
//  4. Analytics are never persisted; they are recomputed per request.
package models
