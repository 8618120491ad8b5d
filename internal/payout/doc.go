// Package payout defines payout units and prices them.
//
// Pricing is a pure function of a unit's chosen view count. Views above the
// 10M cap are clamped for pricing only; the chosen value is kept for audit and
// the unit is flagged as capped. Summarize folds priced units and exceptions
// into one aggregate per creator.
package payout
