// Package normalize validates raw per-video payloads from the video source and
// coerces them into canonical video.Record values.
//
// Numeric fields tolerate the loose typing of upstream JSON: numbers, integral
// floats, and numeric strings are all accepted. Videos from platforms other
// than TikTok and Instagram are dropped without an exception. Private, removed,
// and incomplete videos are converted into video.Exception values and never
// reach the matcher.
package normalize
