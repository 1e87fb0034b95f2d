// Package profile assembles a read-only profile snapshot from independent
// section sources and renders it twice: once as the interactive page and once
// as the print-ready export document used for PDF generation.
//
// The pipeline is Fetcher (fan-out/fan-in with default substitution) →
// Aggregator (one-shot readiness gate) → ComposePage, which builds two
// RenderContext values and calls BuildTree for each. Ephemeral per-visitor
// state lives in CopyState and InstallBanner.
package profile
