// Package pdf converts the rendered export document into a PDF.
//
// Renderer wraps an HTML FormatRenderer and hands its output to an Engine.
// ChromiumEngine drives a shared headless Chromium through chromedp and
// WKHTMLTOPDFEngine shells out to wkhtmltopdf.
package pdf
