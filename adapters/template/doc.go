// Package template wraps a composed profile page in a full HTML document.
//
// Renderer executes a named template through a TemplateExecutor. The default
// executor is backed by pongo2 and ships two embedded templates: "page" for the
// interactive site and "export" for the printable document handed to the PDF
// engine. Any executor with an ExecuteTemplate method works, including
// *html/template.Template, with the page data exposed as the template root.
package template
