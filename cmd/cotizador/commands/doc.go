// Package commands defines the cotizador CLI.
//
// Commands
//
//   - calc      Apply markup and discount to a base price
//   - quote     Build a quotation from a JSON request (file or stdin)
//   - summary   Summarize the quotations stored for a day
//
// The root command loads the same environment configuration as the HTTP
// server and builds the pricing engine and quotation service before any
// subcommand runs.
package commands
