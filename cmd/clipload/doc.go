// Command clipload inspects class-per-directory clip datasets and drives the
// batch loader outside of a training run.
//
// Subcommands index the dataset, chart its class balance, assemble and
// preview single samples, and time a full epoch of batches. Settings come from
// a TOML file (see "clipload config init") with a few flag overrides.
package main
