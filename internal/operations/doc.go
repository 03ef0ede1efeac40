// Package operations runs recipes: ordered steps that load, reshape,
// filter, aggregate and save tables, each step reading the table of the
// step before it or of a step it names.
//
// Core components:
//
// Recipe: the YAML description of a run, checked when parsed.
//
// Registry: maps step actions to factories. NewDefaultRegistry wires the
// built-in actions to a dataprocessing.Processor and an exporter.TableWriter.
//
// Manager: builds every step up front, then executes them in order with a
// trace span and an operation metric per step. The first failure skips the
// remaining steps.
//
// Example usage:
//
//	recipe, err := operations.LoadRecipe("capacities.yaml")
//	registry := operations.NewDefaultRegistry(operations.Deps{Processor: proc, Writer: writer})
//	state, err := operations.NewManager(registry, logger, metrics).Execute(ctx, recipe)
package operations
