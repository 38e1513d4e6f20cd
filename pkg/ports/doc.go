/*
Package ports defines the driven ports (interfaces) of the trialset engine.

These interfaces decouple planning from where experiments come from and where
generated plans are kept.

# Key Interfaces

  - ExperimentLoader: produces an Experiment (from YAML/JSON, HCL, a Loam directory or memory).
  - Watchable: optional capability of loaders that can signal source changes.
  - PlanStore: persists generated plans so they can be listed, shown and replayed.
*/
package ports
