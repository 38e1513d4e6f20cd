/*
Package domain contains the core models of a trialset experiment.

It defines the stimulus table (Items grouped into conditions), the option
bundles merged into each presentation type, the pass-through UI messages and
the Plan produced for one run. This package is kept pure and free of I/O or
persistence, following Hexagonal Architecture principles.

# Key Entities

  - Item: one trial, tagged with a group label, an optional ordinal, a
    presentation type and a payload (sentence or HTML plus field validators).
  - Experiment: the full definition (items, declared groups, defaults,
    messages and the sequencing expression).
  - Plan: one concrete ordered list of resolved items, together with the seed
    that produced it.
*/
package domain
