// Package extract turns raw tabular rows into entity field maps.
//
// A Mapping is a small typed descriptor: source path segments into the
// raw row, a target path in the output, and an ordered list of transform
// steps. A FieldExtractor interprets a list of mappings with one generic
// evaluator, so field extraction is declared in configuration rather than
// coded per entity type.
//
// Built-in transform steps cover string shaping (trim, uppercase,
// lowercase). Every other step name routes through the configured
// TypeAdapter, the coercion collaborator that turns raw column text into
// numbers, booleans, and dates. Coercions provides the standard adapter;
// callers with their own conversion rules supply any TypeAdapter.
//
// Stores consume extraction through the Extractor interface and treat the
// returned map as opaque entity data. A nil map means the row carried
// nothing relevant to the entity type.
package extract
