// Package config loads and validates the configuration of a processing
// run.
//
// A Config is assembled in three stages: Default supplies the baseline,
// file layers merge over it in the order added, and SEMLEDGER_*
// environment variables apply last. Layers are YAML (JSON works too,
// being a YAML subset); each file is checked against an embedded JSON
// schema before it merges, so unknown sections, misspelled keys and
// wrongly typed values are reported per field instead of silently
// ignored. Duration fields accept Go duration strings such as "500ms"
// or "2s".
//
// Merging is key-wise and recursive: a layer only overrides the keys it
// actually sets, so a production layer can adjust one writer knob
// without restating the rest.
//
//	loader := config.NewLoader()
//	loader.AddLayer("config/base.yaml")
//	loader.AddLayer("config/production.yaml")
//	loader.EnableValidation(true)
//
//	cfg, err := loader.Load()
//	if err != nil {
//		log.Fatal(err)
//	}
//
// EnableValidation runs Validate on the merged result, which checks the
// semantic constraints the schema cannot express, such as the logging
// level set and the publish requirements that only apply when
// publishing is enabled.
package config
