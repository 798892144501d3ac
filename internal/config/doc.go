// Package config loads, normalizes, and validates vocalsub configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// HF_TOKEN and DEEPSEEK_API_KEY. Validate covers structural checks every
// command needs; ValidatePipeline adds the credentials a pipeline run needs.
package config
