// Package file keeps docchat's settings and prompt templates on disk.
//
// ConfigStore reads and writes docchat.toml. PromptStore serves templates
// from the prompts directory. LoadDotEnv and WriteDefault prepare the
// environment and the starter config file.
package file
