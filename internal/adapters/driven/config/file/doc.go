// Package file keeps lectern's user-editable state on disk under the lectern
// home directory: settings in config.toml (ConfigStore) and the answer prompts
// as plain text files (PromptStore).
package file
