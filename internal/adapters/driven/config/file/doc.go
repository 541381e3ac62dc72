// Package file loads the ragcore configuration from a TOML file.
//
// The file lives at ~/.ragcore/config.toml unless a path is given. Missing
// keys keep their defaults, and a .env file next to the config (or in the
// working directory) is loaded into the environment so API keys stay out of
// the TOML.
package file
