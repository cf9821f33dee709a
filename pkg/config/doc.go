// Package config loads all application configuration from environment
// variables, once, at process start.
//
// Components never read the environment at call time; they receive their
// configuration by injection. Tests construct Config values directly with
// deterministic settings instead of mutating process-wide state.
package config
