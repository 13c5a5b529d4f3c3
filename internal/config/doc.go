// Package config loads and watches Folio's configuration.
//
// Settings come from four layers, later layers winning:
//
//   - built-in defaults (Default)
//   - a TOML or YAML file, chosen by extension
//   - a .env file next to the configuration file
//   - FOLIO_* environment variables
//
// The merged result is validated with struct tags; every invalid setting
// is reported in a single *ValidationError.
//
// # File Format
//
//	[editor]
//	coalesce_window = "300ms"
//	max_undo_entries = 1000
//
//	[logging]
//	level = "debug"
//	format = "json"
//	file = "/var/log/folio/folio.log"
//
//	[server]
//	addr = ":8080"
//	session_ttl = "30m"
//
// # Live Reload
//
// A Watcher reloads the file when it or its .env file changes and
// publishes the changed sections through a notify.Notifier:
//
//	w := config.NewWatcher(path, cfg)
//	w.Notifier().SubscribePath("logging", func(c notify.Change) {
//		level.SetLevel(parseLevel(c.NewValue.(config.LoggingConfig).Level))
//	})
//	go w.Run(ctx)
package config
