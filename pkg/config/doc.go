/*
Package config builds the watch list from command-line flags or a YAML file.

Flags are paired by position: the Nth --restart, --pattern, --skip-first and
--policy values belong to the Nth --watch. --restart and --pattern values are
comma-separated lists.

	logwatch -w web -r web,proxy -p OOM,panic: -s true

The equivalent YAML file:

	interval: 10s
	watches:
	  - name: web
	    restart: [web, proxy]
	    patterns: ["OOM", "panic:"]
	    skipFirst: true
	    policy: debounced

Every error returned by this package wraps ErrInvalid.
*/
package config
