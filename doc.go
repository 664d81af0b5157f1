/*
Package vanity keeps the registry of experiments and metrics defined as files,
and the connection to the store where their data lives.

# Concept

Experiments are definition files under the load path (default ./experiments) and
metrics are definition files under its metrics subdirectory. They are loaded
lazily on first use, once, and kept until Reload. Observations and experiment
metadata are written through a single adapter (redis by default) chosen from a
connection specification: a URI, an alias from config/vanity.yml, a map, or the
per-environment configuration files.

# Usage

	p, err := vanity.New(vanity.WithLoadPath("./experiments"))
	if err != nil {
		log.Fatal(err)
	}
	defer p.Close()

	ctx := identity.WithIdentity(context.Background(), identity.ID("user-42"))
	if err := p.Track(ctx, "signups", 1); err != nil {
		log.Fatal(err)
	}

A process-wide Playground is available through Default for code that does not
want to pass one around; it is built from the environment on first use.

# Configuration

Settings come from the environment (VANITY_LOAD_PATH, VANITY_CONFIG_DIR,
VANITY_NAMESPACE, VANITY_LOG_LEVEL and VANITY_ENV, falling back to RACK_ENV and
RAILS_ENV) and can be overridden with options.
*/
package vanity
