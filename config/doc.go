/*
Package config loads service configuration with the precedence defaults,
then YAML file, then environment variables.

	cfg, err := config.NewLoader().
	    WithConfigPath("greenlight.yaml").
	    WithEnvPrefix("GREENLIGHT").
	    Load()

The style preset catalogue ships as a separate YAML file so art direction
can change without a redeploy.
*/
package config
